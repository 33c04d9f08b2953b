package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/cadence/pkg/domain"
)

// source is one conditional event waiting to be compiled.
type source struct {
	where string
	event map[string]any
}

func (s *session) procedure(task map[string]json.RawMessage) (*domain.Procedure, error) {
	raw, ok := task["TaskProcedure"]
	if !ok || isNull(raw) {
		return nil, fatal("", "Task has no TaskProcedure array")
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fatal("TaskProcedure", "%w", err)
	}

	// Flatten first so relative targets resolve against final task indices.
	var sources []source
	for i, entry := range entries {
		where := fmt.Sprintf("TaskProcedure[%d]", i)
		switch {
		case entry["ConditionalEvent"] != nil:
			var event map[string]any
			if err := json.Unmarshal(entry["ConditionalEvent"], &event); err != nil {
				return nil, fatal(where, "ConditionalEvent: %w", err)
			}
			if event == nil {
				return nil, fatal(where, "ConditionalEvent must be an object")
			}
			sources = append(sources, source{where: where, event: event})
		case entry["RepeatedEvent"] != nil:
			var block map[string]json.RawMessage
			if err := json.Unmarshal(entry["RepeatedEvent"], &block); err != nil {
				return nil, fatal(where, "RepeatedEvent: %w", err)
			}
			events, err := expandRepeated(block, where+".RepeatedEvent")
			if err != nil {
				return nil, err
			}
			if len(events) == 0 {
				s.logger.Warn("repeated event produced no tasks", "entry", i)
			}
			for k, e := range events {
				sources = append(sources, source{where: fmt.Sprintf("%s.RepeatedEvent[%d]", where, k), event: e})
			}
		default:
			s.logger.Warn("ignoring procedure entry without ConditionalEvent or RepeatedEvent", "entry", i)
		}
	}

	procedure := domain.NewProcedure()
	for index, src := range sources {
		t, err := s.task(src, index)
		if err != nil {
			return nil, err
		}
		procedure.Add(t)
	}
	if procedure.Len() == 0 {
		return nil, &LoadError{Where: "TaskProcedure", Err: domain.ErrEmptyProcedure}
	}
	return procedure, nil
}

func (s *session) task(src source, index int) (*domain.Task, error) {
	if !has(src.event, "EndConditions") {
		return nil, fatal(src.where, "conditional event must have EndConditions")
	}
	if !has(src.event, "State") {
		return nil, fatal(src.where, "conditional event must have at least one State item")
	}
	var event conditionalEvent
	if err := decode(src.event, &event); err != nil {
		return nil, fatal(src.where, "%w", err)
	}

	name := event.Name
	if name == "" {
		name = fmt.Sprintf("task-%d", index)
	}
	t := domain.NewTask(name)

	for j, raw := range event.EndConditions {
		c, reason := s.condition(raw, index)
		if c == nil {
			s.warn(index, j, "%s", reason)
			continue
		}
		t.AddCondition(c)
	}
	for j, raw := range event.State {
		st, reason := s.stimulus(raw, index)
		if st == nil {
			s.warn(index, -1, "state %d: %s", j, reason)
			continue
		}
		t.AddStimulus(st)
	}

	if len(t.Conditions) == 0 {
		return nil, fatal(src.where, "no usable end condition")
	}
	if len(t.Stimuli) == 0 {
		return nil, fatal(src.where, "no usable State item")
	}
	return t, nil
}
