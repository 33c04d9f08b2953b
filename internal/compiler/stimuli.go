package compiler

import (
	"github.com/aretw0/cadence/pkg/domain"
)

var requiredState = map[domain.StimulusKind][]string{
	domain.StimulusDisplayImage:        {"File", "X", "Y", "Width", "Height"},
	domain.StimulusPlaySound:           {"File", "Loop"},
	domain.StimulusMultiImageAnimation: {"Files", "X", "Y", "Width", "Height", "TimePerImage", "Loop"},
	domain.StimulusDisableGlobalPause:  nil,
}

func (s *session) stimulus(raw map[string]any, taskIndex int) (domain.Stimulus, string) {
	var e stateEntry
	if err := decode(raw, &e); err != nil {
		return nil, err.Error()
	}

	kind := domain.StimulusKind(e.StateType)
	required, ok := requiredState[kind]
	if !ok {
		return nil, "unknown StateType " + e.StateType
	}
	for _, key := range required {
		if !has(raw, key) {
			return nil, string(kind) + " requires " + key
		}
	}

	if kind == domain.StimulusDisableGlobalPause {
		return domain.PauseBlocker{Gate: s.gate}, ""
	}

	files := e.Files
	if e.File != "" {
		files = []string{e.File}
	}
	st, err := s.stimuli.NewStimulus(domain.StimulusSpec{
		Kind:         kind,
		Task:         taskIndex,
		Files:        files,
		X:            e.X,
		Y:            e.Y,
		Width:        e.Width,
		Height:       e.Height,
		Loop:         e.Loop,
		TimePerImage: e.TimePerImage,
	})
	if err != nil {
		return nil, err.Error()
	}
	return st, ""
}
