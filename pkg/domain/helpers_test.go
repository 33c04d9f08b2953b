package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func sec(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string, _ time.Duration) {
	n.messages = append(n.messages, message)
}

// literalEvaluator understands "true", "false" and "<number> > <number>".
type literalEvaluator struct{}

func (literalEvaluator) EvaluateBool(expression string) (bool, error) {
	fields := strings.Fields(expression)
	if len(fields) == 3 && fields[1] == ">" {
		a, errA := strconv.ParseFloat(fields[0], 64)
		b, errB := strconv.ParseFloat(fields[2], 64)
		if errA != nil || errB != nil {
			return false, fmt.Errorf("not a number in %q", expression)
		}
		return a > b, nil
	}
	return strconv.ParseBool(expression)
}

type recordingStimulus struct {
	active  bool
	toggles int
}

func (s *recordingStimulus) Activate() {
	s.active = true
	s.toggles++
}

func (s *recordingStimulus) Deactivate() {
	s.active = false
	s.toggles++
}
