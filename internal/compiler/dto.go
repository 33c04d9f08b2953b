package compiler

import (
	"github.com/mitchellh/mapstructure"
)

// Procedure file entries. Presence of optional keys is checked on the raw
// map before decoding so absent and zero values stay distinguishable.

type interfaceEntry struct {
	InterfaceType string     `mapstructure:"InterfaceType"`
	KeyMap        [][]string `mapstructure:"KeyMap"`
	Port          int        `mapstructure:"Port"`
}

type conditionEntry struct {
	ConditionType             string           `mapstructure:"ConditionType"`
	Duration                  float64          `mapstructure:"Duration"`
	CommandNames              []string         `mapstructure:"CommandNames"`
	Conditions                []map[string]any `mapstructure:"Conditions"`
	Expression                string           `mapstructure:"Expression"`
	StoreValueInVariableName  string           `mapstructure:"StoreValueInVariableName"`
	TransitionToIndex         int              `mapstructure:"TransitionToIndex"`
	TransitionToRelativeIndex int              `mapstructure:"TransitionToRelativeIndex"`
	NotificationText          string           `mapstructure:"NotificationText"`
}

type stateEntry struct {
	StateType    string   `mapstructure:"StateType"`
	File         string   `mapstructure:"File"`
	Files        []string `mapstructure:"Files"`
	X            float64  `mapstructure:"X"`
	Y            float64  `mapstructure:"Y"`
	Width        float64  `mapstructure:"Width"`
	Height       float64  `mapstructure:"Height"`
	Loop         bool     `mapstructure:"Loop"`
	TimePerImage float64  `mapstructure:"TimePerImage"`
}

type conditionalEvent struct {
	Name          string           `mapstructure:"Name"`
	EndConditions []map[string]any `mapstructure:"EndConditions"`
	State         []map[string]any `mapstructure:"State"`
}

type substitutionParameter struct {
	ParameterSubstitutionString string   `mapstructure:"ParameterSubstitutionString"`
	ParameterValues             []string `mapstructure:"ParameterValues"`
}

// decode copies raw into out. Weak typing accepts "2" where 2 is expected
// and the reverse, which hand-edited procedure files rely on.
func decode(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// has reports whether key is present and not null.
func has(raw map[string]any, key string) bool {
	v, ok := raw[key]
	return ok && v != nil
}
