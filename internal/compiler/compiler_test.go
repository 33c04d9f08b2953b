package compiler_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cadence/internal/compiler"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyboard = `{"InterfaceType": "Keyboard", "KeyMap": [["a", "b"], ["left", "right"]]}`

const image = `{"StateType": "DisplayImage", "File": "img.png", "X": 0, "Y": 0, "Width": 1, "Height": 1}`

// doc wraps procedure entries in a minimal valid document.
func doc(entries string) []byte {
	return []byte(fmt.Sprintf(`{"Task": {
		"Interfaces": [%s],
		"InterfaceMaster": "Keyboard",
		"TaskProcedure": [%s]
	}}`, keyboard, entries))
}

func event(conditions string) string {
	return fmt.Sprintf(`{"ConditionalEvent": {"EndConditions": [%s], "State": [%s]}}`, conditions, image)
}

func compile(t *testing.T, data []byte) (*domain.Configuration, []compiler.Warning) {
	t.Helper()
	cfg, warnings, err := compiler.New().Compile(data)
	require.NoError(t, err)
	return cfg, warnings
}

func requireLoadError(t *testing.T, data []byte) *compiler.LoadError {
	t.Helper()
	_, _, err := compiler.New().Compile(data)
	var le *compiler.LoadError
	require.ErrorAs(t, err, &le)
	return le
}

func TestCompile_Defaults(t *testing.T) {
	cfg, warnings := compile(t, doc(event(`{"ConditionType": "Timeout", "Duration": 2}`)))

	assert.Empty(t, warnings)
	assert.Equal(t, domain.InterfaceKeyboard, cfg.Interfaces.Master)
	assert.Equal(t, domain.DefaultTCPPort, cfg.Interfaces.TCPPort)
	assert.Equal(t, domain.Black, cfg.BackgroundColor)
	assert.False(t, cfg.GlobalPauseEnabled)
	assert.Zero(t, cfg.MaxPause)
	require.NotNil(t, cfg.Variables)
	require.NotNil(t, cfg.PauseGate)

	require.Equal(t, 1, cfg.Procedure.Len())
	task := cfg.Procedure.Tasks()[0]
	assert.Equal(t, "task-0", task.Name)
	require.Len(t, task.Conditions, 1)
	assert.Equal(t, domain.ConditionTimeout, task.Conditions[0].Kind)
	assert.Equal(t, 2*time.Second, task.Conditions[0].Duration)
	assert.True(t, task.Conditions[0].Target.IsNext())

	cmd, ok := cfg.Interfaces.Maps[domain.InterfaceKeyboard].Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "right", cmd)
}

func TestCompile_OptionalSettings(t *testing.T) {
	data := []byte(fmt.Sprintf(`{"Task": {
		"Interfaces": [%s, {"InterfaceType": "TCP", "KeyMap": [["x"], ["go"]], "Port": 9000}],
		"InterfaceMaster": "TCP",
		"GlobalPauseEnabled": true,
		"BackgroundColor": "10A0FF",
		"MaximumAllowablePauseTime": 30,
		"TaskProcedure": [%s]
	}}`, keyboard, event(`{"ConditionType": "Timeout", "Duration": 1}`)))

	cfg, _ := compile(t, data)
	assert.Equal(t, domain.InterfaceTCP, cfg.Interfaces.Master)
	assert.Equal(t, 9000, cfg.Interfaces.TCPPort)
	assert.True(t, cfg.GlobalPauseEnabled)
	assert.True(t, cfg.PauseGate.Enabled())
	assert.Equal(t, domain.Color{R: 0x10, G: 0xA0, B: 0xFF}, cfg.BackgroundColor)
	assert.Equal(t, 30*time.Second, cfg.MaxPause)
}

func TestCompile_FatalErrors(t *testing.T) {
	okEvent := event(`{"ConditionType": "Timeout", "Duration": 1}`)
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"no Task", `{"Other": {}}`},
		{"no Interfaces", fmt.Sprintf(`{"Task": {"InterfaceMaster": "Keyboard", "TaskProcedure": [%s]}}`, okEvent)},
		{"no InterfaceMaster", fmt.Sprintf(`{"Task": {"Interfaces": [%s], "TaskProcedure": [%s]}}`, keyboard, okEvent)},
		{"no TaskProcedure", fmt.Sprintf(`{"Task": {"Interfaces": [%s], "InterfaceMaster": "Keyboard"}}`, keyboard)},
		{"unknown master", fmt.Sprintf(`{"Task": {"Interfaces": [%s], "InterfaceMaster": "Mouse", "TaskProcedure": [%s]}}`, keyboard, okEvent)},
		{"master without map", fmt.Sprintf(`{"Task": {"Interfaces": [%s], "InterfaceMaster": "TCP", "TaskProcedure": [%s]}}`, keyboard, okEvent)},
		{"key map mismatch", fmt.Sprintf(`{"Task": {"Interfaces": [{"InterfaceType": "Keyboard", "KeyMap": [["a","b"],["x"]]}], "InterfaceMaster": "Keyboard", "TaskProcedure": [%s]}}`, okEvent)},
		{"bad color", fmt.Sprintf(`{"Task": {"Interfaces": [%s], "InterfaceMaster": "Keyboard", "BackgroundColor": "red", "TaskProcedure": [%s]}}`, keyboard, okEvent)},
		{"missing EndConditions", string(doc(fmt.Sprintf(`{"ConditionalEvent": {"State": [%s]}}`, image)))},
		{"missing State", string(doc(`{"ConditionalEvent": {"EndConditions": [{"ConditionType": "Timeout", "Duration": 1}]}}`))},
		{"all conditions skipped", string(doc(event(`{"ConditionType": "Timeout"}`)))},
		{"empty procedure", string(doc(``))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireLoadError(t, []byte(tt.data))
		})
	}
}

func TestCompile_EmptyProcedureIsSentinel(t *testing.T) {
	le := requireLoadError(t, doc(``))
	assert.ErrorIs(t, le, domain.ErrEmptyProcedure)
}

func TestCompile_SkipsMalformedEntries(t *testing.T) {
	cfg, warnings := compile(t, doc(event(`
		{"ConditionType": "Teleport"},
		{"ConditionType": "InputCommand", "Duration": 1},
		{"ConditionType": "ExpressionCondition"},
		{"ConditionType": "ChainCondition", "Conditions": []},
		{"ConditionType": "Timeout", "Duration": 1, "TransitionToRelativeIndex": -5},
		{"ConditionType": "InputCommand", "Duration": "0.5", "CommandNames": ["left"]}
	`)))

	assert.Len(t, warnings, 5)
	task := cfg.Procedure.Tasks()[0]
	require.Len(t, task.Conditions, 1)
	assert.Equal(t, domain.ConditionCommand, task.Conditions[0].Kind)
	assert.Equal(t, 500*time.Millisecond, task.Conditions[0].Duration)
	assert.Equal(t, []string{"left"}, task.Conditions[0].Commands)
	assert.Equal(t, 0, warnings[0].Task)
	assert.Equal(t, 0, warnings[0].Condition)
}

func TestCompile_Targets(t *testing.T) {
	cfg, _ := compile(t, doc(
		event(`{"ConditionType": "Timeout", "Duration": 1}`) + "," +
			event(`{"ConditionType": "Timeout", "Duration": 1, "TransitionToIndex": 0},
			       {"ConditionType": "Timeout", "Duration": 1, "TransitionToRelativeIndex": 2},
			       {"ConditionType": "Timeout", "Duration": 1, "TransitionToIndex": 7, "TransitionToRelativeIndex": -1}`)))

	conds := cfg.Procedure.Tasks()[1].Conditions
	require.Len(t, conds, 3)
	assert.Equal(t, "0", conds[0].Target.String())
	assert.Equal(t, "3", conds[1].Target.String(), "relative to the owning task")
	assert.Equal(t, "0", conds[2].Target.String(), "relative wins over absolute")
}

func TestCompile_ConditionVariants(t *testing.T) {
	cfg, warnings := compile(t, doc(event(`
		{"ConditionType": "CumulativeInputCommand", "Duration": 3, "CommandNames": ["look"], "StoreValueInVariableName": " Look "},
		{"ConditionType": "ExpressionCondition", "Expression": "Look > 2", "NotificationText": "done looking"},
		{"ConditionType": "ChainCondition", "TransitionToIndex": 0, "Conditions": [
			{"ConditionType": "Timeout", "Duration": 1},
			{"ConditionType": "InputCommand", "Duration": 0, "CommandNames": ["right"], "TransitionToIndex": 9}
		]}
	`)))
	require.Empty(t, warnings)

	conds := cfg.Procedure.Tasks()[0].Conditions
	require.Len(t, conds, 3)
	assert.Equal(t, "Look", conds[0].StoreIn)
	assert.Equal(t, "Look > 2", conds[1].Expression)
	assert.Equal(t, "done looking", conds[1].Notification)

	chain := conds[2]
	assert.Equal(t, domain.ConditionChain, chain.Kind)
	require.Len(t, chain.Subconditions, 2)
	assert.Equal(t, domain.ConditionTimeout, chain.Subconditions[0].Kind)
	assert.Equal(t, "9", chain.Subconditions[1].Target.String())
}

func TestCompile_ChainWithBadStageIsSkipped(t *testing.T) {
	cfg, warnings := compile(t, doc(event(`
		{"ConditionType": "ChainCondition", "Conditions": [{"ConditionType": "Timeout"}]},
		{"ConditionType": "Timeout", "Duration": 1}
	`)))
	assert.Len(t, warnings, 1)
	assert.Len(t, cfg.Procedure.Tasks()[0].Conditions, 1)
}

func TestCompile_StateItems(t *testing.T) {
	var specs []domain.StimulusSpec
	factory := domain.StimulusFactoryFunc(func(spec domain.StimulusSpec) (domain.Stimulus, error) {
		specs = append(specs, spec)
		return compiler.NopStimuli.NewStimulus(spec)
	})

	data := doc(`{"ConditionalEvent": {
		"EndConditions": [{"ConditionType": "Timeout", "Duration": 1}],
		"State": [
			{"StateType": "PlaySound", "File": "tone.wav", "Loop": true},
			{"StateType": "PlaySound", "File": "tone.wav"},
			{"StateType": "MultiImageAnimation", "Files": ["a.png", "b.png"], "X": 1, "Y": 2, "Width": 3, "Height": 4, "TimePerImage": 0.5, "Loop": false},
			{"StateType": "Hologram"},
			{"StateType": "DisableGlobalPause"}
		]}}`)

	cfg, warnings, err := compiler.New(compiler.WithStimulusFactory(factory)).Compile(data)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)

	require.Len(t, specs, 2)
	assert.Equal(t, domain.StimulusPlaySound, specs[0].Kind)
	assert.Equal(t, []string{"tone.wav"}, specs[0].Files)
	assert.True(t, specs[0].Loop)
	assert.Equal(t, []string{"a.png", "b.png"}, specs[1].Files)
	assert.Equal(t, 0.5, specs[1].TimePerImage)

	stimuli := cfg.Procedure.Tasks()[0].Stimuli
	require.Len(t, stimuli, 3)
	assert.IsType(t, domain.PauseBlocker{}, stimuli[2])
}

func TestCompile_RepeatedEvent(t *testing.T) {
	data := doc(`{"RepeatedEvent": {
		"SubstitutionParameters": [
			{"ParameterSubstitutionString": "$TRIAL", "ParameterValues": ["one", "two", "three"]}
		],
		"ConditionalEventTemplates": [
			{"ConditionalEvent": {"Name": "trial-$TRIAL",
				"EndConditions": [{"ConditionType": "Timeout", "Duration": 1}],
				"State": [` + image + `]}}
		]
	}}`)

	cfg, _ := compile(t, data)
	require.Equal(t, 3, cfg.Procedure.Len())
	for i, want := range []string{"trial-one", "trial-two", "trial-three"} {
		assert.Equal(t, want, cfg.Procedure.Tasks()[i].Name)
	}
}

func TestCompile_RepeatedEventShortestParameterWins(t *testing.T) {
	data := doc(event(`{"ConditionType": "Timeout", "Duration": 1}`) + `,
	{"RepeatedEvent": {
		"SubstitutionParameters": [
			{"ParameterSubstitutionString": "#D", "ParameterValues": [1, 2, 3]},
			{"ParameterSubstitutionString": "#R", "ParameterValues": [1, 2]}
		],
		"ConditionalEventTemplates": "[{\"EndConditions\": [{\"ConditionType\": \"Timeout\", \"Duration\": #D, \"TransitionToRelativeIndex\": #R}], ` +
		`\"State\": [{\"StateType\": \"PlaySound\", \"File\": \"x.wav\", \"Loop\": false}], \"Name\": \"#D\"}]"
	}}`)

	cfg, _ := compile(t, data)
	require.Equal(t, 3, cfg.Procedure.Len())

	first := cfg.Procedure.Tasks()[1]
	assert.Equal(t, "#D", first.Name, "only the first occurrence of a token is replaced")
	require.Len(t, first.Conditions, 1)
	assert.Equal(t, time.Second, first.Conditions[0].Duration)
	assert.Equal(t, "2", first.Conditions[0].Target.String(), "relative to the expanded task index")

	second := cfg.Procedure.Tasks()[2]
	assert.Equal(t, 2*time.Second, second.Conditions[0].Duration)
	assert.Equal(t, "4", second.Conditions[0].Target.String())
}

func TestCompile_RepeatedEventMalformed(t *testing.T) {
	tests := map[string]string{
		"no template":   `{"RepeatedEvent": {"SubstitutionParameters": [{"ParameterSubstitutionString": "$X", "ParameterValues": ["a"]}]}}`,
		"no parameters": `{"RepeatedEvent": {"ConditionalEventTemplates": []}}`,
		"bad copy":      `{"RepeatedEvent": {"SubstitutionParameters": [{"ParameterSubstitutionString": "$X", "ParameterValues": ["a"]}], "ConditionalEventTemplates": "[{$X"}}`,
	}
	for name, entry := range tests {
		t.Run(name, func(t *testing.T) {
			requireLoadError(t, doc(entry))
		})
	}
}

func TestCompileFile_ErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Task": {}}`), 0644))

	_, _, err := compiler.New().CompileFile(path)
	var le *compiler.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.Path)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestCompile_SharedVariables(t *testing.T) {
	vars := domain.NewVariables()
	cfg, _, err := compiler.New(compiler.WithVariables(vars)).Compile(doc(event(`{"ConditionType": "Timeout", "Duration": 1}`)))
	require.NoError(t, err)
	assert.Same(t, vars, cfg.Variables)
}
