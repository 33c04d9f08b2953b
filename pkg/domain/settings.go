package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Setting keys understood by the run command. The names follow the
// preference keys written by the lab's session form.
const (
	SettingParticipantID = "participantID"
	SettingResearchers   = "researchers"
	SettingDate          = "date"
	SettingGender        = "gender"
	SettingProcedureFile = "conditionFile"
	SettingStartIndex    = "placeIndex"
)

// RunSettings are optional, run-scoped parameters read before a run starts.
// Any missing value falls back to the documented default: no metadata,
// the procedure file given on the command line, and task 0.
type RunSettings struct {
	ParticipantID string
	Researchers   []string
	Date          string
	Gender        string
	ProcedureFile string
	StartIndex    int
	// Extra holds keys not listed above.
	Extra map[string]string
}

// RunSettingsFromMap decodes settings from raw key/value pairs.
// A malformed start index is ignored.
func RunSettingsFromMap(values map[string]string) RunSettings {
	s := RunSettings{Extra: map[string]string{}}
	for k, v := range values {
		switch k {
		case SettingParticipantID:
			s.ParticipantID = v
		case SettingResearchers:
			for _, r := range strings.Split(v, ",") {
				if r = strings.TrimSpace(r); r != "" {
					s.Researchers = append(s.Researchers, r)
				}
			}
		case SettingDate:
			s.Date = v
		case SettingGender:
			s.Gender = v
		case SettingProcedureFile:
			s.ProcedureFile = strings.TrimSpace(v)
		case SettingStartIndex:
			if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i >= 0 {
				s.StartIndex = i
			}
		default:
			s.Extra[k] = v
		}
	}
	return s
}

// Map flattens the settings back into key/value pairs, omitting empty values.
func (s RunSettings) Map() map[string]string {
	m := make(map[string]string, len(s.Extra)+6)
	for k, v := range s.Extra {
		m[k] = v
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put(SettingParticipantID, s.ParticipantID)
	put(SettingResearchers, strings.Join(s.Researchers, ","))
	put(SettingDate, s.Date)
	put(SettingGender, s.Gender)
	put(SettingProcedureFile, s.ProcedureFile)
	if s.StartIndex > 0 {
		m[SettingStartIndex] = strconv.Itoa(s.StartIndex)
	}
	return m
}

// Seed copies every setting into vars.
func (s RunSettings) Seed(vars *Variables) {
	m := s.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vars.Set(k, m[k])
	}
}
