package sony

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SettingKind classifies a discovered setting.
type SettingKind string

// Setting kinds.
const (
	KindBoolean SettingKind = "boolean"
	KindEnum    SettingKind = "enum"
	KindNumeric SettingKind = "numeric"
	KindUnknown SettingKind = "unknown"
)

// Default numeric range used when the device omits min/max/step.
const (
	defaultRangeMin  = -10.0
	defaultRangeMax  = 10.0
	defaultRangeStep = 0.5
)

// Candidate is one legal value of a boolean or enumerated setting.
type Candidate struct {
	Value       string `json:"value"`
	Title       string `json:"title"`
	IsAvailable bool   `json:"is_available"`
}

// Setting is one discovered capability unit.
type Setting struct {
	Target       string      `json:"target"`
	Kind         SettingKind `json:"kind"`
	Type         string      `json:"type"`
	Title        string      `json:"title"`
	IsAvailable  bool        `json:"is_available"`
	CurrentValue string      `json:"current_value,omitempty"`
	Candidates   []Candidate `json:"candidates,omitempty"`
	Min          float64     `json:"min,omitempty"`
	Max          float64     `json:"max,omitempty"`
	Step         float64     `json:"step,omitempty"`
}

// HasCandidate reports whether value is one of the setting's candidate values.
func (s Setting) HasCandidate(value string) bool {
	for _, c := range s.Candidates {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CandidateFold returns the candidate whose value equals value ignoring case.
// An exact match wins over a case-insensitive one.
func (s Setting) CandidateFold(value string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.Value == value {
			return c, true
		}
	}
	for _, c := range s.Candidates {
		if strings.EqualFold(c.Value, value) {
			return c, true
		}
	}
	return Candidate{}, false
}

// NumericValue parses CurrentValue for numeric settings.
func (s Setting) NumericValue() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s.CurrentValue), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// settingEntry is the wire form of one element of getSoundSettings,
// getSpeakerSettings and getCustomEqualizerSettings.
type settingEntry struct {
	Target       string           `json:"target"`
	Type         string           `json:"type"`
	Title        string           `json:"title"`
	IsAvailable  *bool            `json:"isAvailable"`
	CurrentValue json.RawMessage  `json:"currentValue"`
	Candidate    []candidateEntry `json:"candidate"`
}

type candidateEntry struct {
	Value       json.RawMessage `json:"value"`
	Title       string          `json:"title"`
	IsAvailable *bool           `json:"isAvailable"`
	Min         *float64        `json:"min"`
	Max         *float64        `json:"max"`
	Step        *float64        `json:"step"`
}

func kindOf(wireType string) SettingKind {
	switch wireType {
	case "booleanTarget":
		return KindBoolean
	case "enumTarget":
		return KindEnum
	case "doubleNumberTarget", "integerTarget":
		return KindNumeric
	default:
		return KindUnknown
	}
}

// rawString renders a JSON scalar as the string the device expects back.
// Strings are unquoted; numbers and booleans keep their literal text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// normalizeSettings converts wire entries into Settings. Entries without a
// target, duplicate targets and boolean/enum entries without candidates are
// dropped so the result satisfies the snapshot invariants.
func normalizeSettings(entries []settingEntry) []Setting {
	out := make([]Setting, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Target == "" {
			continue
		}
		if _, dup := seen[e.Target]; dup {
			continue
		}

		s := Setting{
			Target:       e.Target,
			Kind:         kindOf(e.Type),
			Type:         e.Type,
			Title:        e.Title,
			IsAvailable:  boolOr(e.IsAvailable, true),
			CurrentValue: rawString(e.CurrentValue),
		}
		if s.Title == "" {
			s.Title = e.Target
		}

		switch s.Kind {
		case KindNumeric:
			s.Min, s.Max, s.Step = defaultRangeMin, defaultRangeMax, defaultRangeStep
			if len(e.Candidate) > 0 {
				c := e.Candidate[0]
				if c.Min != nil {
					s.Min = *c.Min
				}
				if c.Max != nil {
					s.Max = *c.Max
				}
				if c.Step != nil && *c.Step > 0 {
					s.Step = *c.Step
				}
			}
		case KindBoolean, KindEnum:
			if len(e.Candidate) == 0 {
				continue
			}
			fallthrough
		default:
			for _, c := range e.Candidate {
				value := rawString(c.Value)
				title := c.Title
				if title == "" {
					title = value
				}
				s.Candidates = append(s.Candidates, Candidate{
					Value:       value,
					Title:       title,
					IsAvailable: boolOr(c.IsAvailable, true),
				})
			}
		}

		seen[e.Target] = struct{}{}
		out = append(out, s)
	}
	return out
}

// cloneSettings deep-copies a settings slice for read-only views.
func cloneSettings(in []Setting) []Setting {
	if in == nil {
		return nil
	}
	out := make([]Setting, len(in))
	for i, s := range in {
		out[i] = s
		if s.Candidates != nil {
			out[i].Candidates = append([]Candidate(nil), s.Candidates...)
		}
	}
	return out
}
