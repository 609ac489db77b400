package teams

import "github.com/mauv0809/pitchside/internal/match"

// State is the derived team view of a match.
type State struct {
	Variants  []match.TeamVariant `json:"variants"`
	VariantNo int                 `json:"variant_no"`
	Teams     match.Teams         `json:"teams"`
	IsCustom  bool                `json:"is_custom"`
	WhyWorse  string              `json:"why_now_worse,omitempty"`
	Eligible  match.IDList        `json:"eligible"`
	// Editable is true while the viewer may change teams.
	Editable bool `json:"editable"`
	Loaded   bool `json:"-"`
}

func (s State) clone() State {
	out := s
	out.Variants = make([]match.TeamVariant, len(s.Variants))
	for i, v := range s.Variants {
		v.Teams = v.Teams.Clone()
		out.Variants[i] = v
	}
	out.Teams = s.Teams.Clone()
	out.Eligible = append(match.IDList(nil), s.Eligible...)
	return out
}

// Variant returns the loaded variant numbered no, or nil.
func (s State) Variant(no int) *match.TeamVariant {
	for i := range s.Variants {
		if s.Variants[i].VariantNo == no {
			return &s.Variants[i]
		}
	}
	return nil
}

// VariantIndex is the position of the selected variant, or -1.
func (s State) VariantIndex() int {
	for i := range s.Variants {
		if s.Variants[i].VariantNo == s.VariantNo {
			return i
		}
	}
	return -1
}
