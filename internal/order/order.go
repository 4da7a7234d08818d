// Package order holds the coffee order model shared by the barista agent
// and every consumer of the order synchronization protocol.
package order

// Recognized cup sizes. The wire format carries free text, so these are
// conventions rather than an enforced enum.
const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
)

// MilkNone is the sentinel milk choice meaning no milk at all.
const MilkNone = "none"

// Placeholder is what views show for a field the agent has not filled yet.
const Placeholder = "…"

// State is the current coffee order. Empty strings mean the field is still
// unknown. JSON field names match the payloads the agent pushes over the
// room, so a State marshals directly into an order_update/order_final value.
type State struct {
	DrinkType string   `json:"drinkType,omitempty"`
	Size      string   `json:"size,omitempty"`
	Milk      string   `json:"milk,omitempty"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name,omitempty"`
}

// Partial is a shallow-merge delta: only non-nil fields overwrite the
// corresponding State field. Extras replaces the whole slice, it is never
// unioned with what is already there.
type Partial struct {
	DrinkType *string   `json:"drinkType"`
	Size      *string   `json:"size"`
	Milk      *string   `json:"milk"`
	Extras    *[]string `json:"extras"`
	Name      *string   `json:"name"`
}

// Empty returns the initial all-absent order.
func Empty() State {
	return State{Extras: []string{}}
}

// IsComplete reports whether every required field is filled. Extras are
// optional and never affect completeness.
func (s State) IsComplete() bool {
	return s.DrinkType != "" && s.Size != "" && s.Milk != "" && s.Name != ""
}

// Apply shallow-merges a partial into the state, last writer wins per field.
func (s *State) Apply(p Partial) {
	if p.DrinkType != nil {
		s.DrinkType = *p.DrinkType
	}
	if p.Size != nil {
		s.Size = *p.Size
	}
	if p.Milk != nil {
		s.Milk = *p.Milk
	}
	if p.Extras != nil {
		s.Extras = DedupeExtras(*p.Extras)
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
}

// Normalized returns a copy with extras de-duplicated and never nil.
func (s State) Normalized() State {
	s.Extras = DedupeExtras(s.Extras)
	return s
}

// Clone returns a deep copy, so callers can hand the state out without
// sharing the extras slice.
func (s State) Clone() State {
	extras := make([]string, len(s.Extras))
	copy(extras, s.Extras)
	s.Extras = extras
	return s
}

// DedupeExtras removes duplicate entries while preserving first-seen order.
// The result is never nil.
func DedupeExtras(extras []string) []string {
	deduped := make([]string, 0, len(extras))
	seen := make(map[string]struct{}, len(extras))
	for _, extra := range extras {
		if _, ok := seen[extra]; ok {
			continue
		}
		seen[extra] = struct{}{}
		deduped = append(deduped, extra)
	}
	return deduped
}

// Display returns the value or the placeholder when the field is absent.
func Display(value string) string {
	if value == "" {
		return Placeholder
	}
	return value
}
