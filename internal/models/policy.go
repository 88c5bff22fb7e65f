package models

import "fmt"

// LocationPolicy decides what happens to unlocated records (either
// coordinate exactly 0) when the working set is loaded. The source data
// contains rows whose coordinates failed to parse and were written as 0;
// dropping them also drops legitimate equatorial or prime-meridian reports,
// so the rule is configurable rather than silent.
type LocationPolicy string

// Location policies.
const (
	LocationDrop   LocationPolicy = "drop"
	LocationRetain LocationPolicy = "retain"
)

// Validate rejects unknown policies. Empty normalises to drop, the
// historical behavior.
func (p *LocationPolicy) Validate() error {
	switch *p {
	case "":
		*p = LocationDrop
		return nil
	case LocationDrop, LocationRetain:
		return nil
	default:
		return fmt.Errorf("models: unknown location policy %q", *p)
	}
}

// Apply filters a loaded record set according to the policy, preserving
// order. Retain returns the input unchanged.
func (p LocationPolicy) Apply(in []Sighting) []Sighting {
	if p != LocationDrop {
		return in
	}
	out := make([]Sighting, 0, len(in))
	for _, s := range in {
		if s.HasLocation() {
			out = append(out, s)
		}
	}
	return out
}
