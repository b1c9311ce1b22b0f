package models

import "fmt"

// Outcome represents the resolution state of a question. A question starts
// unresolved and transitions exactly once to Yes or No; the transition is
// terminal.
type Outcome string

const (
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeYes        Outcome = "Yes"
	OutcomeNo         Outcome = "No"
)

// IsResolved reports whether the outcome is terminal.
func (o Outcome) IsResolved() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Side identifies one of the two sides of a binary market.
type Side string

const (
	SideYes Side = "Yes"
	SideNo  Side = "No"
)

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// ParseSide converts a stored answer string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideYes, SideNo:
		return Side(s), nil
	default:
		return "", fmt.Errorf("invalid side %q", s)
	}
}

// Winner returns the side matching a resolved outcome. It panics when called
// on an unresolved outcome; resolution must be checked first.
func (o Outcome) Winner() Side {
	switch o {
	case OutcomeYes:
		return SideYes
	case OutcomeNo:
		return SideNo
	default:
		panic("models: Winner called on unresolved outcome")
	}
}
