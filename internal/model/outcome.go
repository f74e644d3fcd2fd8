package model

import "fmt"

// Outcome is the three-way backtest classification.
type Outcome string

const (
	OutcomeSuccessful   Outcome = "SUCCESSFUL"
	OutcomeNeutral      Outcome = "NEUTRAL"
	OutcomeUnsuccessful Outcome = "UNSUCCESSFUL"
)

// Outcomes lists the classes in report order.
var Outcomes = []Outcome{OutcomeSuccessful, OutcomeNeutral, OutcomeUnsuccessful}

// Case1Tag returns the outcome tag emitted by the tagger for o.
func (o Outcome) Case1Tag() Tag {
	switch o {
	case OutcomeSuccessful:
		return T(TagSuccessfulC1)
	case OutcomeNeutral:
		return T(TagNeutralC1)
	default:
		return T(TagUnsuccessfulC1)
	}
}

// OutcomeFromTags returns the case-1 outcome carried by tags, if any.
func OutcomeFromTags(tags []Tag) *Outcome {
	for _, t := range tags {
		var o Outcome
		switch t.Code {
		case TagSuccessfulC1:
			o = OutcomeSuccessful
		case TagNeutralC1:
			o = OutcomeNeutral
		case TagUnsuccessfulC1:
			o = OutcomeUnsuccessful
		default:
			continue
		}
		return &o
	}
	return nil
}

// ParseOutcome parses a serialized outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeSuccessful, OutcomeNeutral, OutcomeUnsuccessful:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}
