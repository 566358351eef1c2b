package domain

// Decision is the result kind of a single authorization.
type Decision int

const (
	DecisionRejected Decision = iota
	DecisionPass
	DecisionRotated
)

func (d Decision) String() string {
	switch d {
	case DecisionPass:
		return "pass"
	case DecisionRotated:
		return "rotated"
	default:
		return "rejected"
	}
}

// Outcome is produced once per request.
//
// Issued is only set for DecisionRotated and has already been persisted when
// the outcome is returned. Reason is only set for DecisionRejected.
type Outcome struct {
	Decision Decision
	Subject  Subject
	Issued   *TokenPair
	Reason   error
}

// Pass builds a DecisionPass outcome.
func Pass(s Subject) Outcome {
	return Outcome{Decision: DecisionPass, Subject: s}
}

// Rotated builds a DecisionRotated outcome.
func Rotated(s Subject, pair TokenPair) Outcome {
	return Outcome{Decision: DecisionRotated, Subject: s, Issued: &pair}
}

// Rejected builds a DecisionRejected outcome.
func Rejected(reason error) Outcome {
	return Outcome{Decision: DecisionRejected, Reason: reason}
}

// Authorized reports whether the request may proceed.
func (o Outcome) Authorized() bool {
	return o.Decision == DecisionPass || o.Decision == DecisionRotated
}
