// Package domain holds the quote wizard state machine: phases, per-phase
// validity rules and the session state they operate on.
package domain

// Phase is a wizard step. The sequence is strictly linear.
type Phase int

const (
	PhaseTripDetails Phase = iota + 1
	PhaseQuotes
	PhaseAddOns
	PhaseReview
	PhasePayment
	PhaseDocuments
)

var phaseNames = map[Phase]string{
	PhaseTripDetails: "trip_details",
	PhaseQuotes:      "quotes",
	PhaseAddOns:      "add_ons",
	PhaseReview:      "review",
	PhasePayment:     "payment",
	PhaseDocuments:   "documents",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether p is one of the six phases.
func (p Phase) Valid() bool {
	return p >= PhaseTripDetails && p <= PhaseDocuments
}

// Next returns the following phase; false at the terminal phase.
func (p Phase) Next() (Phase, bool) {
	if !p.Valid() || p == PhaseDocuments {
		return p, false
	}
	return p + 1, true
}

// Prev returns the previous phase. Retreat is not possible from the first
// or the terminal phase.
func (p Phase) Prev() (Phase, bool) {
	if !p.Valid() || p == PhaseTripDetails || p == PhaseDocuments {
		return p, false
	}
	return p - 1, true
}
