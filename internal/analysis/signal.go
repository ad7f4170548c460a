package analysis

// Outcome classifies a unit-day by its observed big-hit probability.
type Outcome int

const (
	OutcomeNeutral Outcome = iota
	OutcomeGood
	OutcomeBad
	OutcomeVeryBad
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGood:
		return "good"
	case OutcomeBad:
		return "bad"
	case OutcomeVeryBad:
		return "very_bad"
	default:
		return "neutral"
	}
}

// SignalKind states how much the outcome can be trusted.
type SignalKind int

const (
	// SignalAbsent means no usable data exists for the day.
	SignalAbsent SignalKind = iota
	// SignalEstimated means the sample was too small for a confirmed read.
	SignalEstimated
	// SignalConfirmed means the sample met the machine's minimum hit count.
	SignalConfirmed
)

func (k SignalKind) String() string {
	switch k {
	case SignalConfirmed:
		return "confirmed"
	case SignalEstimated:
		return "estimated"
	default:
		return "absent"
	}
}

// Signal is a day outcome together with its evidence level. An estimated
// signal carries the same outcome labels as a confirmed one but is never
// counted toward confirmed streaks.
type Signal struct {
	Kind    SignalKind
	Outcome Outcome
}

// IsConfirmed reports whether the signal outcome met the sample minimum.
func (s Signal) IsConfirmed() bool { return s.Kind == SignalConfirmed }

func (s Signal) String() string {
	if s.Kind == SignalAbsent {
		return "absent"
	}
	return s.Kind.String() + ":" + s.Outcome.String()
}

// Absent is the zero-information signal.
func Absent() Signal { return Signal{Kind: SignalAbsent, Outcome: OutcomeNeutral} }
