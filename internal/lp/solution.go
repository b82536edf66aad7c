package lp

// Status is the solver-reported outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "failed"
	}
}

// Feasible reports whether the solution carries usable values.
func (s Status) Feasible() bool { return s == StatusOptimal }

// Solution is the response to one Problem.
type Solution struct {
	Status Status
	// Objective is C·X in the problem's own sense.
	Objective float64
	// X holds one flux per variable. Nil unless Status is optimal.
	X []float64
	// Duals holds d(Objective)/d(B_i) for every equality row when requested.
	Duals []float64
	// Detail carries the solver message for non-optimal outcomes.
	Detail string
}

// Value returns X[j], or 0 when out of range or not solved.
func (s *Solution) Value(j int) float64 {
	if j < 0 || j >= len(s.X) {
		return 0
	}
	return s.X[j]
}

// Dual returns Duals[i], or 0 when out of range or not computed.
func (s *Solution) Dual(i int) float64 {
	if i < 0 || i >= len(s.Duals) {
		return 0
	}
	return s.Duals[i]
}
