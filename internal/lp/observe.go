package lp

import (
	"context"
	"time"
)

// ObserveFunc receives the outcome and wall time of every completed solve.
type ObserveFunc func(status Status, elapsed time.Duration)

type observedSession struct {
	next    Session
	observe ObserveFunc
}

// Observe wraps next so that fn sees every solve that returns a Solution.
// Solves that fail with an error (bad input, cancellation) are not observed.
func Observe(next Session, fn ObserveFunc) Session {
	if fn == nil {
		return next
	}
	return &observedSession{next: next, observe: fn}
}

func (o *observedSession) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	start := time.Now()
	sol, err := o.next.Solve(ctx, p)
	if err == nil && sol != nil {
		o.observe(sol.Status, time.Since(start))
	}
	return sol, err
}
