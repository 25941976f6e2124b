package toolchain

import (
	"context"
	"sync"
)

// PlanRunner records invocations without executing anything. Every
// invocation succeeds with empty output. It backs dry-run mode.
type PlanRunner struct {
	mu   sync.Mutex
	invs []Invocation
}

// Run records inv.
func (p *PlanRunner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	logInvocation(ctx, inv)

	p.mu.Lock()
	defer p.mu.Unlock()
	inv.Args = append([]string(nil), inv.Args...)
	p.invs = append(p.invs, inv)
	return &Output{}, nil
}

// Invocations returns the recorded invocations in order.
func (p *PlanRunner) Invocations() []Invocation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Invocation(nil), p.invs...)
}

var _ Runner = (*PlanRunner)(nil)
