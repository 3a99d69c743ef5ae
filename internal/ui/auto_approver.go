package ui

import (
	"context"

	"github.com/vvka-141/pgingest/pkg/ingest"
)

// AutoApprover approves every request without prompting. It is the default:
// replacing the destination table is the loader's normal contract.
type AutoApprover struct{}

// NewAutoApprover creates a new AutoApprover.
func NewAutoApprover() *AutoApprover {
	return &AutoApprover{}
}

// RequestApproval approves unless ctx is already done.
func (a *AutoApprover) RequestApproval(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

var _ ingest.Approver = (*AutoApprover)(nil)
