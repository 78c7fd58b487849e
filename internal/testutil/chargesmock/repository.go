package chargesmock

import (
	"context"

	"loanflow-backend/internal/domain/charges"
)

// Repo is a function-backed mock that satisfies charges.Repository.
// A nil GetCurrentFn returns Fixed, or charges.Default when Fixed is nil.
type Repo struct {
	GetCurrentFn func(ctx context.Context) (charges.Config, error)
	Fixed        *charges.Config
}

func (m *Repo) GetCurrent(ctx context.Context) (charges.Config, error) {
	if m.GetCurrentFn != nil {
		return m.GetCurrentFn(ctx)
	}
	if m.Fixed != nil {
		return *m.Fixed, nil
	}
	return charges.Default(), nil
}
