package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure BuildHistory implements the interface.
var _ driven.BuildHistory = (*BuildHistory)(nil)

// BuildHistory is an in-memory implementation of driven.BuildHistory.
type BuildHistory struct {
	mu      sync.RWMutex
	reports []domain.BuildReport
}

// NewBuildHistory creates an empty history.
func NewBuildHistory() *BuildHistory {
	return &BuildHistory{}
}

// Record appends a report.
func (h *BuildHistory) Record(_ context.Context, report *domain.BuildReport) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, *report)
	return nil
}

// List returns up to limit reports, newest first. A non-positive limit returns all.
func (h *BuildHistory) List(_ context.Context, limit int) ([]domain.BuildReport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.reports)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.BuildReport, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.reports[i])
	}
	return out, nil
}
