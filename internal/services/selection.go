package services

import (
	"fmt"
	"sync"

	"superstore-dashboard/internal/models"
)

// SelectionState is the single piece of mutable interaction state: which KPI
// is active. It drives the ranking sort key and chart labeling; the
// underlying aggregates are independent of it.
type SelectionState struct {
	mu     sync.RWMutex
	active models.KPI
}

func NewSelectionState() *SelectionState {
	return &SelectionState{active: models.KPISales}
}

func (s *SelectionState) Get() models.KPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Set switches the active KPI. Values outside the four-member enum are
// rejected and leave the state unchanged.
func (s *SelectionState) Set(k models.KPI) error {
	if !k.Valid() {
		return fmt.Errorf("invalid KPI selection %q", k)
	}
	s.mu.Lock()
	s.active = k
	s.mu.Unlock()
	return nil
}
