// Package workflow drives a quoting session through its lifecycle:
// collect debt lines, calculate a plan, persist it, reload it from history.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/username/debtfolio/src/database"
	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/quote"
	"github.com/username/debtfolio/src/remotestore"
	"github.com/username/debtfolio/src/services"
	"github.com/username/debtfolio/src/utils"
)

// State of a quoting session.
type State string

const (
	StateEmpty      State = "empty"
	StateEditing    State = "editing"
	StateCalculated State = "calculated"
	StatePersisted  State = "persisted"
)

// Session owns one user's working set of debt lines and walks it through
// Empty -> Editing -> Calculated -> Persisted. All mutable state lives on the
// session itself; there are no package-level caches.
//
// Remote calls are made with the session unlocked, protected by an in-flight
// flag: a calculate or commit triggered while a previous one is still running
// is rejected with ErrOperationInFlight instead of reaching the store twice.
type Session struct {
	ID string

	mu        sync.Mutex
	state     State
	lines     []models.DebtLine
	editFolio string // bound folio when re-editing a stored plan
	plan      *models.Plan
	inFlight  bool
	lastUsed  time.Time

	engine *quote.Engine
	store  remotestore.Client
	refs   services.ReferenceService

	defaultInstallments int
	maxInstallments     int
}

// NewSession starts a session in editing state with a single empty line, the
// same starting point the quote table presents.
func NewSession(id string, engine *quote.Engine, store remotestore.Client, refs services.ReferenceService, defaultInstallments, maxInstallments int) *Session {
	if defaultInstallments < 1 {
		defaultInstallments = 12
	}
	if maxInstallments < defaultInstallments {
		maxInstallments = 120
	}
	return &Session{
		ID:                  id,
		state:               StateEditing,
		lines:               []models.DebtLine{{}},
		lastUsed:            time.Now(),
		engine:              engine,
		store:               store,
		refs:                refs,
		defaultInstallments: defaultInstallments,
		maxInstallments:     maxInstallments,
	}
}

func (s *Session) touchLocked() { s.lastUsed = time.Now() }

// Touch refreshes the session's idle timer.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

// LastUsed reports when the session was last touched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EditFolio returns the folio bound by a load-from-history, or "" when the
// next commit creates a fresh plan.
func (s *Session) EditFolio() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editFolio
}

// Lines returns a copy of the working set.
func (s *Session) Lines() []models.DebtLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DebtLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Plan returns the most recently calculated plan, or nil.
func (s *Session) Plan() *models.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return nil
	}
	planCopy := *s.plan
	planCopy.Lines = append([]models.DebtLine(nil), s.plan.Lines...)
	return &planCopy
}

// AddLine appends a line to the working set, recomputing its discounted
// amount and clamping its percentage. Any prior calculation result stays
// visible but the session drops back to editing.
func (s *Session) AddLine(line models.DebtLine) []models.ValidationWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	warnings := line.Recompute()
	s.lines = append(s.lines, line)
	s.state = StateEditing
	s.touchLocked()
	return warnings
}

// UpdateLine replaces the line at index, recomputing derived values.
func (s *Session) UpdateLine(index int, line models.DebtLine) ([]models.ValidationWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.lines) {
		return nil, models.NewValidationError("line", fmt.Sprintf("no line at index %d", index))
	}
	warnings := line.Recompute()
	s.lines[index] = line
	s.state = StateEditing
	s.touchLocked()
	return warnings, nil
}

// RemoveLine deletes the line at index from the working set.
func (s *Session) RemoveLine(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.lines) {
		return models.NewValidationError("line", fmt.Sprintf("no line at index %d", index))
	}
	s.lines = append(s.lines[:index], s.lines[index+1:]...)
	s.state = StateEditing
	s.touchLocked()
	return nil
}

// Calculate aggregates the working set into a plan. installments == 0 means
// "use the default"; values outside [1, max] are rejected. When no complete
// line exists the session stays in editing and the error surfaces.
func (s *Session) Calculate(ctx context.Context, debtorName string, installments int) (*models.Plan, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, models.ErrOperationInFlight
	}
	s.inFlight = true
	lines := make([]models.DebtLine, len(s.lines))
	copy(lines, s.lines)
	folio := s.editFolio
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if installments == 0 {
		installments = s.defaultInstallments
	}
	if installments < 1 || installments > s.maxInstallments {
		return nil, models.NewValidationError("installments",
			fmt.Sprintf("installment count must be between 1 and %d", s.maxInstallments))
	}

	refs, err := s.refs.Lists(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := s.engine.Aggregate(lines, refs, quote.AggregateOptions{
		DebtorName:       debtorName,
		InstallmentCount: installments,
		Folio:            folio,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.plan = plan
	s.state = StateCalculated
	s.touchLocked()
	s.mu.Unlock()
	return plan, nil
}

// SetInstallments recomputes the monthly installment of the calculated plan
// without re-aggregating, the way the quote screen lets the installment count
// be adjusted after calculating. Only valid in the calculated state.
func (s *Session) SetInstallments(installments int) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCalculated || s.plan == nil {
		return nil, models.NewValidationError("state", "no calculated plan to adjust")
	}
	if installments < 1 || installments > s.maxInstallments {
		return nil, models.NewValidationError("installments",
			fmt.Sprintf("installment count must be between 1 and %d", s.maxInstallments))
	}
	s.plan.InstallmentCount = installments
	s.plan.InstallmentAmount = utils.InstallmentAmount(s.plan.TotalDiscounted, installments)
	s.touchLocked()
	planCopy := *s.plan
	planCopy.Lines = append([]models.DebtLine(nil), s.plan.Lines...)
	return &planCopy, nil
}

// Commit persists the calculated plan: create or update depending on whether
// an edit folio is bound, then append a history row. On any failure the
// session stays in the calculated state and nothing is marked persisted.
// A commit triggered while another is still running returns
// ErrOperationInFlight, so a double click results in exactly one save.
func (s *Session) Commit(ctx context.Context) (*models.Plan, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, models.ErrOperationInFlight
	}
	if s.state != StateCalculated || s.plan == nil {
		s.mu.Unlock()
		return nil, models.NewValidationError("state", "no calculated plan to commit")
	}
	s.inFlight = true
	planCopy := *s.plan
	planCopy.Lines = append([]models.DebtLine(nil), s.plan.Lines...)
	isUpdate := s.editFolio != ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	action := "create"
	var err error
	if isUpdate {
		action = "update"
		err = s.store.UpdatePlan(ctx, &planCopy)
	} else {
		err = s.store.CreatePlan(ctx, &planCopy)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendHistory(ctx, planCopy.Summary()); err != nil {
		return nil, err
	}

	if database.DB != nil {
		if auditErr := database.RecordCommit(action, &planCopy); auditErr != nil && logger.L != nil {
			logger.L.Warn("Failed to record commit audit row", "folio", planCopy.Folio, "error", auditErr)
		}
	}

	s.mu.Lock()
	s.state = StatePersisted
	s.editFolio = planCopy.Folio
	s.touchLocked()
	s.mu.Unlock()

	if logger.L != nil {
		logger.L.Info("Plan persisted", "folio", planCopy.Folio, "action", action,
			"lines", planCopy.LineCount, "totalDiscounted", planCopy.TotalDiscounted)
	}
	return &planCopy, nil
}

// Reanalyze resets the session for a fresh quote: one empty line, no bound
// folio, editing state. Valid from any state, but not while a remote
// operation is running.
func (s *Session) Reanalyze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return models.ErrOperationInFlight
	}
	s.lines = []models.DebtLine{{}}
	s.editFolio = ""
	s.plan = nil
	s.state = StateEditing
	s.touchLocked()
	return nil
}

// LoadFromHistory fetches a stored plan by folio and re-enters editing with
// the working set rebuilt from its lines and the folio bound, so the next
// commit updates instead of creating. On failure the session is unchanged.
func (s *Session) LoadFromHistory(ctx context.Context, folio string) (*models.Plan, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, models.ErrOperationInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	plan, err := s.store.FetchPlanDetail(ctx, folio)
	if err != nil {
		return nil, err
	}

	lines := make([]models.DebtLine, len(plan.Lines))
	copy(lines, plan.Lines)
	for i := range lines {
		lines[i].Recompute()
	}

	s.mu.Lock()
	s.lines = lines
	s.editFolio = plan.Folio
	s.plan = plan
	s.state = StateEditing
	s.touchLocked()
	s.mu.Unlock()
	return plan, nil
}
