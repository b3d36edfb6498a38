package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/quote"
)

type stubStore struct {
	mu             sync.Mutex
	creates        int
	updates        int
	historyAppends int

	createErr  error
	updateErr  error
	historyErr error

	detailPlan *models.Plan
	detailErr  error

	// When non-nil, CreatePlan blocks until the channel is closed, to simulate
	// a slow remote write.
	blockCreate chan struct{}
}

func (s *stubStore) FetchReferenceLists(ctx context.Context) (*models.ReferenceLists, error) {
	return nil, errors.New("not used")
}

func (s *stubStore) CreatePlan(ctx context.Context, plan *models.Plan) error {
	if s.blockCreate != nil {
		<-s.blockCreate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	return s.createErr
}

func (s *stubStore) UpdatePlan(ctx context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	return s.updateErr
}

func (s *stubStore) AppendHistory(ctx context.Context, record models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyAppends++
	return s.historyErr
}

func (s *stubStore) FetchHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	return nil, nil
}

func (s *stubStore) FetchPlanDetail(ctx context.Context, folio string) (*models.Plan, error) {
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return s.detailPlan, nil
}

func (s *stubStore) counts() (creates, updates, history int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates, s.historyAppends
}

type stubRefs struct {
	lists *models.ReferenceLists
	err   error
}

func (s *stubRefs) Lists(ctx context.Context) (*models.ReferenceLists, error) {
	return s.lists, s.err
}

func (s *stubRefs) Refresh(ctx context.Context) (*models.ReferenceLists, error) {
	return s.lists, s.err
}

func testEngine() *quote.Engine {
	return &quote.Engine{
		Now:      func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) },
		NewFolio: func() string { return "FOLIO-TEST-001" },
	}
}

func testSession(store *stubStore) *Session {
	refs := &stubRefs{lists: &models.ReferenceLists{
		Entities:     []string{"BBVA", "Banco Santander"},
		ProductTypes: []string{"Hipoteca", "Tarjeta de Crédito"},
	}}
	return NewSession("test-session", testEngine(), store, refs, 12, 120)
}

func addValidLine(s *Session) {
	s.UpdateLine(0, models.DebtLine{
		ContractNumber:  "C-1",
		Entity:          "BBVA",
		ProductType:     "Hipoteca",
		OriginalAmount:  5000,
		DiscountPercent: 30,
	})
}

func TestSessionStartsEditingWithOneEmptyLine(t *testing.T) {
	s := testSession(&stubStore{})
	assert.Equal(t, StateEditing, s.State())
	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, models.DebtLine{}, s.Lines()[0])
	assert.Empty(t, s.EditFolio())
	assert.Nil(t, s.Plan())
}

func TestCalculate(t *testing.T) {
	s := testSession(&stubStore{})
	addValidLine(s)

	plan, err := s.Calculate(context.Background(), "Ana García", 10)
	require.NoError(t, err)
	assert.Equal(t, StateCalculated, s.State())
	assert.Equal(t, 5000.00, plan.TotalOriginal)
	assert.Equal(t, 3500.00, plan.TotalDiscounted)
	assert.Equal(t, 350.00, plan.InstallmentAmount)
	assert.Equal(t, "FOLIO-TEST-001", plan.Folio)
}

func TestCalculateZeroInstallmentsUsesDefault(t *testing.T) {
	s := testSession(&stubStore{})
	addValidLine(s)

	plan, err := s.Calculate(context.Background(), "Ana", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, plan.InstallmentCount)
}

func TestCalculateRejectsOutOfRangeInstallments(t *testing.T) {
	s := testSession(&stubStore{})
	addValidLine(s)

	for _, count := range []int{-1, 121} {
		_, err := s.Calculate(context.Background(), "Ana", count)
		assert.True(t, models.IsValidationError(err), "count %d", count)
		assert.Equal(t, StateEditing, s.State())
	}
}

func TestCalculateNoValidLinesStaysEditing(t *testing.T) {
	s := testSession(&stubStore{})

	_, err := s.Calculate(context.Background(), "Ana", 10)
	assert.ErrorIs(t, err, models.ErrNoValidLines)
	assert.Equal(t, StateEditing, s.State())
	assert.Nil(t, s.Plan())
}

func TestLineEditsDropBackToEditing(t *testing.T) {
	s := testSession(&stubStore{})
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)
	require.Equal(t, StateCalculated, s.State())

	s.AddLine(models.DebtLine{ContractNumber: "C-2"})
	assert.Equal(t, StateEditing, s.State())
	assert.Len(t, s.Lines(), 2)

	require.NoError(t, s.RemoveLine(1))
	assert.Len(t, s.Lines(), 1)

	assert.Error(t, s.RemoveLine(5))
}

func TestSetInstallments(t *testing.T) {
	s := testSession(&stubStore{})
	addValidLine(s)

	_, err := s.SetInstallments(10)
	assert.True(t, models.IsValidationError(err), "adjusting before calculating must fail")

	_, err = s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)

	plan, err := s.SetInstallments(7)
	require.NoError(t, err)
	assert.Equal(t, 7, plan.InstallmentCount)
	assert.Equal(t, 500.00, plan.InstallmentAmount)

	_, err = s.SetInstallments(121)
	assert.True(t, models.IsValidationError(err))
}

func TestCommitCreatesAndAppendsHistory(t *testing.T) {
	store := &stubStore{}
	s := testSession(store)
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)

	plan, err := s.Commit(context.Background())
	require.NoError(t, err)

	creates, updates, history := store.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, updates)
	assert.Equal(t, 1, history)
	assert.Equal(t, StatePersisted, s.State())
	assert.Equal(t, plan.Folio, s.EditFolio())
}

func TestCommitWithoutCalculatedPlan(t *testing.T) {
	store := &stubStore{}
	s := testSession(store)

	_, err := s.Commit(context.Background())
	assert.True(t, models.IsValidationError(err))
	creates, _, history := store.counts()
	assert.Zero(t, creates)
	assert.Zero(t, history)
}

func TestConcurrentCommitSavesExactlyOnce(t *testing.T) {
	store := &stubStore{blockCreate: make(chan struct{})}
	s := testSession(store)
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Commit(context.Background())
		done <- err
	}()

	// Wait for the first commit to reach the store.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inFlight
	}, time.Second, time.Millisecond)

	_, err = s.Commit(context.Background())
	assert.ErrorIs(t, err, models.ErrOperationInFlight)

	close(store.blockCreate)
	require.NoError(t, <-done)

	creates, _, history := store.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, history)
	assert.Equal(t, StatePersisted, s.State())
}

func TestCommitFailureStaysCalculated(t *testing.T) {
	store := &stubStore{createErr: &models.NetworkError{Op: "guardarContrato", Err: errors.New("timeout")}}
	s := testSession(store)
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)

	_, err = s.Commit(context.Background())
	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, StateCalculated, s.State())
	assert.Empty(t, s.EditFolio())

	// The session recovers: the same commit can be retried.
	store.createErr = nil
	_, err = s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePersisted, s.State())
}

func TestCommitHistoryFailureNotPersisted(t *testing.T) {
	store := &stubStore{historyErr: errors.New("history sheet full")}
	s := testSession(store)
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)

	_, err = s.Commit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateCalculated, s.State())
}

func TestReanalyzeResets(t *testing.T) {
	store := &stubStore{}
	s := testSession(store)
	addValidLine(s)
	_, err := s.Calculate(context.Background(), "Ana", 10)
	require.NoError(t, err)
	_, err = s.Commit(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, s.EditFolio())

	require.NoError(t, s.Reanalyze())
	assert.Equal(t, StateEditing, s.State())
	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, models.DebtLine{}, s.Lines()[0])
	assert.Empty(t, s.EditFolio())
	assert.Nil(t, s.Plan())
}

func TestLoadFromHistoryBindsFolioAndCommitUpdates(t *testing.T) {
	stored := &models.Plan{
		Folio:             "FOLIO-OLD-042",
		Date:              "01/02/2025",
		DebtorName:        "Luis",
		LineCount:         1,
		TotalOriginal:     5000,
		TotalDiscounted:   3500,
		Savings:           1500,
		TotalToPay:        3500,
		InstallmentCount:  10,
		InstallmentAmount: 350,
		Lines: []models.DebtLine{
			{ContractNumber: "C-1", Entity: "BBVA", ProductType: "Hipoteca", OriginalAmount: 5000, DiscountPercent: 30},
		},
	}
	store := &stubStore{detailPlan: stored}
	s := testSession(store)

	plan, err := s.LoadFromHistory(context.Background(), "FOLIO-OLD-042")
	require.NoError(t, err)
	assert.Equal(t, StateEditing, s.State())
	assert.Equal(t, "FOLIO-OLD-042", s.EditFolio())
	assert.Equal(t, "FOLIO-OLD-042", plan.Folio)
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, 3500.00, s.Lines()[0].DiscountedAmount, "loaded lines are recomputed")

	_, err = s.Calculate(context.Background(), "Luis", 10)
	require.NoError(t, err)
	_, err = s.Commit(context.Background())
	require.NoError(t, err)

	creates, updates, history := store.counts()
	assert.Equal(t, 0, creates)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, history)
}

func TestLoadFromHistoryFailureLeavesSessionUnchanged(t *testing.T) {
	store := &stubStore{detailErr: models.ErrNotFound}
	s := testSession(store)
	addValidLine(s)
	before := s.Lines()

	_, err := s.LoadFromHistory(context.Background(), "FOLIO-NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, StateEditing, s.State())
	assert.Equal(t, before, s.Lines())
	assert.Empty(t, s.EditFolio())
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(testEngine(), &stubStore{}, &stubRefs{}, time.Hour, 12, 120)

	session := m.Create()
	got, ok := m.Get(session.ID)
	require.True(t, ok)
	assert.Same(t, session, got)

	_, ok = m.Get("unknown-id")
	assert.False(t, ok)

	m.Remove(session.ID)
	_, ok = m.Get(session.ID)
	assert.False(t, ok)
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m := NewManager(testEngine(), &stubStore{}, &stubRefs{}, time.Hour, 12, 120)
	stale := m.Create()
	fresh := m.Create()

	stale.mu.Lock()
	stale.lastUsed = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, m.Sweep())
	_, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}
