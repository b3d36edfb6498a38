package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/debtfolio/src/models"
)

type stubClient struct {
	mu      sync.Mutex
	fetches int
	refs    *models.ReferenceLists
	refsErr error

	historyRecords []models.HistoryRecord
	historyErr     error
}

func (s *stubClient) FetchReferenceLists(ctx context.Context) (*models.ReferenceLists, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.refsErr != nil {
		return nil, s.refsErr
	}
	return s.refs, nil
}

func (s *stubClient) CreatePlan(ctx context.Context, plan *models.Plan) error { return nil }
func (s *stubClient) UpdatePlan(ctx context.Context, plan *models.Plan) error { return nil }
func (s *stubClient) AppendHistory(ctx context.Context, record models.HistoryRecord) error {
	return nil
}

func (s *stubClient) FetchHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.historyRecords, nil
}

func (s *stubClient) FetchPlanDetail(ctx context.Context, folio string) (*models.Plan, error) {
	return nil, models.ErrNotFound
}

func (s *stubClient) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func TestListsCachesFetchedCatalog(t *testing.T) {
	client := &stubClient{refs: &models.ReferenceLists{
		Entities:     []string{"BBVA"},
		ProductTypes: []string{"Hipoteca"},
	}}
	svc := NewReferenceService(client, cache.New(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	first, err := svc.Lists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBVA"}, first.Entities)

	second, err := svc.Lists(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.fetchCount(), "second call must hit the cache")
}

func TestRefreshBypassesCache(t *testing.T) {
	client := &stubClient{refs: &models.ReferenceLists{Entities: []string{"BBVA"}}}
	svc := NewReferenceService(client, cache.New(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	_, err := svc.Lists(ctx)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, client.fetchCount())
}

func TestListsDegradesToDefaults(t *testing.T) {
	// No local snapshot available: a failed fetch falls all the way through to
	// the built-in catalog instead of blocking the quoting workflow.
	client := &stubClient{refsErr: &models.ReferenceDataError{Err: errors.New("store down")}}
	svc := NewReferenceService(client, cache.New(time.Minute, time.Minute), time.Minute)

	refs, err := svc.Lists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultReferenceLists(), refs)
}

func TestDefaultsAreCachedAfterDegrade(t *testing.T) {
	client := &stubClient{refsErr: errors.New("store down")}
	svc := NewReferenceService(client, cache.New(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	_, err := svc.Lists(ctx)
	require.NoError(t, err)
	_, err = svc.Lists(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, client.fetchCount(), "the fallback catalog is cached too")
}

func TestHistoryServicePropagatesRecords(t *testing.T) {
	records := []models.HistoryRecord{{Folio: "FOLIO-1", DebtorName: "Ana"}}
	svc := NewHistoryService(&stubClient{historyRecords: records})

	got, degraded, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, records, got)
}

func TestHistoryServiceErrorWithoutMirror(t *testing.T) {
	// With no local mirror to fall back on, the remote failure surfaces.
	fetchErr := &models.NetworkError{Op: "obtenerHistorial", Err: errors.New("timeout")}
	svc := NewHistoryService(&stubClient{historyErr: fetchErr})

	_, degraded, err := svc.History(context.Background())
	assert.False(t, degraded)
	var netErr *models.NetworkError
	require.ErrorAs(t, err, &netErr)
}
