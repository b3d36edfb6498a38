package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"

	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/metrics"
	"github.com/username/debtfolio/src/models"
)

const maxResponseBytes = 1 << 20

// HTTPClient implements Client against the Apps-Script-style web endpoint.
// The endpoint answers writes with a redirect chain and session cookies, so
// the underlying http.Client carries a cookie jar, mirroring how the
// application's other outbound clients are built.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client

	// observe selects the fully-observable contract: write responses are
	// read and validated. With observe off, writes are fire-and-forget with
	// assumed success, an explicitly degraded mode kept only for parity with
	// transports that cannot expose response bodies. Reads always observe.
	observe bool
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the store at endpoint. A zero timeout
// falls back to 20s.
func NewHTTPClient(endpoint string, timeout time.Duration, observe bool) *HTTPClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil && logger.L != nil {
		logger.L.Error("Failed to create cookie jar for remote store client", "error", err)
	}
	return &HTTPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		observe: observe,
	}
}

// FetchReferenceLists issues the parameterless GET. Every failure mode,
// transport included, is wrapped in ReferenceDataError so callers can degrade
// to a fallback catalog with a single errors.As.
func (c *HTTPClient) FetchReferenceLists(ctx context.Context) (*models.ReferenceLists, error) {
	const action = "obtenerListas"
	timer := prometheus.NewTimer(metrics.RemoteStoreDuration.WithLabelValues(action))
	defer timer.ObserveDuration()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &models.ReferenceDataError{Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(action, "network_error").Inc()
		return nil, &models.ReferenceDataError{Err: &models.NetworkError{Op: action, Err: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RemoteStoreCalls.WithLabelValues(action, "network_error").Inc()
		return nil, &models.ReferenceDataError{Err: &models.NetworkError{
			Op:  action,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}}
	}

	var payload referenceListsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(action, "malformed").Inc()
		return nil, &models.ReferenceDataError{Err: fmt.Errorf("malformed reference list payload: %w", err)}
	}
	if payload.Error != "" {
		metrics.RemoteStoreCalls.WithLabelValues(action, "server_error").Inc()
		return nil, &models.ReferenceDataError{Err: fmt.Errorf("server error: %s", payload.Error)}
	}

	metrics.RemoteStoreCalls.WithLabelValues(action, "ok").Inc()
	return &models.ReferenceLists{
		Entities:     payload.Entities,
		ProductTypes: payload.ProductTypes,
	}, nil
}

// CreatePlan persists a new plan under its folio.
func (c *HTTPClient) CreatePlan(ctx context.Context, plan *models.Plan) error {
	form, err := planForm(plan)
	if err != nil {
		return err
	}
	return c.write(ctx, actionSaveContract, form)
}

// UpdatePlan overwrites the stored plan; models.ErrNotFound when the folio is
// unknown to the store.
func (c *HTTPClient) UpdatePlan(ctx context.Context, plan *models.Plan) error {
	form, err := planForm(plan)
	if err != nil {
		return err
	}
	return c.write(ctx, actionUpdateContract, form)
}

// AppendHistory appends one summary row to the history log.
func (c *HTTPClient) AppendHistory(ctx context.Context, record models.HistoryRecord) error {
	return c.write(ctx, actionSaveHistory, historyForm(record))
}

// FetchHistory lists the history log in store order.
func (c *HTTPClient) FetchHistory(ctx context.Context) ([]models.HistoryRecord, error) {
	body, err := c.post(ctx, actionGetHistory, url.Values{})
	if err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetHistory, "network_error").Inc()
		return nil, err
	}

	var payload historyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetHistory, "malformed").Inc()
		return nil, &models.NetworkError{Op: actionGetHistory, Err: fmt.Errorf("malformed history payload: %w", err)}
	}
	if payload.Error != "" {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetHistory, "server_error").Inc()
		return nil, serverError(actionGetHistory, payload.Error)
	}

	records := make([]models.HistoryRecord, 0, len(payload.History))
	for _, row := range payload.History {
		records = append(records, row.toRecord())
	}
	metrics.RemoteStoreCalls.WithLabelValues(actionGetHistory, "ok").Inc()
	return records, nil
}

// FetchPlanDetail retrieves a plan and its lines by folio.
func (c *HTTPClient) FetchPlanDetail(ctx context.Context, folio string) (*models.Plan, error) {
	form := url.Values{}
	form.Set("folio", folio)
	body, err := c.post(ctx, actionGetDetail, form)
	if err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetDetail, "network_error").Inc()
		return nil, err
	}

	var payload detailResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetDetail, "malformed").Inc()
		return nil, &models.NetworkError{Op: actionGetDetail, Err: fmt.Errorf("malformed detail payload: %w", err)}
	}
	if payload.Error != "" {
		err := serverError(actionGetDetail, payload.Error)
		metrics.RemoteStoreCalls.WithLabelValues(actionGetDetail, outcomeLabel(err)).Inc()
		return nil, err
	}
	if payload.Contract == nil {
		metrics.RemoteStoreCalls.WithLabelValues(actionGetDetail, "not_found").Inc()
		return nil, models.ErrNotFound
	}

	metrics.RemoteStoreCalls.WithLabelValues(actionGetDetail, "ok").Inc()
	return payload.toPlan(), nil
}

// write runs a mutating action. Under the observable contract the response
// body is read and normalized into the taxonomy; in degraded mode success is
// assumed as soon as the transport accepts the request.
func (c *HTTPClient) write(ctx context.Context, action string, form url.Values) error {
	body, err := c.post(ctx, action, form)
	if err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(action, "network_error").Inc()
		return err
	}
	if !c.observe {
		metrics.RemoteStoreCalls.WithLabelValues(action, "assumed_ok").Inc()
		if logger.L != nil {
			logger.L.Warn("Remote store write in fire-and-forget mode, success assumed", "action", action)
		}
		return nil
	}
	if err := normalizeAck(action, body); err != nil {
		metrics.RemoteStoreCalls.WithLabelValues(action, outcomeLabel(err)).Inc()
		return err
	}
	metrics.RemoteStoreCalls.WithLabelValues(action, "ok").Inc()
	return nil
}

// post sends the form with its accion discriminator and returns the response
// body. Transport failures and non-2xx statuses come back as NetworkError.
func (c *HTTPClient) post(ctx context.Context, action string, form url.Values) ([]byte, error) {
	timer := prometheus.NewTimer(metrics.RemoteStoreDuration.WithLabelValues(action))
	defer timer.ObserveDuration()

	form.Set("accion", action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &models.NetworkError{Op: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.NetworkError{Op: action, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &models.NetworkError{Op: action, Err: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case models.IsValidationError(err):
		return "validation_error"
	default:
		return "network_error"
	}
}
