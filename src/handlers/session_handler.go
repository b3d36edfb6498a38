package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/utils"
	"github.com/username/debtfolio/src/workflow"
)

// SessionHandler exposes the quoting workflow over HTTP. Each browser session
// maps onto one workflow session identified by the id path segment.
type SessionHandler struct {
	manager *workflow.Manager
}

func NewSessionHandler(manager *workflow.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

type sessionResponse struct {
	ID        string                     `json:"id"`
	State     workflow.State             `json:"state"`
	EditFolio string                     `json:"editFolio,omitempty"`
	Lines     []models.DebtLine          `json:"lines"`
	Plan      *models.Plan               `json:"plan,omitempty"`
	Warnings  []models.ValidationWarning `json:"warnings,omitempty"`
}

func sessionView(s *workflow.Session, warnings []models.ValidationWarning) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		State:     s.State(),
		EditFolio: s.EditFolio(),
		Lines:     s.Lines(),
		Plan:      s.Plan(),
		Warnings:  warnings,
	}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	session, ok := h.manager.Get(r.PathValue("id"))
	if !ok {
		utils.SendJSONError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		utils.SendJSONError(w, "invalid line index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

// sendDomainError maps the domain error taxonomy onto HTTP status codes.
func sendDomainError(w http.ResponseWriter, err error) {
	var netErr *models.NetworkError
	var refErr *models.ReferenceDataError
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrOperationInFlight):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case models.IsValidationError(err):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &netErr):
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
	case errors.As(err, &refErr):
		utils.SendJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.manager.Create()
	utils.WriteJSON(w, sessionView(session, nil), http.StatusCreated)
}

func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	h.manager.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var line models.DebtLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		utils.SendJSONError(w, "invalid debt line payload", http.StatusBadRequest)
		return
	}
	warnings := session.AddLine(line)
	utils.WriteJSON(w, sessionView(session, warnings), http.StatusOK)
}

func (h *SessionHandler) HandleUpdateLine(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var line models.DebtLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		utils.SendJSONError(w, "invalid debt line payload", http.StatusBadRequest)
		return
	}
	warnings, err := session.UpdateLine(index, line)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, warnings), http.StatusOK)
}

func (h *SessionHandler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	if err := session.RemoveLine(index); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

type calculateRequest struct {
	DebtorName       string `json:"debtorName"`
	InstallmentCount int    `json:"installmentCount"`
}

func (h *SessionHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid calculate payload", http.StatusBadRequest)
		return
	}
	if _, err := session.Calculate(r.Context(), req.DebtorName, req.InstallmentCount); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

type installmentsRequest struct {
	InstallmentCount int `json:"installmentCount"`
}

func (h *SessionHandler) HandleSetInstallments(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req installmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "invalid installments payload", http.StatusBadRequest)
		return
	}
	if _, err := session.SetInstallments(req.InstallmentCount); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

func (h *SessionHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := session.Commit(r.Context()); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

func (h *SessionHandler) HandleReanalyze(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Reanalyze(); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}

func (h *SessionHandler) HandleLoadFromHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	folio := r.PathValue("folio")
	if folio == "" {
		utils.SendJSONError(w, "folio is required", http.StatusBadRequest)
		return
	}
	if _, err := session.LoadFromHistory(r.Context(), folio); err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, sessionView(session, nil), http.StatusOK)
}
