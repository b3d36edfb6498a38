package handlers

import (
	"net/http"

	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/remotestore"
	"github.com/username/debtfolio/src/services"
	"github.com/username/debtfolio/src/utils"
)

// HistoryHandler serves the history listing and stored plan detail.
type HistoryHandler struct {
	historyService services.HistoryService
	store          remotestore.Client
}

func NewHistoryHandler(historyService services.HistoryService, store remotestore.Client) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		store:          store,
	}
}

type historyListResponse struct {
	History []models.HistoryRecord `json:"history"`
	// Degraded is true when the rows came from the local mirror because the
	// remote store was unreachable.
	Degraded bool `json:"degraded,omitempty"`
}

func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	records, degraded, err := h.historyService.History(r.Context())
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	utils.WriteJSON(w, historyListResponse{History: records, Degraded: degraded}, http.StatusOK)
}

func (h *HistoryHandler) HandleGetPlanDetail(w http.ResponseWriter, r *http.Request) {
	folio := r.PathValue("folio")
	if folio == "" {
		utils.SendJSONError(w, "folio is required", http.StatusBadRequest)
		return
	}
	plan, err := h.store.FetchPlanDetail(r.Context(), folio)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, plan, http.StatusOK)
}
