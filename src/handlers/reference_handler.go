package handlers

import (
	"net/http"

	"github.com/username/debtfolio/src/services"
	"github.com/username/debtfolio/src/utils"
)

// ReferenceHandler serves the entity and product-type catalogs.
type ReferenceHandler struct {
	referenceService services.ReferenceService
}

func NewReferenceHandler(referenceService services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

func (h *ReferenceHandler) HandleGetReferenceLists(w http.ResponseWriter, r *http.Request) {
	refs, err := h.referenceService.Lists(r.Context())
	if err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, refs, http.StatusOK)
}

func (h *ReferenceHandler) HandleRefreshReferenceLists(w http.ResponseWriter, r *http.Request) {
	refs, err := h.referenceService.Refresh(r.Context())
	if err != nil {
		sendDomainError(w, err)
		return
	}
	utils.WriteJSON(w, refs, http.StatusOK)
}
