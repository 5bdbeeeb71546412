package handlers

import (
	"net/http"

	"github.com/vedran77/fixly/internal/service"
)

type ProviderHandler struct {
	providerService *service.ProviderService
}

func NewProviderHandler(providerService *service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

func (h *ProviderHandler) Featured(w http.ResponseWriter, r *http.Request) {
	providers, err := h.providerService.Featured(r.Context())
	if err != nil {
		internalError(w, r, "featured providers", err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"providers": providers})
}
