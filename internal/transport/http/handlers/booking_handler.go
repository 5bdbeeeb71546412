package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vedran77/fixly/internal/service"
	"github.com/vedran77/fixly/internal/transport/http/middleware"
	"github.com/vedran77/fixly/pkg/validator"
)

type BookingHandler struct {
	bookingService *service.BookingService
}

func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input service.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.ValidateBooking(input.ProviderID, input.Service, input.ScheduledAt); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	booking, err := h.bookingService.Create(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotBookSelf):
			writeError(w, http.StatusBadRequest, "CANNOT_BOOK_SELF", "You cannot book yourself")
		case errors.Is(err, service.ErrNotAProvider):
			writeError(w, http.StatusBadRequest, "NOT_A_PROVIDER", "That user does not offer services")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Provider not found")
		default:
			internalError(w, r, "create booking", err)
		}
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"booking": booking})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	bookings, err := h.bookingService.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, "list bookings", err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"bookings": bookings})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	bookingID := chi.URLParam(r, "id")
	if !validator.IsObjectID(bookingID) {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var input service.UpdateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	booking, err := h.bookingService.UpdateStatus(r.Context(), userID, bookingID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, service.ErrNotBookingMember):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not part of this booking")
		case errors.Is(err, service.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "INVALID_TRANSITION", "The booking cannot be moved to that status")
		default:
			internalError(w, r, "update booking", err)
		}
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"booking": booking})
}

func (h *BookingHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	n, err := h.bookingService.PendingCount(r.Context(), userID)
	if err != nil {
		internalError(w, r, "pending bookings", err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"count": n})
}
