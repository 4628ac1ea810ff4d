package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gymcore/internal/bookings/service"
	apperrors "gymcore/pkg/errors"
	httputil "gymcore/pkg/http"
	"gymcore/pkg/logger"
	"gymcore/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	bookings service.BookingService
	checker  service.AvailabilityChecker
	search   service.TrainerSearch
	log      *logger.Logger
}

func NewBookingHandler(
	bookings service.BookingService,
	checker service.AvailabilityChecker,
	search service.TrainerSearch,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		checker:  checker,
		search:   search,
		log:      log,
	}
}

type AvailabilityResponse struct {
	TrainerID string `json:"trainer_id"`
	Available bool   `json:"available"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.bookings.Book(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.bookings.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", booking)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.bookings.Confirm(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}
	h.writeSuccess(w, "Confirm", booking)
}

// Cancel accepts an optional {"reason": "..."} body.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, "Cancel", apperrors.InvalidInput("Invalid request body"))
		return
	}

	ok, err := h.bookings.Cancel(r.Context(), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	h.writeSuccess(w, "Cancel", CancelResponse{Cancelled: ok})
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.bookings.Complete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}
	h.writeSuccess(w, "Complete", booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := h.bookings.SoftDelete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *BookingHandler) ListForTrainer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.bookings.ListForTrainer(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListForTrainer", err)
		return
	}
	h.writeSuccess(w, "ListForTrainer", bookings)
}

func (h *BookingHandler) ListForMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.bookings.ListForMember(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListForMember", err)
		return
	}
	h.writeSuccess(w, "ListForMember", bookings)
}

// TrainerAvailability answers 200 for both outcomes; a business rejection
// other than bad input is reported in the body with its code.
func (h *BookingHandler) TrainerAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, duration, err := httputil.ExtractSlot(r)
	if err != nil {
		h.writeError(w, "TrainerAvailability", err)
		return
	}

	trainerID := ps.ByName("id")
	available, err := h.checker.IsTrainerAvailable(r.Context(), trainerID, start, duration)
	resp := AvailabilityResponse{TrainerID: trainerID, Available: available}
	if err != nil {
		code := apperrors.CodeOf(err)
		if !apperrors.IsBusinessRejection(err) || code == apperrors.CodeValidation || code == apperrors.CodeInvalidInput {
			h.writeError(w, "TrainerAvailability", err)
			return
		}
		resp.Code = code
		resp.Message = apperrors.AsAppError(err).Message
	}
	h.writeSuccess(w, "TrainerAvailability", resp)
}

func (h *BookingHandler) AvailableTrainers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start, duration, err := httputil.ExtractSlot(r)
	if err != nil {
		h.writeError(w, "AvailableTrainers", err)
		return
	}

	trainers, err := h.search.FindAvailableTrainers(r.Context(), ps.ByName("id"), start, duration)
	if err != nil {
		h.writeError(w, "AvailableTrainers", err)
		return
	}
	h.writeSuccess(w, "AvailableTrainers", trainers)
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.GET("/api/v1/bookings/trainer/:id", h.ListForTrainer)
	router.GET("/api/v1/bookings/member/:id", h.ListForMember)
	router.GET("/api/v1/trainers/:id/availability", h.TrainerAvailability)
	router.GET("/api/v1/services/:id/available-trainers", h.AvailableTrainers)
}
