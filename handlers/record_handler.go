package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/fantasy-marathon/middleware"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/services"
	"github.com/go-chi/chi/v5"
)

var errMissingRecordID = errors.New("missing recordID")

type RecordHandler struct {
	recordService services.RecordService
}

func NewRecordHandler(recordService services.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

func (h *RecordHandler) ListByRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := readIDParam(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	recs := h.recordService.ListByRace(r.Context(), raceID)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"race_id": raceID, "records": recs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RecordHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.recordService.Confirm)
}

func (h *RecordHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.recordService.Reject)
}

func (h *RecordHandler) decide(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id, actor string) (*models.RaceRecord, error)) {
	id := chi.URLParam(r, "recordID")
	if id == "" {
		badRequestResponse(w, r, errMissingRecordID)
		return
	}
	actor, err := middleware.GetActorFromContext(r.Context())
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	rec, err := apply(r.Context(), id, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, rec, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
