package handlers

import (
	"fmt"
	"net/http"

	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/services"
	"github.com/Dosada05/fantasy-marathon/utils"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// resultRequest принимает время как "H:MM:SS[.s]" либо в миллисекундах.
type resultRequest struct {
	Gender       models.Gender                `json:"gender"`
	FinishTime   *string                      `json:"finish_time"`
	FinishTimeMs *int64                       `json:"finish_time_ms"`
	Splits       map[models.SplitLabel]string `json:"splits"`
	IsFinal      bool                         `json:"is_final"`
	DNS          bool                         `json:"dns"`
	DNF          bool                         `json:"dnf"`
}

func (req *resultRequest) toResult(gameID, athleteID int) (*models.AthleteResult, error) {
	res := &models.AthleteResult{
		GameID:       gameID,
		AthleteID:    athleteID,
		Gender:       req.Gender,
		FinishTimeMs: req.FinishTimeMs,
		IsFinal:      req.IsFinal,
		DNS:          req.DNS,
		DNF:          req.DNF,
	}
	if req.FinishTime != nil {
		if req.FinishTimeMs != nil {
			return nil, fmt.Errorf("use either finish_time or finish_time_ms")
		}
		ms, err := utils.ParseRaceTime(*req.FinishTime)
		if err != nil {
			return nil, fmt.Errorf("finish_time: %w", err)
		}
		res.FinishTimeMs = models.Int64Ptr(ms)
	}
	for label, raw := range req.Splits {
		if !label.Valid() {
			return nil, fmt.Errorf("unknown split %q", label)
		}
		ms, err := utils.ParseRaceTime(raw)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", label, err)
		}
		res.SetSplit(label, models.Int64Ptr(ms))
	}
	return res, nil
}

func (h *ResultHandler) PutResult(w http.ResponseWriter, r *http.Request) {
	gameID, err := readIDParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	athleteID, err := readIDParam(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req resultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := req.toResult(gameID, athleteID)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	saved, err := h.resultService.RecordResult(r.Context(), res)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, saved, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
