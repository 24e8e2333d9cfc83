package handlers

import (
	"net/http"

	"github.com/Dosada05/fantasy-marathon/middleware"
	"github.com/Dosada05/fantasy-marathon/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(standingsService services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: standingsService}
}

// GetStandings отдаёт таблицу игры с заголовками кэширования.
func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	gameID, err := readIDParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	res, err := h.standingsService.GetStandings(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := http.Header{}
	headers.Set("Cache-Control", res.CacheControl)
	headers.Set("X-Cache", string(res.CacheStatus))
	if err := writeJSON(w, http.StatusOK, res.Standings, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) GetAthleteScore(w http.ResponseWriter, r *http.Request) {
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

	bd, err := h.standingsService.GetAthleteScore(r.Context(), gameID, athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, bd, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) FinalizeGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := readIDParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, _ := middleware.GetActorFromContext(r.Context())

	archived, err := h.standingsService.FinalizeGame(r.Context(), gameID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	resp := jsonResponse{"game_id": gameID, "finalized": true}
	if archived != nil {
		resp["archive_key"] = archived.Key
		if archived.Location != "" {
			resp["archive_url"] = archived.Location
		}
	}
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
