package handlers

import (
	"net/http"

	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/services"
	"github.com/go-chi/chi/v5"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type createGameRequest struct {
	RaceID         int    `json:"race_id"`
	Name           string `json:"name"`
	RuleSetVersion int    `json:"rule_set_version"`
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	game, err := h.gameService.CreateGame(r.Context(), &models.Game{
		RaceID:         req.RaceID,
		Name:           req.Name,
		RuleSetVersion: req.RuleSetVersion,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, game, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type rosterRequest struct {
	AthleteIDs []int `json:"athlete_ids"`
}

func (h *GameHandler) SetRoster(w http.ResponseWriter, r *http.Request) {
	gameID, err := readIDParam(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	code := chi.URLParam(r, "playerCode")

	var req rosterRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.gameService.SetRoster(r.Context(), gameID, code, req.AthleteIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"game_id": gameID, "player_code": code, "athlete_ids": req.AthleteIDs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
