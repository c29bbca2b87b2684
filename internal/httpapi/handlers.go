package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurehunt/internal/middleware"
	"github.com/mmynk/treasurehunt/internal/models"
	"github.com/mmynk/treasurehunt/internal/treasure"
)

const maxBodyBytes = 1 << 20

type findResponse struct {
	Count     int                     `json:"count"`
	Treasures []models.NearbyTreasure `json:"treasures"`
}

type collectResponse struct {
	Success          bool        `json:"success"`
	TreasureID       int64       `json:"treasureId"`
	RewardAmt        json.Number `json:"rewardAmt"`
	UserCurrentTotal json.Number `json:"userCurrentTotal"`
	Message          string      `json:"message"`
	CollectionID     string      `json:"collectionId"`
}

type tooFarResponse struct {
	Error            string          `json:"error"`
	Message          string          `json:"message"`
	DistanceInMeters int64           `json:"distance_in_meters"`
	Treasure         models.Treasure `json:"treasure"`
}

// FindTreasures handles GET /treasures/find.
func (h *Handler) FindTreasures(w http.ResponseWriter, r *http.Request) {
	p, errs := parseFindParams(r.URL.Query())
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	q := treasure.NearbyQuery{
		Center:   models.Point{Lat: p.Latitude, Lng: p.Longitude},
		RadiusKm: float64(p.DistanceKm),
	}
	if p.PrizeValue != nil {
		minReward := decimal.NewFromInt(*p.PrizeValue)
		q.MinReward = &minReward
	}

	results, err := h.svc.FindNearby(r.Context(), q)
	if err != nil {
		h.serviceError(w, r, "FindNearby failed", err)
		return
	}

	writeJSON(w, http.StatusOK, findResponse{Count: len(results), Treasures: results})
}

// CollectTreasure handles POST /treasures/{id}/collect.
func (h *Handler) CollectTreasure(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := decodeCollectBody(r.Body)
	if err != nil {
		slog.Debug("Invalid collect body", "error", err)
	}

	userID := middleware.GetUserID(r.Context())
	id, errs := validateCollect(userID, chi.URLParam(r, "id"), body)
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	c, err := h.svc.Collect(r.Context(), treasure.CollectRequest{
		UserID:     userID,
		TreasureID: id,
		Position:   models.Point{Lat: *body.UserLat, Lng: *body.UserLng},
	})
	if err != nil {
		h.serviceError(w, r, "Collect failed", err)
		return
	}

	writeJSON(w, http.StatusOK, collectResponse{
		Success:          true,
		TreasureID:       c.TreasureID,
		RewardAmt:        money(c.Reward),
		UserCurrentTotal: money(c.NewTotal),
		Message:          fmt.Sprintf("You got $%s! Total collected: $%s", c.Reward.StringFixed(2), c.NewTotal.StringFixed(2)),
		CollectionID:     c.CollectionID,
	})
}

// GetBalance handles GET /treasures/balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeValidation(w, []fieldError{{"userId", "Missing userId header"}})
		return
	}

	bal, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, "Balance failed", err)
		return
	}

	writeJSON(w, http.StatusOK, money(bal))
}

// serviceError maps treasure service errors onto HTTP responses.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var tooFar *treasure.TooFarError
	switch {
	case errors.As(err, &tooFar):
		writeJSON(w, http.StatusBadRequest, tooFarResponse{
			Error:            "Too far away!",
			Message:          fmt.Sprintf("You must be within %d meters to collect this treasure.", treasure.MaxCollectDistanceMeters),
			DistanceInMeters: tooFar.DistanceMeters,
			Treasure:         tooFar.Treasure,
		})
	case errors.Is(err, treasure.ErrTreasureNotFound):
		writeError(w, http.StatusNotFound, "Treasure not found")
	case errors.Is(err, treasure.ErrNoRewards):
		writeError(w, http.StatusNotFound, "No rewards found for this treasure")
	case errors.Is(err, treasure.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "error", err, "user_id", middleware.GetUserID(r.Context()))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
