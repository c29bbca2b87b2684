package httpapi

import (
	"encoding/json"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	minPrizeValue = 10
	maxPrizeValue = 30
)

// findParams are the validated query parameters of GET /treasures/find.
type findParams struct {
	Latitude   float64
	Longitude  float64
	DistanceKm int
	PrizeValue *int64
}

func parseCoordinate(raw string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || v < -limit || v > limit {
		return 0, false
	}
	return v, true
}

func parseFindParams(q url.Values) (findParams, []fieldError) {
	var (
		p    findParams
		errs []fieldError
		ok   bool
	)

	if !q.Has("latitude") {
		errs = append(errs, fieldError{"latitude", "Latitude is required"})
	} else if p.Latitude, ok = parseCoordinate(q.Get("latitude"), 90); !ok {
		errs = append(errs, fieldError{"latitude", "Latitude must be between -90 and 90"})
	}

	if !q.Has("longitude") {
		errs = append(errs, fieldError{"longitude", "Longitude is required"})
	} else if p.Longitude, ok = parseCoordinate(q.Get("longitude"), 180); !ok {
		errs = append(errs, fieldError{"longitude", "Longitude must be between -180 and 180"})
	}

	if !q.Has("distance") {
		errs = append(errs, fieldError{"distance", "Distance is required"})
	} else {
		d, err := strconv.Atoi(strings.TrimSpace(q.Get("distance")))
		switch {
		case err != nil || d < 1 || d > 10:
			errs = append(errs, fieldError{"distance", "Distance must be an integer between 1 and 10"})
		case d != 1 && d != 10:
			errs = append(errs, fieldError{"distance", "Distance must be either 1 or 10 km"})
		default:
			p.DistanceKm = d
		}
	}

	if q.Has("prizeValue") {
		v, err := strconv.ParseInt(strings.TrimSpace(q.Get("prizeValue")), 10, 64)
		if err != nil || v < minPrizeValue || v > maxPrizeValue {
			errs = append(errs, fieldError{"prizeValue", "Prize value must be a whole number between $10 and $30"})
		} else {
			p.PrizeValue = &v
		}
	}

	return p, errs
}

// collectBody is the JSON body of POST /treasures/{id}/collect. A nil field was
// missing or not numeric.
type collectBody struct {
	UserLat *float64
	UserLng *float64
}

// decodeCollectBody reads each coordinate independently so one bad field does not
// hide the other. Coordinates may be JSON numbers or numeric strings.
func decodeCollectBody(r io.Reader) (collectBody, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return collectBody{}, err
	}
	return collectBody{
		UserLat: jsonFloat(raw["userLat"]),
		UserLng: jsonFloat(raw["userLng"]),
	}, nil
}

func jsonFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	return &v
}

func validateCollect(userID, rawID string, body collectBody) (int64, []fieldError) {
	var errs []fieldError

	if userID == "" {
		errs = append(errs, fieldError{"userId", "Missing userId header"})
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 1 {
		errs = append(errs, fieldError{"id", "Treasure ID is required"})
	}

	if body.UserLat == nil || math.IsNaN(*body.UserLat) || *body.UserLat < -90 || *body.UserLat > 90 {
		errs = append(errs, fieldError{"userLat", "Latitude must be between -90 and 90"})
	}
	if body.UserLng == nil || math.IsNaN(*body.UserLng) || *body.UserLng < -180 || *body.UserLng > 180 {
		errs = append(errs, fieldError{"userLng", "Longitude must be between -180 and 180"})
	}

	return id, errs
}
