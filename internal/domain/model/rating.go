package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Rating bounds accepted from the scoring capability.
const (
	MinRating = 1
	MaxRating = 10
)

// Rating is an answer score. Values that arrive in a non-numeric form decode without error
// but are marked invalid, so they are kept in the record yet excluded from averages.
type Rating struct {
	Value int
	Valid bool
	raw   json.RawMessage
}

// NewRating returns a valid rating holding v.
func NewRating(v int) Rating {
	return Rating{Value: v, Valid: true}
}

// InRange reports whether the rating is valid and inside [MinRating, MaxRating].
func (r Rating) InRange() bool {
	return r.Valid && r.Value >= MinRating && r.Value <= MaxRating
}

// MarshalJSON writes valid ratings as numbers and replays whatever was decoded otherwise.
func (r Rating) MarshalJSON() ([]byte, error) {
	if r.Valid {
		return []byte(strconv.Itoa(r.Value)), nil
	}
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts integers, integral floats and numeric strings.
func (r *Rating) UnmarshalJSON(data []byte) error {
	*r = Rating{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		if v, ok := parseRating(num.String()); ok {
			*r = NewRating(v)
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if v, ok := parseRating(strings.TrimSpace(s)); ok {
			*r = NewRating(v)
			return nil
		}
	}

	r.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

func parseRating(s string) (int, bool) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// AverageRating averages the valid ratings in results, rounded to one decimal place.
// Results without a valid rating are left out of both the sum and the count; an empty
// set averages to zero.
func AverageRating(results []AnsweredQuestion) float64 {
	total, count := 0, 0
	for _, res := range results {
		if !res.Evaluation.Rating.Valid {
			continue
		}
		total += res.Evaluation.Rating.Value
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*10) / 10
}
