package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Skotchmaster/shopping_app/internal/models"
)

const MaxQuantity = models.MaxCartQuantity

// AddQuantity coerces the quantity of an add-to-cart request. A missing value
// means one; numbers and numeric strings are floored and raised to at least one.
func AddQuantity(raw any) (uint, error) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 1, nil
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, invalid("quantity must be a number")
		}
		f = n
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 1, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, invalid("quantity must be a number")
		}
		f = n
	default:
		return 0, invalid("quantity must be a number")
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid("quantity must be a number")
	}
	f = math.Max(1, math.Floor(f))
	if f > MaxQuantity {
		return 0, invalid("quantity is too large")
	}
	return uint(f), nil
}

// SetQuantity validates the absolute quantity of a cart update: a finite whole number of at least one.
func SetQuantity(raw any) (uint, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, invalid("quantity must be a number")
		}
		f = n
	default:
		return 0, invalid("quantity must be a number")
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid("quantity must be a whole number")
	}
	if f < 1 {
		return 0, invalid("quantity must be at least 1")
	}
	if f > MaxQuantity {
		return 0, invalid("quantity is too large")
	}
	return uint(f), nil
}
