package models

import (
	"encoding/json"
	"fmt"
)

// FilterKind enumerates the screen predicates as a closed set, so filter
// dispatch is an exhaustive switch instead of string comparison.
type FilterKind int

const (
	FilterBounceUp FilterKind = iota
	FilterBounceDown
	FilterTrendUp
	FilterTrendDown
	FilterMoreThan
	FilterLessThan
)

var filterKindNames = map[FilterKind]string{
	FilterBounceUp:   "bounceUp",
	FilterBounceDown: "bounceDown",
	FilterTrendUp:    "trendUp",
	FilterTrendDown:  "trendDown",
	FilterMoreThan:   "moreThan",
	FilterLessThan:   "lessThan",
}

var filterKindValues = map[string]FilterKind{
	"bounceUp":   FilterBounceUp,
	"bounceDown": FilterBounceDown,
	"trendUp":    FilterTrendUp,
	"trendDown":  FilterTrendDown,
	"moreThan":   FilterMoreThan,
	"lessThan":   FilterLessThan,
}

func (k FilterKind) String() string {
	if name, ok := filterKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// ParseFilterKind maps an API-level name onto the enum; unknown names are
// a caller error.
func ParseFilterKind(name string) (FilterKind, error) {
	kind, ok := filterKindValues[name]
	if !ok {
		return 0, fmt.Errorf("unknown filter kind %q", name)
	}
	return kind, nil
}

func (k FilterKind) MarshalJSON() ([]byte, error) {
	name, ok := filterKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown filter kind %d", int(k))
	}
	return json.Marshal(name)
}

func (k *FilterKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	kind, err := ParseFilterKind(name)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// -----------------------------------------------------------------------------

// MFilter is one screen predicate bound to a table suffix ("" targets the
// daily column group). Level is the predicate threshold.
type MFilter struct {
	Kind   FilterKind `json:"kind"`
	Suffix string     `json:"suffix"`
	Level  float64    `json:"level"`
}
