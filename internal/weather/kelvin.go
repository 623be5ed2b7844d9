package weather

import (
	"fmt"
	"math"
)

const absoluteZeroC = 273.15

// Rounding selects how Kelvin-to-Celsius conversion resolves exact halves.
type Rounding string

const (
	// RoundHalfEven rounds x.5 to the even neighbour.
	RoundHalfEven Rounding = "half-even"
	// RoundHalfUp rounds x.5 toward positive infinity, like JavaScript's Math.round.
	RoundHalfUp Rounding = "half-up"
)

// ParseRounding maps a config value onto a Rounding policy.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case RoundHalfEven, RoundHalfUp:
		return Rounding(s), nil
	case "":
		return RoundHalfEven, nil
	}
	return "", fmt.Errorf("unknown rounding policy %q", s)
}

// Celsius converts a Kelvin reading to whole degrees Celsius.
// The reading is normalised to hundredths first so that a decimal .5 in the
// input lands exactly on .5 after subtraction.
func Celsius(kelvin float64, policy Rounding) int {
	hundredths := math.Round(kelvin*100) - absoluteZeroC*100
	c := hundredths / 100

	if policy == RoundHalfUp {
		return int(math.Floor(c + 0.5))
	}
	return int(math.RoundToEven(c))
}
