package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Score Bounds
// --------------------------------------------------------------------------

// infinity markers for ScoreBound
const (
	boundFinite int8 = iota
	boundNegInf
	boundPosInf
)

// ScoreBound is one end of a score range. It is either a finite score or one
// of the infinity sentinels used by SortedSetRangeByScore.
type ScoreBound struct {
	value float64
	inf   int8
}

// Score returns a finite score bound.
func Score(v float64) ScoreBound {
	return ScoreBound{value: v}
}

// NegInf returns the negative-infinity sentinel bound.
func NegInf() ScoreBound {
	return ScoreBound{inf: boundNegInf}
}

// PosInf returns the positive-infinity sentinel bound.
func PosInf() ScoreBound {
	return ScoreBound{inf: boundPosInf}
}

// ParseScoreBound parses the wire representation of a bound: the literal
// tokens "-inf" and "+inf" (or "inf"), otherwise a decimal number.
func ParseScoreBound(s string) (ScoreBound, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "-inf":
		return NegInf(), nil
	case "+inf", "inf":
		return PosInf(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ScoreBound{}, fmt.Errorf("invalid score bound %q: %w", s, err)
	}
	return Score(v), nil
}

// Value returns the finite value of the bound. It is only meaningful when
// neither IsNegInf nor IsPosInf is true.
func (b ScoreBound) Value() float64 { return b.value }

// IsNegInf reports whether the bound is the negative-infinity sentinel.
func (b ScoreBound) IsNegInf() bool { return b.inf == boundNegInf }

// IsPosInf reports whether the bound is the positive-infinity sentinel.
func (b ScoreBound) IsPosInf() bool { return b.inf == boundPosInf }

// Contains reports whether a score lies within [min, max] where b is used as
// the lower bound and max as the upper bound.
func (b ScoreBound) Contains(score float64, max ScoreBound) bool {
	if b.IsPosInf() || max.IsNegInf() {
		return false
	}
	if !b.IsNegInf() && score < b.value {
		return false
	}
	if !max.IsPosInf() && score > max.value {
		return false
	}
	return true
}

func (b ScoreBound) String() string {
	switch b.inf {
	case boundNegInf:
		return "-inf"
	case boundPosInf:
		return "+inf"
	default:
		return strconv.FormatFloat(b.value, 'f', -1, 64)
	}
}
