package services

import "math"

func fptr(v float64) *float64 { return &v }

// safeDivide returns n/d, or nil when either operand is unknown or the
// denominator is zero. Division never panics on any input.
func safeDivide(n, d *float64) *float64 {
	if n == nil || d == nil || *d == 0 {
		return nil
	}
	return fptr(*n / *d)
}

// growthRate returns (current-previous)/|previous| as a decimal fraction,
// or nil when the prior value is unknown or zero.
func growthRate(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	return fptr((*current - *previous) / math.Abs(*previous))
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	return fptr(roundTo(*v, places))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the N−1 standard deviation used for returns-based
// statistics. Bollinger Bands deliberately use the population (N) form
// instead; see TechnicalEngine.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// reversed returns a new slice in the opposite order. Engines use it to go
// from the dataset's newest-first ordering to chronological.
func reversed(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

// statementAt returns a pointer to the record at offset, nil when the
// history is too short. Offset 0 is the most recent period.
func statementAt[T any](stmts []T, offset int) *T {
	if offset < 0 || offset >= len(stmts) {
		return nil
	}
	return &stmts[offset]
}

// orZero treats an unknown value as zero. Only for quantities where the
// absence of a liability (debt, cash, inventory) is equivalent to none.
func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
