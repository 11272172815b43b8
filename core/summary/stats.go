// Package summary reduces posterior draws to point estimates and intervals.
package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// Point is a point estimate over a sample. Fn receives the sample sorted
// ascending, without missing values, and at least one element long.
type Point struct {
	Name string
	Fn   func(sorted []float64) float64
}

// Interval is an interval estimate of the given probability mass. Fn
// receives the sample sorted ascending, without missing values.
type Interval struct {
	Name string
	Fn   func(sorted []float64, width float64) (lower, upper float64)
}

var (
	// Mean is the arithmetic mean.
	Mean = Point{Name: "mean", Fn: mean}
	// Median is the type-7 sample median.
	Median = Point{Name: "median", Fn: median}
	// Mode is the peak of a Gaussian kernel density estimate.
	Mode = Point{Name: "mode", Fn: mode}

	// QI is the equal-tailed quantile interval.
	QI = Interval{Name: "qi", Fn: quantileInterval}
	// HDCI is the shortest contiguous interval containing the mass.
	HDCI = Interval{Name: "hdci", Fn: highestDensityInterval}
)

func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func median(x []float64) float64 {
	return Quantile(x, 0.5)
}

// Quantile returns the type-7 (linear interpolation) quantile p of a sorted
// sample.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func quantileInterval(x []float64, width float64) (float64, float64) {
	return Quantile(x, (1-width)/2), Quantile(x, (1+width)/2)
}

// highestDensityInterval returns the narrowest window spanning m+1 sorted
// draws, m = floor(n*width) clamped to [1, n-1].
func highestDensityInterval(x []float64, width float64) (float64, float64) {
	n := len(x)
	if n == 1 {
		return x[0], x[0]
	}
	m := max(1, min(n-1, int(math.Floor(float64(n)*width))))
	best := 0
	for i := 1; i+m < n; i++ {
		if x[i+m]-x[i] < x[best+m]-x[best] {
			best = i
		}
	}
	return x[best], x[best+m]
}

const modeGrid = 512

func mode(x []float64) float64 {
	n := len(x)
	if n == 1 {
		return x[0]
	}
	bw := silverman(x)
	if bw == 0 || math.IsNaN(bw) {
		return x[0]
	}
	lo, hi := x[0]-3*bw, x[n-1]+3*bw
	step := (hi - lo) / float64(modeGrid-1)
	bestAt, bestDensity := lo, -1.0
	for g := 0; g < modeGrid; g++ {
		at := lo + float64(g)*step
		d := 0.0
		for _, v := range x {
			z := (at - v) / bw
			d += math.Exp(-0.5 * z * z)
		}
		if d > bestDensity {
			bestAt, bestDensity = at, d
		}
	}
	return bestAt
}

// silverman is the rule-of-thumb Gaussian bandwidth.
func silverman(x []float64) float64 {
	n := float64(len(x))
	m := mean(x)
	ss := 0.0
	for _, v := range x {
		ss += (v - m) * (v - m)
	}
	sd := math.Sqrt(ss / (n - 1))
	spread := sd
	if iqr := (Quantile(x, 0.75) - Quantile(x, 0.25)) / 1.34; iqr > 0 && iqr < spread {
		spread = iqr
	}
	return 0.9 * spread * math.Pow(n, -0.2)
}

// clean returns the non-missing values of x, sorted.
func clean(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// ParsePoint looks up a point estimate by name.
func ParsePoint(name string) (Point, error) {
	for _, p := range []Point{Mean, Median, Mode} {
		if p.Name == strings.ToLower(name) {
			return p, nil
		}
	}
	return Point{}, errors.NewUnsupported("point estimate", fmt.Sprintf("%q (want mean, median or mode)", name))
}

// ParseInterval looks up an interval estimate by name.
func ParseInterval(name string) (Interval, error) {
	for _, iv := range []Interval{QI, HDCI} {
		if iv.Name == strings.ToLower(name) {
			return iv, nil
		}
	}
	return Interval{}, errors.NewUnsupported("interval", fmt.Sprintf("%q (want qi or hdci)", name))
}
