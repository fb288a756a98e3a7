// Package markers precomputes the sparse set of checkpoint offsets that
// timer UIs highlight on a progress bar: evenly spaced structural marks,
// proportional fractions of the total, and a dense final countdown.
package markers

import (
	"math"
	"sort"
)

const (
	minMarkers = 5
	maxMarkers = 15

	// countdownTailSec is how many seconds before the end the dense
	// one-per-second countdown region begins.
	countdownTailSec = 10
)

// humanIntervals are the base spacings a marker grid may snap to.
var humanIntervals = []int{1, 2, 5, 10, 15, 20, 30, 60, 120, 300, 600, 900, 1800}

// fractions of the total duration that get a proportional marker.
var fractions = [][2]int{{1, 4}, {1, 3}, {1, 2}, {2, 3}, {3, 4}}

// Generate returns the ascending marker offsets (seconds from start) for a
// countdown of the given length. Deterministic and side-effect free: the
// same duration always yields the same markers.
func Generate(durationSec int) []int {
	if durationSec <= 0 {
		return nil
	}

	base := baseInterval(durationSec)
	set := make(map[int]struct{})

	// Structural multiples of the base interval, stopping at the countdown
	// boundary so the tail region stays one-per-second only.
	for m := base; m < durationSec-countdownTailSec; m += base {
		set[m] = struct{}{}
	}

	for _, f := range fractionalOffsets(durationSec) {
		if f > 0 && f < durationSec {
			set[f] = struct{}{}
		}
	}

	if durationSec > countdownTailSec {
		for s := durationSec - countdownTailSec; s < durationSec; s++ {
			set[s] = struct{}{}
		}
	} else {
		for s := 1; s < durationSec; s++ {
			set[s] = struct{}{}
		}
	}

	// Sparse grids get half-base multiples injected until the set is useful.
	if len(set) < minMarkers && base > 1 {
		half := base / 2
		for m := half; m < durationSec && len(set) < minMarkers; m += half {
			if m%base == 0 {
				continue
			}
			set[m] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(set))
	for m := range set {
		sorted = append(sorted, m)
	}
	sort.Ints(sorted)

	if len(sorted) > maxMarkers {
		sorted = thin(sorted, durationSec, base)
	}
	return sorted
}

// baseInterval derives the structural spacing from the duration's order of
// magnitude, rounds anything above a minute to a whole number of minutes,
// then snaps to the nearest human-friendly interval.
func baseInterval(durationSec int) int {
	exp := math.Floor(math.Log10(float64(durationSec)))
	candidate := int(math.Pow(10, exp))
	if candidate > 60 {
		candidate = int(math.Round(float64(candidate)/60)) * 60
	}
	best := humanIntervals[0]
	for _, h := range humanIntervals[1:] {
		if abs(h-candidate) < abs(best-candidate) {
			best = h
		}
	}
	return best
}

func fractionalOffsets(durationSec int) []int {
	offsets := make([]int, 0, len(fractions))
	for _, f := range fractions {
		offsets = append(offsets, int(math.Round(float64(durationSec)*float64(f[0])/float64(f[1]))))
	}
	return offsets
}

// thin reduces an oversized marker set. Tail markers and anything within
// base/2 of a fractional marker are always kept; the remainder is sampled
// at a stride that targets the maximum count. Because important markers are
// never dropped, certain durations still exceed the target; callers treat
// the bound as a goal, not a guarantee.
func thin(sorted []int, durationSec, base int) []int {
	fracs := fractionalOffsets(durationSec)
	important := func(m int) bool {
		if m >= durationSec-countdownTailSec {
			return true
		}
		for _, f := range fracs {
			if abs(m-f)*2 <= base {
				return true
			}
		}
		return false
	}

	stride := (len(sorted) + maxMarkers - 1) / maxMarkers
	kept := make([]int, 0, maxMarkers)
	idx := 0
	for _, m := range sorted {
		if important(m) {
			kept = append(kept, m)
			continue
		}
		if idx%stride == 0 {
			kept = append(kept, m)
		}
		idx++
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
