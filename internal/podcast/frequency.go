package podcast

import (
	"slices"
	"time"
)

// Frequency describes the typical gap between two releases.
type Frequency struct {
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	// Number of gaps the estimate is based on.
	Samples int `json:"samples"`
}

// MeanDays is the mean gap in days.
func (f Frequency) MeanDays() float64 {
	return f.Mean.Hours() / 24
}

// PublishingFrequency estimates how often the podcast releases from the
// gaps between consecutive distinct publishing days. It reports false
// when fewer than two distinct days are known.
func PublishingFrequency(episodes []Episode) (Frequency, bool) {
	days := make([]time.Time, 0, len(episodes))
	for _, e := range episodes {
		if e.PubDate == nil {
			continue
		}
		u := e.PubDate.UTC()
		days = append(days, time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	days = slices.CompactFunc(days, time.Time.Equal)
	if len(days) < 2 {
		return Frequency{}, false
	}

	gaps := make([]time.Duration, 0, len(days)-1)
	var total time.Duration
	for i := 1; i < len(days); i++ {
		gap := days[i].Sub(days[i-1])
		gaps = append(gaps, gap)
		total += gap
	}
	slices.Sort(gaps)

	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}

	return Frequency{
		Mean:    total / time.Duration(len(gaps)),
		Median:  median,
		Samples: len(gaps),
	}, true
}
