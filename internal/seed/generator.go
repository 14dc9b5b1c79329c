package seed

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/mkret/measureboard/internal/domain/model"
)

const randomFloatDivisor = 1000000

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// sample is one generated measurement before submission.
type sample struct {
	value float64
	stamp string
}

// generateSamples produces days*perDay samples for one profile, oldest
// first, ending on the reference day. Values wander around the profile's
// base with jitter and a slow drift, clamped to the series bounds.
func generateSamples(p Profile, days, perDay int, now time.Time) []sample {
	samples := make([]sample, 0, days*perDay)
	day := now.AddDate(0, 0, -(days - 1))
	for d := 0; d < days; d++ {
		base := p.Base + p.Drift*float64(d)
		for i := 0; i < perDay; i++ {
			value := base + (getRandomFloat()*2-1)*p.Jitter
			if value < p.Min {
				value = p.Min
			}
			if value > p.Max {
				value = p.Max
			}
			at := sampleInstant(day, i, perDay)
			samples = append(samples, sample{
				value: value,
				stamp: model.FormatStamp(at),
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return samples
}

// sampleInstant spreads perDay samples across the waking hours of day,
// with minute-level noise so runs do not collide on exact timestamps.
func sampleInstant(day time.Time, index, perDay int) time.Time {
	const wakingHours = 16
	hour := 7
	if perDay > 1 {
		hour += index * wakingHours / perDay
	}
	minute, _ := rand.Int(rand.Reader, big.NewInt(60))
	second, _ := rand.Int(rand.Reader, big.NewInt(60))
	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, int(minute.Int64()), int(second.Int64()), 0, day.Location())
}
