// Package generator produces candidate availability slots for a single
// (profile, channel) pair. All randomness comes from the caller-supplied
// rand.Rand and all time from the caller-supplied now, so runs are
// reproducible under a fixed seed.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/policy"
)

// Request carries everything one generation needs. Existing holds the
// profile's currently active slots; with a shared calendar it spans both
// channels.
type Request struct {
	Profile    models.Profile
	Channel    models.Channel
	RotationID string
	Available  []models.City
	Existing   []models.AvailabilitySlot
	// PerChannelCalendar restricts the collision check to slots on the
	// candidate's own channel. Default is a shared calendar: a person cannot
	// hold a physical and a virtual meeting at the same moment.
	PerChannelCalendar bool
}

// Result is the outcome of one generation. Generated + Skipped equals the
// slot count targeted after the scarcity discount (or the pre-discount
// target when the discount zeroed the run).
type Result struct {
	Slots      []models.AvailabilitySlot
	CitiesUsed []models.City
	Generated  int
	Skipped    int
}

// Generate runs the rotation algorithm for one profile and channel.
// Degenerate inputs (no cities, no price) surface as skip counts, never as
// errors.
func Generate(req Request, rng *rand.Rand, now time.Time) Result {
	var result Result

	tierPolicy, ok := policy.For(req.Profile.Tier)
	if !ok {
		return result
	}
	window := policy.WindowFor(req.Channel)

	targetCount := drawRange(rng, tierPolicy.SlotRange(req.Channel))

	// Scarcity discount: the realized reduction varies run to run, not just
	// whether a reduction happens.
	actualCount := int(float64(targetCount) * (1 - tierPolicy.UnassignedProbability*rng.Float64()))
	if actualCount == 0 {
		result.Skipped = targetCount
		return result
	}

	if len(req.Available) == 0 {
		result.Skipped = actualCount
		return result
	}

	cityCount := drawRange(rng, window.Cities)
	if cityCount > actualCount {
		cityCount = actualCount
	}
	if cityCount > len(req.Available) {
		cityCount = len(req.Available)
	}
	selected := sampleCities(rng, req.Available, cityCount)

	calendar := make([]models.AvailabilitySlot, 0, len(req.Existing)+actualCount)
	for _, s := range req.Existing {
		if req.PerChannelCalendar && s.Channel != req.Channel {
			continue
		}
		calendar = append(calendar, s)
	}

	usedCities := map[string]struct{}{}
	for i := 0; i < actualCount; i++ {
		city := selected[i%len(selected)]
		duration := ChooseDuration(rng)
		date := drawDate(rng, window, now)
		startMinute := drawStartMinute(rng, window)

		candidate := models.AvailabilitySlot{
			ProfileID:   req.Profile.ID,
			Channel:     req.Channel,
			Duration:    duration,
			City:        city.City,
			Country:     city.Country,
			Timezone:    city.Timezone,
			Date:        date,
			StartMinute: startMinute,
			Tier:        req.Profile.Tier,
			Status:      models.StatusActive,
			RotationID:  req.RotationID,
			ExpiresAt:   date.AddDate(0, 0, 1),
		}

		if collides(candidate, calendar) {
			result.Skipped++
			continue
		}

		price, ok := req.Profile.Price(req.Channel, duration)
		if !ok {
			result.Skipped++
			continue
		}
		candidate.PriceCents = price

		result.Slots = append(result.Slots, candidate)
		calendar = append(calendar, candidate)
		if _, seen := usedCities[city.Key()]; !seen {
			usedCities[city.Key()] = struct{}{}
			result.CitiesUsed = append(result.CitiesUsed, city)
		}
	}
	result.Generated = len(result.Slots)
	return result
}

// ChooseDuration picks a duration proportionally to the configured weights.
func ChooseDuration(rng *rand.Rand) models.Duration {
	draw := rng.Intn(100)
	cumulative := 0
	for _, dw := range policy.DurationWeights {
		cumulative += dw.Weight
		if draw < cumulative {
			return dw.Duration
		}
	}
	return models.Duration30
}

// drawRange draws uniformly from an inclusive range.
func drawRange(rng *rand.Rand, r policy.Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// drawDate picks a day offset within the channel window and normalizes to
// midnight UTC.
func drawDate(rng *rand.Rand, w policy.Window, now time.Time) time.Time {
	days := drawRange(rng, w.Days)
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// drawStartMinute picks an hour in [HourStart, HourEnd) and quantizes the
// minute to a quarter hour.
func drawStartMinute(rng *rand.Rand, w policy.Window) int {
	hour := w.HourStart + rng.Intn(w.HourEnd-w.HourStart)
	quarter := rng.Intn(4) * 15
	return hour*60 + quarter
}

// sampleCities selects count cities uniformly without replacement.
func sampleCities(rng *rand.Rand, pool []models.City, count int) []models.City {
	shuffled := append([]models.City(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

func collides(candidate models.AvailabilitySlot, calendar []models.AvailabilitySlot) bool {
	for _, existing := range calendar {
		if candidate.Overlaps(existing) {
			return true
		}
	}
	return false
}

// RotationID tags every slot of one run: YYYY-MM-Www, week of month.
func RotationID(now time.Time) string {
	return fmt.Sprintf("%s-W%d", now.Format("2006-01"), (now.Day()+6)/7)
}
