// Package citypool decides which cities a profile may currently be offered
// in: the global pool minus the profile's home country minus any city in an
// active cooldown.
package citypool

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/policy"
)

// Store is the subset of persistence the tracker needs.
type Store interface {
	ActiveCooldowns(ctx context.Context, profileID string, now time.Time) ([]models.CityCooldown, error)
	UpsertCooldown(ctx context.Context, cd models.CityCooldown) error
}

// Tracker answers city-eligibility queries and commits cooldowns after a
// generation run.
type Tracker struct {
	pool  []models.City
	store Store
}

func New(pool []models.City, store Store) *Tracker {
	return &Tracker{pool: pool, store: store}
}

// EligibleCities returns the global pool minus the profile's home country.
// Country comparison is case-insensitive.
func (t *Tracker) EligibleCities(profile models.Profile) []models.City {
	home := strings.ToLower(strings.TrimSpace(profile.HomeCountry))
	eligible := make([]models.City, 0, len(t.pool))
	for _, city := range t.pool {
		if strings.ToLower(city.Country) == home && home != "" {
			continue
		}
		eligible = append(eligible, city)
	}
	return eligible
}

// AvailableCities returns eligible cities not in an active cooldown, plus the
// number of eligible cities currently excluded by cooldowns. An empty result
// is not an error; it means zero eligible capacity this cycle.
func (t *Tracker) AvailableCities(ctx context.Context, profile models.Profile, now time.Time) ([]models.City, int, error) {
	eligible := t.EligibleCities(profile)

	cooldowns, err := t.store.ActiveCooldowns(ctx, profile.ID, now)
	if err != nil {
		return nil, 0, err
	}
	excluded := make(map[string]struct{}, len(cooldowns))
	for _, cd := range cooldowns {
		excluded[models.City{City: cd.City, Country: cd.Country}.Key()] = struct{}{}
	}

	available := make([]models.City, 0, len(eligible))
	for _, city := range eligible {
		if _, onCooldown := excluded[city.Key()]; onCooldown {
			continue
		}
		available = append(available, city)
	}
	return available, len(eligible) - len(available), nil
}

// CommitCooldowns upserts a cooldown row for every city used in a generation
// run. Each end is drawn independently from the configured month range; an
// existing active cooldown is extended, never shortened.
func (t *Tracker) CommitCooldowns(ctx context.Context, profileID string, cities []models.City, now time.Time, rng *rand.Rand) error {
	for _, city := range cities {
		months := policy.CooldownMinMonths + rng.Intn(policy.CooldownMaxMonths-policy.CooldownMinMonths+1)
		cd := models.CityCooldown{
			ProfileID: profileID,
			City:      city.City,
			Country:   city.Country,
			Start:     now,
			End:       now.AddDate(0, months, 0),
		}
		if err := t.store.UpsertCooldown(ctx, cd); err != nil {
			return err
		}
	}
	return nil
}
