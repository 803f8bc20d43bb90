package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starrymeet/availability/internal/models"
)

func slotAt(day time.Time, minute int, duration models.Duration) models.AvailabilitySlot {
	return models.AvailabilitySlot{
		ProfileID:   "profile-1",
		Date:        day,
		StartMinute: minute,
		Duration:    duration,
	}
}

func TestOverlaps(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	a := slotAt(day, 600, models.Duration30) // 10:00-10:30

	assert.True(t, a.Overlaps(slotAt(day, 615, models.Duration15)), "contained interval")
	assert.True(t, a.Overlaps(slotAt(day, 585, models.Duration30)), "leading overlap")
	assert.True(t, a.Overlaps(slotAt(day, 570, models.Duration60)), "enclosing interval")
	assert.False(t, a.Overlaps(slotAt(day, 630, models.Duration15)), "back to back is not overlap")
	assert.False(t, a.Overlaps(slotAt(day, 540, models.Duration60)), "ends exactly at start")
	assert.False(t, a.Overlaps(slotAt(day.AddDate(0, 0, 1), 600, models.Duration30)), "different day")
}

func TestClockRoundTrip(t *testing.T) {
	assert.Equal(t, "06:15:00", models.ClockString(375))
	assert.Equal(t, "00:00:00", models.ClockString(0))

	minute, err := models.MinuteOfDay("20:45:00")
	require.NoError(t, err)
	assert.Equal(t, 1245, minute)

	minute, err = models.MinuteOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minute)

	_, err = models.MinuteOfDay("not-a-clock")
	assert.Error(t, err)
}

func TestHomeCountry(t *testing.T) {
	assert.Equal(t, "France", models.HomeCountry("Paris, France"))
	assert.Equal(t, "United States", models.HomeCountry("Los Angeles, CA, United States"))
	assert.Equal(t, "Japan", models.HomeCountry("Japan"))
	assert.Equal(t, "", models.HomeCountry(""))
}

func TestProfilePrice(t *testing.T) {
	p := models.Profile{
		Prices: map[models.PriceKey]int64{
			{Channel: models.ChannelVirtual, Duration: models.Duration15}: 250_000,
		},
	}

	price, ok := p.Price(models.ChannelVirtual, models.Duration15)
	assert.True(t, ok)
	assert.Equal(t, int64(250_000), price)

	_, ok = p.Price(models.ChannelPhysical, models.Duration15)
	assert.False(t, ok, "missing entry must not yield a price")
}

func TestCooldownActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	cd := models.CityCooldown{Start: now.AddDate(0, -1, 0), End: now.AddDate(0, 2, 0)}

	assert.True(t, cd.ActiveAt(now))
	assert.False(t, cd.ActiveAt(now.AddDate(0, 3, 0)))
	assert.False(t, cd.ActiveAt(cd.End), "cooldown ends exactly at End")
}
