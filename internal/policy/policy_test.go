package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/policy"
)

func TestTierTableComplete(t *testing.T) {
	prevProbability := 1.1
	for _, tier := range models.Tiers {
		p, ok := policy.For(tier)
		require.True(t, ok, "missing policy for tier %s", tier)
		assert.Equal(t, tier, p.Tier)
		assert.LessOrEqual(t, p.VirtualSlots.Min, p.VirtualSlots.Max)
		assert.LessOrEqual(t, p.PhysicalSlots.Min, p.PhysicalSlots.Max)
		assert.GreaterOrEqual(t, p.UnassignedProbability, 0.0)
		assert.LessOrEqual(t, p.UnassignedProbability, 1.0)
		// Scarcer tiers hold back more inventory.
		assert.Less(t, p.UnassignedProbability, prevProbability)
		prevProbability = p.UnassignedProbability
	}

	_, ok := policy.For(models.Tier("X"))
	assert.False(t, ok)
}

func TestSlotRangePerChannel(t *testing.T) {
	p, _ := policy.For(models.TierS)
	assert.Equal(t, policy.Range{Min: 1, Max: 3}, p.SlotRange(models.ChannelVirtual))
	assert.Equal(t, policy.Range{Min: 0, Max: 1}, p.SlotRange(models.ChannelPhysical))
}

func TestDurationWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, dw := range policy.DurationWeights {
		assert.Positive(t, dw.Weight)
		sum += dw.Weight
	}
	assert.Equal(t, 100, sum)
}

func TestRotationWindows(t *testing.T) {
	physical := policy.WindowFor(models.ChannelPhysical)
	assert.Equal(t, policy.Range{Min: 7, Max: 14}, physical.Days)
	assert.Equal(t, 10, physical.HourStart)
	assert.Equal(t, 21, physical.HourEnd)

	virtual := policy.WindowFor(models.ChannelVirtual)
	assert.Equal(t, policy.Range{Min: 3, Max: 7}, virtual.Days)
	assert.Equal(t, 6, virtual.HourStart)
	assert.Equal(t, 23, virtual.HourEnd)
}

func TestTierForPrice(t *testing.T) {
	cases := []struct {
		price int64
		want  models.Tier
	}{
		{75_000_000, models.TierS},
		{50_000_000, models.TierS},
		{49_999_999, models.TierA},
		{10_000_000, models.TierA},
		{2_000_000, models.TierB},
		{500_000, models.TierC},
		{499_999, models.TierD},
		{0, models.TierD},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, policy.TierForPrice(tc.price), "price %d", tc.price)
	}
}

func TestPriceBandsPartitionThePriceLine(t *testing.T) {
	for _, tier := range models.Tiers {
		min, max := policy.PriceBand(tier)
		assert.Equal(t, tier, policy.TierForPrice(min), "band min of %s", tier)
		if max >= 0 {
			assert.Equal(t, tier, policy.TierForPrice(max), "band max of %s", tier)
		}
	}
}

func TestGlobalCityPool(t *testing.T) {
	require.NotEmpty(t, policy.GlobalCityPool)

	countries := map[string]struct{}{}
	seen := map[string]struct{}{}
	for _, city := range policy.GlobalCityPool {
		assert.NotEmpty(t, city.City)
		assert.NotEmpty(t, city.Country)
		assert.NotEmpty(t, city.Timezone)
		_, dup := seen[city.Key()]
		assert.False(t, dup, "duplicate city %s", city.Key())
		seen[city.Key()] = struct{}{}
		countries[city.Country] = struct{}{}
	}
	// Rotation needs enough countries that home-country exclusion never
	// drains the pool.
	assert.GreaterOrEqual(t, len(countries), 10)
}
