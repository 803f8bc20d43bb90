// Package policy holds the static tables driving availability generation:
// tier capacities, scarcity probabilities, duration weights, rotation
// windows, cooldown bounds and the global city pool. Nothing here is mutated
// at runtime.
package policy

import (
	"github.com/starrymeet/availability/internal/models"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// TierPolicy is the per-tier capacity row.
type TierPolicy struct {
	Tier                  models.Tier
	VirtualSlots          Range
	PhysicalSlots         Range
	UnassignedProbability float64
	Description           string
}

// SlotRange returns the slot-count range for a channel.
func (p TierPolicy) SlotRange(ch models.Channel) Range {
	if ch == models.ChannelVirtual {
		return p.VirtualSlots
	}
	return p.PhysicalSlots
}

var tierTable = map[models.Tier]TierPolicy{
	models.TierS: {models.TierS, Range{1, 3}, Range{0, 1}, 0.40, "Ultra exclusive"},
	models.TierA: {models.TierA, Range{3, 7}, Range{1, 2}, 0.30, "High tier"},
	models.TierB: {models.TierB, Range{6, 12}, Range{1, 3}, 0.20, "Notable"},
	models.TierC: {models.TierC, Range{10, 18}, Range{2, 4}, 0.10, "Popular"},
	models.TierD: {models.TierD, Range{15, 25}, Range{3, 6}, 0.05, "Accessible"},
}

// For looks up the policy row for a tier.
func For(t models.Tier) (TierPolicy, bool) {
	p, ok := tierTable[t]
	return p, ok
}

// DurationWeight pairs a duration with its percentage weight.
type DurationWeight struct {
	Duration models.Duration
	Weight   int
}

// DurationWeights sums to 100: short meetings dominate.
var DurationWeights = []DurationWeight{
	{models.Duration15, 45},
	{models.Duration30, 40},
	{models.Duration60, 15},
}

// Window bounds the date, start hour and city fan-out of one channel's
// rotation. HourEnd is exclusive for start-time draws.
type Window struct {
	Days      Range
	HourStart int
	HourEnd   int
	Cities    Range
}

var windows = map[models.Channel]Window{
	models.ChannelPhysical: {Days: Range{7, 14}, HourStart: 10, HourEnd: 21, Cities: Range{1, 3}},
	models.ChannelVirtual:  {Days: Range{3, 7}, HourStart: 6, HourEnd: 23, Cities: Range{1, 3}},
}

// WindowFor returns the rotation window for a channel.
func WindowFor(ch models.Channel) Window {
	return windows[ch]
}

// Cooldown bounds, in months, for a city used in a rotation.
const (
	CooldownMinMonths = 3
	CooldownMaxMonths = 6
)

// Tier price bands over the physical standard (30 min) meet price,
// in minor currency units.
const (
	tierSMinPrice = 50_000_000
	tierAMinPrice = 10_000_000
	tierBMinPrice = 2_000_000
	tierCMinPrice = 500_000
)

// TierForPrice classifies a profile by its physical standard meet price.
func TierForPrice(priceCents int64) models.Tier {
	switch {
	case priceCents >= tierSMinPrice:
		return models.TierS
	case priceCents >= tierAMinPrice:
		return models.TierA
	case priceCents >= tierBMinPrice:
		return models.TierB
	case priceCents >= tierCMinPrice:
		return models.TierC
	default:
		return models.TierD
	}
}

// PriceBand returns the [min, max] price band for a tier; max is -1 for the
// unbounded top band. Used by the store to fetch profiles per tier.
func PriceBand(t models.Tier) (min, max int64) {
	switch t {
	case models.TierS:
		return tierSMinPrice, -1
	case models.TierA:
		return tierAMinPrice, tierSMinPrice - 1
	case models.TierB:
		return tierBMinPrice, tierAMinPrice - 1
	case models.TierC:
		return tierCMinPrice, tierBMinPrice - 1
	default:
		return 0, tierCMinPrice - 1
	}
}
