package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tier classifies a profile from scarcest (S) to most available (D).
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Tiers lists all tiers in processing order, scarcest first.
var Tiers = []Tier{TierS, TierA, TierB, TierC, TierD}

func (t Tier) Valid() bool {
	switch t {
	case TierS, TierA, TierB, TierC, TierD:
		return true
	}
	return false
}

// Channel is the meeting modality.
type Channel string

const (
	ChannelVirtual  Channel = "virtual"
	ChannelPhysical Channel = "physical"
)

// Channels lists both channels in the order the rotation processes them.
var Channels = []Channel{ChannelPhysical, ChannelVirtual}

// Duration is a meeting length in minutes.
type Duration int

const (
	Duration15 Duration = 15
	Duration30 Duration = 30
	Duration60 Duration = 60
)

// SlotStatus is the lifecycle state of an availability slot.
// active is the only non-terminal state.
type SlotStatus string

const (
	StatusActive    SlotStatus = "active"
	StatusBooked    SlotStatus = "booked"
	StatusExpired   SlotStatus = "expired"
	StatusCancelled SlotStatus = "cancelled"
)

// City is one entry of the global city pool.
type City struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

// Key returns a case-insensitive identity for cooldown matching.
func (c City) Key() string {
	return strings.ToLower(c.City) + "|" + strings.ToLower(c.Country)
}

// AvailabilitySlot is one bookable meeting opportunity. The natural key is
// (ProfileID, Date, StartMinute, Channel); no profile may hold two active
// slots with the same key.
type AvailabilitySlot struct {
	ID          int64      `json:"id,omitempty"`
	ProfileID   string     `json:"profileId"`
	Channel     Channel    `json:"channel"`
	Duration    Duration   `json:"duration"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	Timezone    string     `json:"timezone"`
	Date        time.Time  `json:"date"`        // meeting day, midnight UTC
	StartMinute int        `json:"startMinute"` // minutes since midnight, 15-minute aligned
	PriceCents  int64      `json:"priceCents"`
	Tier        Tier       `json:"tier"`
	Status      SlotStatus `json:"status"`
	RotationID  string     `json:"rotationId"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
}

// StartClock renders the start minute as HH:MM:SS.
func (s AvailabilitySlot) StartClock() string {
	return ClockString(s.StartMinute)
}

// Overlaps reports whether two slots on the same calendar day have
// intersecting [start, start+duration) intervals. Slots on different days
// never overlap.
func (s AvailabilitySlot) Overlaps(other AvailabilitySlot) bool {
	if !sameDay(s.Date, other.Date) {
		return false
	}
	aStart, aEnd := s.StartMinute, s.StartMinute+int(s.Duration)
	bStart, bEnd := other.StartMinute, other.StartMinute+int(other.Duration)
	return aStart < bEnd && bStart < aEnd
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ClockString converts minutes-since-midnight to HH:MM:SS.
func ClockString(minute int) string {
	return fmt.Sprintf("%02d:%02d:00", minute/60, minute%60)
}

// MinuteOfDay parses HH:MM or HH:MM:SS into minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(clock, "%d:%d:%d", &h, &m, &s); err != nil {
		if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse clock %q: %w", clock, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return h*60 + m, nil
}

// CityCooldown temporarily excludes a (profile, city, country) triple from
// generation until End passes.
type CityCooldown struct {
	ProfileID string    `json:"profileId"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// ActiveAt reports whether the cooldown still excludes its city at t.
func (c CityCooldown) ActiveAt(t time.Time) bool {
	return c.End.After(t)
}

// PriceKey addresses one entry of a profile's price list.
type PriceKey struct {
	Channel  Channel
	Duration Duration
}

// Profile is the read-only projection of a celebrity the engine needs.
// The engine never mutates profiles.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	HomeCountry string
	Tier        Tier
	Prices      map[PriceKey]int64
}

// Price returns the price in minor currency units for a (channel, duration)
// pair. ok is false when the profile has no usable price for the pair.
func (p Profile) Price(ch Channel, d Duration) (int64, bool) {
	v, ok := p.Prices[PriceKey{Channel: ch, Duration: d}]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// HomeCountry extracts the country from a free-form "City, Region, Country"
// location string; the last comma-separated part is taken as the country.
func HomeCountry(location string) string {
	if location == "" {
		return ""
	}
	parts := strings.Split(location, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// ChannelResult is the outcome of generating one (profile, channel) pair.
type ChannelResult struct {
	ProfileID        string  `json:"profileId"`
	ProfileName      string  `json:"profileName,omitempty"`
	Tier             Tier    `json:"tier"`
	Channel          Channel `json:"channel"`
	SlotsGenerated   int     `json:"slotsGenerated"`
	SlotsSkipped     int     `json:"slotsSkipped"`
	SlotsIgnored     int     `json:"slotsIgnored"`
	CitiesUsed       int     `json:"citiesUsed"`
	CitiesInCooldown int     `json:"citiesInCooldown"`
}

// TierTotals aggregates channel results for one tier. SlotsIgnored counts
// inserts dropped on a natural-key conflict; CitiesUsed and CitiesInCooldown
// sum per-channel counts, so one city may be counted once per channel.
type TierTotals struct {
	Profiles         int `json:"profiles"`
	SlotsGenerated   int `json:"slotsGenerated"`
	SlotsSkipped     int `json:"slotsSkipped"`
	SlotsIgnored     int `json:"slotsIgnored"`
	CitiesUsed       int `json:"citiesUsed"`
	CitiesInCooldown int `json:"citiesInCooldown"`
}

// Add folds one channel result into the totals.
func (t *TierTotals) Add(r ChannelResult) {
	t.SlotsGenerated += r.SlotsGenerated
	t.SlotsSkipped += r.SlotsSkipped
	t.SlotsIgnored += r.SlotsIgnored
	t.CitiesUsed += r.CitiesUsed
	t.CitiesInCooldown += r.CitiesInCooldown
}

// RunSummary is the structured report returned by one rotation run.
type RunSummary struct {
	RunID             uuid.UUID            `json:"runId"`
	RotationID        string               `json:"rotationId"`
	StartedAt         time.Time            `json:"startedAt"`
	ProfilesProcessed int                  `json:"profilesProcessed"`
	SlotsGenerated    int                  `json:"slotsGenerated"`
	SlotsSkipped      int                  `json:"slotsSkipped"`
	SlotsIgnored      int                  `json:"slotsIgnored"`
	CitiesUsed        int                  `json:"citiesUsed"`
	CitiesInCooldown  int                  `json:"citiesInCooldown"`
	SlotsExpired      int64                `json:"slotsExpired"`
	CooldownsRemoved  int64                `json:"cooldownsRemoved"`
	SlotsArchived     int                  `json:"slotsArchived"`
	PerTier           map[Tier]*TierTotals `json:"perTier"`
	DurationSeconds   float64              `json:"durationSeconds"`
	Errors            []string             `json:"errors"`
}

// AvailabilityStats is a point-in-time inventory snapshot.
type AvailabilityStats struct {
	ActiveSlots     int64 `json:"activeSlots"`
	BookedSlots     int64 `json:"bookedSlots"`
	ExpiredSlots    int64 `json:"expiredSlots"`
	ActiveCooldowns int64 `json:"activeCooldowns"`
}
