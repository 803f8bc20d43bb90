package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/starrymeet/availability/internal/models"
)

// MemoryStore provides an in-memory implementation useful for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[models.Tier][]models.Profile
	slots     []models.AvailabilitySlot
	slotKeys  map[string]struct{}
	cooldowns map[string]models.CityCooldown
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  map[models.Tier][]models.Profile{},
		slotKeys:  map[string]struct{}{},
		cooldowns: map[string]models.CityCooldown{},
		nextID:    1,
	}
}

// AddProfile registers a profile under its tier.
func (m *MemoryStore) AddProfile(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Tier] = append(m.profiles[p.Tier], p)
}

// Slots returns a copy of all stored slots regardless of status.
func (m *MemoryStore) Slots() []models.AvailabilitySlot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AvailabilitySlot(nil), m.slots...)
}

// Cooldowns returns a copy of all stored cooldown rows.
func (m *MemoryStore) Cooldowns() []models.CityCooldown {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.CityCooldown, 0, len(m.cooldowns))
	for _, cd := range m.cooldowns {
		out = append(out, cd)
	}
	return out
}

func slotKey(s models.AvailabilitySlot) string {
	y, mo, d := s.Date.Date()
	return strings.Join([]string{
		s.ProfileID,
		time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		s.StartClock(),
		string(s.Channel),
	}, "|")
}

func cooldownKey(profileID, city, country string) string {
	return strings.ToLower(profileID + "|" + city + "|" + country)
}

func (m *MemoryStore) ProfilesByTier(ctx context.Context, tier models.Tier) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Profile(nil), m.profiles[tier]...), nil
}

func (m *MemoryStore) ActiveCooldowns(ctx context.Context, profileID string, now time.Time) ([]models.CityCooldown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []models.CityCooldown
	for _, cd := range m.cooldowns {
		if cd.ProfileID == profileID && cd.ActiveAt(now) {
			active = append(active, cd)
		}
	}
	return active, nil
}

func (m *MemoryStore) UpsertCooldown(ctx context.Context, cd models.CityCooldown) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cooldownKey(cd.ProfileID, cd.City, cd.Country)
	if existing, ok := m.cooldowns[key]; ok {
		// Extend only: the later end wins, start stays.
		if existing.End.After(cd.End) {
			return nil
		}
		existing.End = cd.End
		m.cooldowns[key] = existing
		return nil
	}
	m.cooldowns[key] = cd
	return nil
}

func (m *MemoryStore) ActiveSlots(ctx context.Context, profileID string, date time.Time) ([]models.AvailabilitySlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []models.AvailabilitySlot
	for _, s := range m.slots {
		if s.ProfileID != profileID || s.Status != models.StatusActive {
			continue
		}
		if !date.IsZero() && !s.Date.Equal(date) {
			continue
		}
		active = append(active, s)
	}
	return active, nil
}

func (m *MemoryStore) InsertSlots(ctx context.Context, slots []models.AvailabilitySlot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, s := range slots {
		key := slotKey(s)
		if _, exists := m.slotKeys[key]; exists {
			continue
		}
		s.ID = m.nextID
		s.CreatedAt = time.Now().UTC()
		m.nextID++
		m.slotKeys[key] = struct{}{}
		m.slots = append(m.slots, s)
		inserted++
	}
	return inserted, nil
}

func (m *MemoryStore) ExpireSlotsPast(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired int64
	for i, s := range m.slots {
		if s.Status == models.StatusActive && s.ExpiresAt.Before(now) {
			m.slots[i].Status = models.StatusExpired
			expired++
		}
	}
	return expired, nil
}

func (m *MemoryStore) DeleteCooldownsPast(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key, cd := range m.cooldowns {
		if cd.End.Before(now) {
			delete(m.cooldowns, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) ListExpiredSlotsBefore(ctx context.Context, cutoff time.Time) ([]models.AvailabilitySlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AvailabilitySlot
	for _, s := range m.slots {
		if s.Status == models.StatusExpired && s.ExpiresAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) PurgeExpiredSlotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	kept := m.slots[:0]
	for _, s := range m.slots {
		if s.Status == models.StatusExpired && s.ExpiresAt.Before(cutoff) {
			delete(m.slotKeys, slotKey(s))
			purged++
			continue
		}
		kept = append(kept, s)
	}
	m.slots = kept
	return purged, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (models.AvailabilityStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats models.AvailabilityStats
	for _, s := range m.slots {
		switch s.Status {
		case models.StatusActive:
			stats.ActiveSlots++
		case models.StatusBooked:
			stats.BookedSlots++
		case models.StatusExpired:
			stats.ExpiredSlots++
		}
	}
	now := time.Now().UTC()
	for _, cd := range m.cooldowns {
		if cd.ActiveAt(now) {
			stats.ActiveCooldowns++
		}
	}
	return stats, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
