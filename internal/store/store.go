package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/policy"
)

// Store is the persistence surface the rotation engine depends on. The
// availability and city_cooldown tables are owned here; profiles are read
// only.
type Store interface {
	ProfilesByTier(ctx context.Context, tier models.Tier) ([]models.Profile, error)
	ActiveCooldowns(ctx context.Context, profileID string, now time.Time) ([]models.CityCooldown, error)
	// UpsertCooldown inserts or extends a cooldown. An existing active row is
	// never shortened: the later end wins.
	UpsertCooldown(ctx context.Context, cd models.CityCooldown) error
	// ActiveSlots lists a profile's active slots; a zero date means all dates.
	ActiveSlots(ctx context.Context, profileID string, date time.Time) ([]models.AvailabilitySlot, error)
	// InsertSlots inserts slots, ignoring natural-key conflicts
	// (profile, date, time, channel). Returns the number actually inserted.
	InsertSlots(ctx context.Context, slots []models.AvailabilitySlot) (int, error)
	ExpireSlotsPast(ctx context.Context, now time.Time) (int64, error)
	DeleteCooldownsPast(ctx context.Context, now time.Time) (int64, error)
	ListExpiredSlotsBefore(ctx context.Context, cutoff time.Time) ([]models.AvailabilitySlot, error)
	PurgeExpiredSlotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (models.AvailabilityStats, error)
	Ping(ctx context.Context) error
}

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) ProfilesByTier(ctx context.Context, tier models.Tier) ([]models.Profile, error) {
	min, max := policy.PriceBand(tier)
	query := `
		SELECT id, username, display_name, location,
		       quick_meet_price_cents, standard_meet_price_cents, premium_meet_price_cents,
		       virtual_quick_meet_price_cents, virtual_standard_meet_price_cents, virtual_premium_meet_price_cents
		FROM profiles
		WHERE standard_meet_price_cents >= $1
		  AND ($2 < 0 OR standard_meet_price_cents <= $2)
		  AND is_active = true
		ORDER BY standard_meet_price_cents DESC
	`
	rows, err := s.db.QueryContext(ctx, query, min, max)
	if err != nil {
		return nil, fmt.Errorf("query profiles by tier: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var (
			p        models.Profile
			location sql.NullString
			prices   [6]sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &location,
			&prices[0], &prices[1], &prices[2], &prices[3], &prices[4], &prices[5]); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.HomeCountry = models.HomeCountry(location.String)
		p.Tier = tier
		p.Prices = priceList(prices)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

var priceColumns = []models.PriceKey{
	{Channel: models.ChannelPhysical, Duration: models.Duration15},
	{Channel: models.ChannelPhysical, Duration: models.Duration30},
	{Channel: models.ChannelPhysical, Duration: models.Duration60},
	{Channel: models.ChannelVirtual, Duration: models.Duration15},
	{Channel: models.ChannelVirtual, Duration: models.Duration30},
	{Channel: models.ChannelVirtual, Duration: models.Duration60},
}

func priceList(values [6]sql.NullInt64) map[models.PriceKey]int64 {
	prices := make(map[models.PriceKey]int64, len(priceColumns))
	for i, key := range priceColumns {
		if values[i].Valid && values[i].Int64 > 0 {
			prices[key] = values[i].Int64
		}
	}
	return prices
}

func (s *PGStore) ActiveCooldowns(ctx context.Context, profileID string, now time.Time) ([]models.CityCooldown, error) {
	query := `
		SELECT profile_id, city, country, cooldown_start, cooldown_end
		FROM city_cooldown
		WHERE profile_id = $1 AND cooldown_end > $2
	`
	rows, err := s.db.QueryContext(ctx, query, profileID, now)
	if err != nil {
		return nil, fmt.Errorf("query active cooldowns: %w", err)
	}
	defer rows.Close()

	var cooldowns []models.CityCooldown
	for rows.Next() {
		var cd models.CityCooldown
		if err := rows.Scan(&cd.ProfileID, &cd.City, &cd.Country, &cd.Start, &cd.End); err != nil {
			return nil, fmt.Errorf("scan cooldown: %w", err)
		}
		cooldowns = append(cooldowns, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cooldowns: %w", err)
	}
	return cooldowns, nil
}

func (s *PGStore) UpsertCooldown(ctx context.Context, cd models.CityCooldown) error {
	query := `
		INSERT INTO city_cooldown (profile_id, city, country, cooldown_start, cooldown_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, city, country)
		DO UPDATE SET cooldown_end = GREATEST(city_cooldown.cooldown_end, EXCLUDED.cooldown_end)
	`
	if _, err := s.db.ExecContext(ctx, query, cd.ProfileID, cd.City, cd.Country, cd.Start, cd.End); err != nil {
		return fmt.Errorf("upsert cooldown: %w", err)
	}
	return nil
}

func (s *PGStore) ActiveSlots(ctx context.Context, profileID string, date time.Time) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT id, profile_id, channel, duration, city, country, timezone,
		       date, time, price_cents, tier, status, rotation_id, expires_at, created_at
		FROM availability
		WHERE profile_id = $1 AND status = 'active'
		  AND ($2::date IS NULL OR date = $2)
	`
	var dateArg interface{}
	if !date.IsZero() {
		dateArg = date
	}
	rows, err := s.db.QueryContext(ctx, query, profileID, dateArg)
	if err != nil {
		return nil, fmt.Errorf("query active slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	for rows.Next() {
		var (
			slot  models.AvailabilitySlot
			clock string
		)
		if err := rows.Scan(&slot.ID, &slot.ProfileID, &slot.Channel, &slot.Duration,
			&slot.City, &slot.Country, &slot.Timezone, &slot.Date, &clock,
			&slot.PriceCents, &slot.Tier, &slot.Status, &slot.RotationID, &slot.ExpiresAt,
			&slot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if !slot.Tier.Valid() {
			return nil, fmt.Errorf("slot %d: unknown tier %q", slot.ID, slot.Tier)
		}
		minute, err := models.MinuteOfDay(clock)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot.ID, err)
		}
		slot.StartMinute = minute
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

func (s *PGStore) InsertSlots(ctx context.Context, slots []models.AvailabilitySlot) (int, error) {
	query := `
		INSERT INTO availability (profile_id, channel, duration, city, country, timezone,
		                          date, time, price_cents, tier, status, rotation_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (profile_id, date, time, channel) DO NOTHING
	`
	inserted := 0
	for _, slot := range slots {
		res, err := s.db.ExecContext(ctx, query, slot.ProfileID, slot.Channel, slot.Duration,
			slot.City, slot.Country, slot.Timezone, slot.Date, slot.StartClock(),
			slot.PriceCents, slot.Tier, slot.Status, slot.RotationID, slot.ExpiresAt)
		if err != nil {
			return inserted, fmt.Errorf("insert slot: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

func (s *PGStore) ExpireSlotsPast(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE availability SET status = 'expired' WHERE status = 'active' AND expires_at < $1`
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire slots: %w", err)
	}
	return res.RowsAffected()
}

func (s *PGStore) DeleteCooldownsPast(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM city_cooldown WHERE cooldown_end < $1`
	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("delete cooldowns: %w", err)
	}
	return res.RowsAffected()
}

func (s *PGStore) ListExpiredSlotsBefore(ctx context.Context, cutoff time.Time) ([]models.AvailabilitySlot, error) {
	query := `
		SELECT id, profile_id, channel, duration, city, country, timezone,
		       date, time, price_cents, tier, status, rotation_id, expires_at, created_at
		FROM availability
		WHERE status = 'expired' AND expires_at < $1
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (s *PGStore) PurgeExpiredSlotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM availability WHERE status = 'expired' AND expires_at < $1`
	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired slots: %w", err)
	}
	return res.RowsAffected()
}

func (s *PGStore) Stats(ctx context.Context) (models.AvailabilityStats, error) {
	var stats models.AvailabilityStats
	slotQuery := `
		SELECT COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'booked'),
		       COUNT(*) FILTER (WHERE status = 'expired')
		FROM availability
	`
	if err := s.db.QueryRowContext(ctx, slotQuery).Scan(&stats.ActiveSlots, &stats.BookedSlots, &stats.ExpiredSlots); err != nil {
		return models.AvailabilityStats{}, fmt.Errorf("slot stats: %w", err)
	}
	cooldownQuery := `SELECT COUNT(*) FROM city_cooldown WHERE cooldown_end > NOW()`
	if err := s.db.QueryRowContext(ctx, cooldownQuery).Scan(&stats.ActiveCooldowns); err != nil {
		return models.AvailabilityStats{}, fmt.Errorf("cooldown stats: %w", err)
	}
	return stats, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
