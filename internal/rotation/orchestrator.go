// Package rotation drives one full availability generation cycle: sweep
// stale state, then generate per tier in batches, then report.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/starrymeet/availability/internal/citypool"
	"github.com/starrymeet/availability/internal/generator"
	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/policy"
	"github.com/starrymeet/availability/internal/store"
)

// Publisher emits the run summary to an event stream.
type Publisher interface {
	PublishSummary(ctx context.Context, summary models.RunSummary) error
}

// Archiver uploads slots leaving the store at the end of their retention.
type Archiver interface {
	ArchiveSlots(ctx context.Context, rotationID string, day time.Time, slots []models.AvailabilitySlot) (string, error)
}

type Config struct {
	BatchSize          int
	BatchDelay         time.Duration
	RetentionDays      int
	PerChannelCalendar bool
}

// Deps wires a Runner. Store and Logger are required; everything else has a
// production default, and tests override Clock, Rand and Sleep.
type Deps struct {
	Store     store.Store
	Logger    *zap.Logger
	Config    Config
	CityPool  []models.City
	Clock     func() time.Time
	Rand      *rand.Rand
	Sleep     func(time.Duration)
	Publisher Publisher
	Archiver  Archiver
}

// ErrRunInProgress is returned when Run is called while another run holds
// the runner.
var ErrRunInProgress = errors.New("rotation run already in progress")

// Runner executes rotation cycles. Runs are mutually exclusive: the shared
// rand source and the read-calendar-then-insert cycle per profile are only
// correct single-threaded, so a second concurrent Run is rejected.
type Runner struct {
	mu        sync.Mutex
	store     store.Store
	tracker   *citypool.Tracker
	logger    *zap.Logger
	cfg       Config
	clock     func() time.Time
	rng       *rand.Rand
	sleep     func(time.Duration)
	publisher Publisher
	archiver  Archiver
}

func New(deps Deps) *Runner {
	cfg := deps.Config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = time.Second
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	pool := deps.CityPool
	if pool == nil {
		pool = policy.GlobalCityPool
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:     deps.Store,
		tracker:   citypool.New(pool, deps.Store),
		logger:    logger,
		cfg:       cfg,
		clock:     clock,
		rng:       rng,
		sleep:     sleep,
		publisher: deps.Publisher,
		archiver:  deps.Archiver,
	}
}

// Run executes one full cycle and returns its summary. A non-nil error means
// the run never started (another run in flight, or a systemic failure before
// generation); per-profile failures land in summary.Errors and do not abort
// the run.
func (r *Runner) Run(ctx context.Context) (models.RunSummary, error) {
	if !r.mu.TryLock() {
		return models.RunSummary{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	started := r.clock()
	summary := models.RunSummary{
		RunID:      uuid.New(),
		RotationID: generator.RotationID(started),
		StartedAt:  started,
		PerTier:    map[models.Tier]*models.TierTotals{},
		Errors:     []string{},
	}

	if err := r.store.Ping(ctx); err != nil {
		return summary, fmt.Errorf("persistence unreachable: %w", err)
	}

	expired, err := r.store.ExpireSlotsPast(ctx, started)
	if err != nil {
		return summary, fmt.Errorf("expire stale slots: %w", err)
	}
	removed, err := r.store.DeleteCooldownsPast(ctx, started)
	if err != nil {
		return summary, fmt.Errorf("delete stale cooldowns: %w", err)
	}
	summary.SlotsExpired = expired
	summary.CooldownsRemoved = removed
	r.logger.Info("sweep complete",
		zap.Int64("slotsExpired", expired),
		zap.Int64("cooldownsRemoved", removed))

	r.enforceRetention(ctx, started, &summary)

	for _, tier := range models.Tiers {
		r.runTier(ctx, tier, &summary)
	}

	summary.DurationSeconds = r.clock().Sub(started).Seconds()

	if r.publisher != nil {
		if err := r.publisher.PublishSummary(ctx, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("publish summary: %v", err))
			r.logger.Warn("summary publish failed", zap.Error(err))
		}
	}

	r.logger.Info("rotation complete",
		zap.String("rotationId", summary.RotationID),
		zap.Int("profiles", summary.ProfilesProcessed),
		zap.Int("slotsGenerated", summary.SlotsGenerated),
		zap.Int("slotsSkipped", summary.SlotsSkipped),
		zap.Int("slotsIgnored", summary.SlotsIgnored),
		zap.Int("citiesUsed", summary.CitiesUsed),
		zap.Float64("durationSeconds", summary.DurationSeconds),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}

func (r *Runner) runTier(ctx context.Context, tier models.Tier, summary *models.RunSummary) {
	totals := &models.TierTotals{}
	summary.PerTier[tier] = totals

	profiles, err := r.store.ProfilesByTier(ctx, tier)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("tier %s: fetch profiles: %v", tier, err))
		r.logger.Warn("tier fetch failed", zap.String("tier", string(tier)), zap.Error(err))
		return
	}
	if len(profiles) == 0 {
		return
	}
	r.logger.Info("processing tier",
		zap.String("tier", string(tier)),
		zap.Int("profiles", len(profiles)))

	for start := 0; start < len(profiles); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(profiles) {
			end = len(profiles)
		}
		for _, profile := range profiles[start:end] {
			totals.Profiles++
			summary.ProfilesProcessed++
			if err := r.generateForProfile(ctx, profile, summary.RotationID, totals, summary); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("profile %s: %v", profile.ID, err))
				r.logger.Warn("profile generation failed",
					zap.String("profileId", profile.ID),
					zap.Error(err))
			}
		}
		// Backpressure on the persistence layer, not a correctness control.
		if end < len(profiles) {
			r.sleep(r.cfg.BatchDelay)
		}
	}
}

func (r *Runner) generateForProfile(ctx context.Context, profile models.Profile, rotationID string, totals *models.TierTotals, summary *models.RunSummary) error {
	existing, err := r.store.ActiveSlots(ctx, profile.ID, time.Time{})
	if err != nil {
		return fmt.Errorf("list active slots: %w", err)
	}

	for _, channel := range models.Channels {
		now := r.clock()
		available, inCooldown, err := r.tracker.AvailableCities(ctx, profile, now)
		if err != nil {
			return fmt.Errorf("%s: available cities: %w", channel, err)
		}

		result := generator.Generate(generator.Request{
			Profile:            profile,
			Channel:            channel,
			RotationID:         rotationID,
			Available:          available,
			Existing:           existing,
			PerChannelCalendar: r.cfg.PerChannelCalendar,
		}, r.rng, now)

		chResult := models.ChannelResult{
			ProfileID:        profile.ID,
			ProfileName:      profile.DisplayName,
			Tier:             profile.Tier,
			Channel:          channel,
			SlotsGenerated:   result.Generated,
			SlotsSkipped:     result.Skipped,
			CitiesUsed:       len(result.CitiesUsed),
			CitiesInCooldown: inCooldown,
		}

		if len(result.Slots) > 0 {
			inserted, err := r.store.InsertSlots(ctx, result.Slots)
			if err != nil {
				return fmt.Errorf("%s: insert slots: %w", channel, err)
			}
			chResult.SlotsIgnored = len(result.Slots) - inserted
			if err := r.tracker.CommitCooldowns(ctx, profile.ID, result.CitiesUsed, now, r.rng); err != nil {
				return fmt.Errorf("%s: commit cooldowns: %w", channel, err)
			}
			existing = append(existing, result.Slots...)
		}

		totals.Add(chResult)
		summary.SlotsGenerated += chResult.SlotsGenerated
		summary.SlotsSkipped += chResult.SlotsSkipped
		summary.SlotsIgnored += chResult.SlotsIgnored
		summary.CitiesUsed += chResult.CitiesUsed
		summary.CitiesInCooldown += chResult.CitiesInCooldown
		r.logger.Debug("channel generated",
			zap.String("profileId", chResult.ProfileID),
			zap.String("channel", string(chResult.Channel)),
			zap.Int("generated", chResult.SlotsGenerated),
			zap.Int("skipped", chResult.SlotsSkipped),
			zap.Int("ignored", chResult.SlotsIgnored),
			zap.Int("citiesUsed", chResult.CitiesUsed),
			zap.Int("citiesInCooldown", chResult.CitiesInCooldown))
	}
	return nil
}

// enforceRetention archives and purges slots expired longer than the
// retention window. Failures are recorded, never fatal; when archiving fails
// the purge is skipped so nothing is lost.
func (r *Runner) enforceRetention(ctx context.Context, now time.Time, summary *models.RunSummary) {
	cutoff := now.AddDate(0, 0, -r.cfg.RetentionDays)
	stale, err := r.store.ListExpiredSlotsBefore(ctx, cutoff)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("retention: list expired: %v", err))
		return
	}
	if len(stale) == 0 {
		return
	}
	if r.archiver != nil {
		key, err := r.archiver.ArchiveSlots(ctx, summary.RotationID, now, stale)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("retention: archive: %v", err))
			return
		}
		r.logger.Info("expired slots archived", zap.String("key", key), zap.Int("count", len(stale)))
	}
	purged, err := r.store.PurgeExpiredSlotsBefore(ctx, cutoff)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("retention: purge: %v", err))
		return
	}
	summary.SlotsArchived = int(purged)
}
