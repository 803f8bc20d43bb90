package rotation_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/starrymeet/availability/internal/models"
	"github.com/starrymeet/availability/internal/rotation"
	"github.com/starrymeet/availability/internal/store"
)

var frozen = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func testProfile(id string, tier models.Tier) models.Profile {
	prices := map[models.PriceKey]int64{}
	for _, ch := range models.Channels {
		for _, d := range []models.Duration{models.Duration15, models.Duration30, models.Duration60} {
			prices[models.PriceKey{Channel: ch, Duration: d}] = 750_000
		}
	}
	return models.Profile{
		ID:          id,
		Username:    id,
		DisplayName: "Profile " + id,
		HomeCountry: "France",
		Tier:        tier,
		Prices:      prices,
	}
}

func testDeps(mem *store.MemoryStore, seed int64) rotation.Deps {
	return rotation.Deps{
		Store:  mem,
		Logger: zap.NewNop(),
		Clock:  func() time.Time { return frozen },
		Rand:   rand.New(rand.NewSource(seed)),
		Sleep:  func(time.Duration) {},
	}
}

func TestRunGeneratesAndTracksCooldowns(t *testing.T) {
	mem := store.NewMemoryStore()
	// Tier D holds back at most 5 percent, so generation always produces
	// candidates for both channels.
	mem.AddProfile(testProfile("celeb-1", models.TierD))

	runner := rotation.New(testDeps(mem, 42))
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2025-06-W2", summary.RotationID)
	assert.Equal(t, 1, summary.ProfilesProcessed)
	assert.Positive(t, summary.SlotsGenerated)
	assert.Empty(t, summary.Errors)
	require.Contains(t, summary.PerTier, models.TierD)
	assert.Equal(t, summary.SlotsGenerated, summary.PerTier[models.TierD].SlotsGenerated)

	slots := mem.Slots()
	require.Len(t, slots, summary.SlotsGenerated)
	for _, slot := range slots {
		assert.Equal(t, models.StatusActive, slot.Status)
		assert.Equal(t, "2025-06-W2", slot.RotationID)
		assert.NotEqual(t, "France", slot.Country, "home country excluded from rotation")
		assert.Positive(t, slot.PriceCents)
		assert.Equal(t, slot.Date.AddDate(0, 0, 1), slot.ExpiresAt)
	}
	// Shared calendar: no two slots for the profile may overlap, physical
	// and virtual alike.
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			assert.False(t, slots[i].Overlaps(slots[j]),
				"slot %d and %d overlap", slots[i].ID, slots[j].ID)
		}
	}

	cooldowns := mem.Cooldowns()
	assert.NotEmpty(t, cooldowns, "cities used must enter cooldown")
	for _, cd := range cooldowns {
		assert.Equal(t, "celeb-1", cd.ProfileID)
		assert.True(t, cd.End.After(frozen))
	}
}

func TestRunSweepsBeforeGenerating(t *testing.T) {
	mem := store.NewMemoryStore()

	stale := models.AvailabilitySlot{
		ProfileID: "celeb-1", Channel: models.ChannelVirtual, Duration: models.Duration30,
		City: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo",
		Date:       frozen.AddDate(0, 0, -3).Truncate(24 * time.Hour),
		PriceCents: 500_000, Tier: models.TierD, Status: models.StatusActive,
		RotationID: "2025-06-W1", ExpiresAt: frozen.AddDate(0, 0, -2),
	}
	_, err := mem.InsertSlots(context.Background(), []models.AvailabilitySlot{stale})
	require.NoError(t, err)
	require.NoError(t, mem.UpsertCooldown(context.Background(), models.CityCooldown{
		ProfileID: "celeb-1", City: "Tokyo", Country: "Japan",
		Start: frozen.AddDate(0, -6, 0), End: frozen.AddDate(0, -2, 0),
	}))

	runner := rotation.New(testDeps(mem, 1))
	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.SlotsExpired)
	assert.Equal(t, int64(1), summary.CooldownsRemoved)
}

func TestRunBatchesWithDelay(t *testing.T) {
	mem := store.NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		mem.AddProfile(testProfile(id, models.TierD))
	}

	var sleeps []time.Duration
	deps := testDeps(mem, 7)
	deps.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	deps.Config = rotation.Config{BatchSize: 1, BatchDelay: 5 * time.Second}

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.ProfilesProcessed)
	require.Len(t, sleeps, 2, "delay between batches, not after the last")
	for _, d := range sleeps {
		assert.Equal(t, 5*time.Second, d)
	}
}

// insertFailingStore fails InsertSlots for one profile.
type insertFailingStore struct {
	store.Store
	failFor string
}

func (s *insertFailingStore) InsertSlots(ctx context.Context, slots []models.AvailabilitySlot) (int, error) {
	if len(slots) > 0 && slots[0].ProfileID == s.failFor {
		return 0, errors.New("connection reset")
	}
	return s.Store.InsertSlots(ctx, slots)
}

func TestRunIsolatesProfileFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddProfile(testProfile("good", models.TierD))
	mem.AddProfile(testProfile("bad", models.TierD))

	deps := testDeps(mem, 11)
	deps.Store = &insertFailingStore{Store: mem, failFor: "bad"}

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err, "a single failing profile must not abort the run")

	assert.Equal(t, 2, summary.ProfilesProcessed)
	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0], "profile bad")

	for _, slot := range mem.Slots() {
		assert.Equal(t, "good", slot.ProfileID)
	}
}

type pingFailingStore struct {
	store.Store
}

func (s *pingFailingStore) Ping(ctx context.Context) error {
	return errors.New("no route to host")
}

func TestRunAbortsWhenStoreUnreachable(t *testing.T) {
	deps := testDeps(store.NewMemoryStore(), 1)
	deps.Store = &pingFailingStore{Store: store.NewMemoryStore()}

	_, err := rotation.New(deps).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistence unreachable")
}

type recordingArchiver struct {
	slots []models.AvailabilitySlot
	err   error
}

func (a *recordingArchiver) ArchiveSlots(ctx context.Context, rotationID string, day time.Time, slots []models.AvailabilitySlot) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.slots = append(a.slots, slots...)
	return "availability/2025/06/10/" + rotationID + ".json", nil
}

func staleExpiredSlot() models.AvailabilitySlot {
	return models.AvailabilitySlot{
		ProfileID: "celeb-old", Channel: models.ChannelVirtual, Duration: models.Duration30,
		City: "Tokyo", Country: "Japan", Timezone: "Asia/Tokyo",
		Date:       frozen.AddDate(0, 0, -40).Truncate(24 * time.Hour),
		PriceCents: 500_000, Tier: models.TierD, Status: models.StatusActive,
		RotationID: "2025-05-W1", ExpiresAt: frozen.AddDate(0, 0, -39),
	}
}

func TestRunArchivesBeforePurging(t *testing.T) {
	mem := store.NewMemoryStore()
	_, err := mem.InsertSlots(context.Background(), []models.AvailabilitySlot{staleExpiredSlot()})
	require.NoError(t, err)

	archiver := &recordingArchiver{}
	deps := testDeps(mem, 1)
	deps.Archiver = archiver

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, archiver.slots, 1)
	assert.Equal(t, "celeb-old", archiver.slots[0].ProfileID)
	assert.Equal(t, 1, summary.SlotsArchived)
	assert.Empty(t, mem.Slots(), "purged after a successful archive")
}

func TestRunKeepsSlotsWhenArchiveFails(t *testing.T) {
	mem := store.NewMemoryStore()
	_, err := mem.InsertSlots(context.Background(), []models.AvailabilitySlot{staleExpiredSlot()})
	require.NoError(t, err)

	deps := testDeps(mem, 1)
	deps.Archiver = &recordingArchiver{err: errors.New("bucket unavailable")}

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0], "retention: archive")
	assert.Zero(t, summary.SlotsArchived)
	assert.Len(t, mem.Slots(), 1, "purge must be skipped when archiving fails")
}

type recordingPublisher struct {
	published []models.RunSummary
	err       error
}

func (p *recordingPublisher) PublishSummary(ctx context.Context, summary models.RunSummary) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, summary)
	return nil
}

func TestRunPublishesSummary(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddProfile(testProfile("celeb-1", models.TierD))

	publisher := &recordingPublisher{}
	deps := testDeps(mem, 3)
	deps.Publisher = publisher

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, summary.RotationID, publisher.published[0].RotationID)
}

func TestRunRecordsPublishFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	deps := testDeps(mem, 3)
	deps.Publisher = &recordingPublisher{err: errors.New("broker down")}

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err, "a reporting failure must not fail the run")
	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0], "publish summary")
}

// blockingStore parks ProfilesByTier until released so a run can be held
// mid-flight.
type blockingStore struct {
	store.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) ProfilesByTier(ctx context.Context, tier models.Tier) ([]models.Profile, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return s.Store.ProfilesByTier(ctx, tier)
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	mem := store.NewMemoryStore()
	blocked := &blockingStore{Store: mem, entered: make(chan struct{}, 1), release: make(chan struct{})}
	deps := testDeps(mem, 1)
	deps.Store = blocked
	runner := rotation.New(deps)

	done := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		done <- err
	}()

	<-blocked.entered
	_, err := runner.Run(context.Background())
	require.ErrorIs(t, err, rotation.ErrRunInProgress)

	close(blocked.release)
	require.NoError(t, <-done)

	// The runner accepts a new run once the active one finishes.
	_, err = runner.Run(context.Background())
	require.NoError(t, err)
}

func TestRunAggregatesCityCounts(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddProfile(testProfile("celeb-1", models.TierD))
	runner := rotation.New(testDeps(mem, 42))

	first, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, first.CitiesUsed)
	assert.Zero(t, first.CitiesInCooldown, "no cooldowns before the first rotation")
	assert.Zero(t, first.SlotsIgnored)
	require.Contains(t, first.PerTier, models.TierD)
	assert.Equal(t, first.CitiesUsed, first.PerTier[models.TierD].CitiesUsed)

	second, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, second.CitiesInCooldown, "cities from the first rotation are cooling down")
	assert.Equal(t, second.CitiesInCooldown, second.PerTier[models.TierD].CitiesInCooldown)
}

// conflictReportingStore reports one slot per insert as conflict-ignored.
type conflictReportingStore struct {
	store.Store
}

func (s *conflictReportingStore) InsertSlots(ctx context.Context, slots []models.AvailabilitySlot) (int, error) {
	n, err := s.Store.InsertSlots(ctx, slots)
	if err != nil || n == 0 {
		return n, err
	}
	return n - 1, nil
}

func TestRunCountsConflictIgnoredSlots(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.AddProfile(testProfile("celeb-1", models.TierD))
	deps := testDeps(mem, 42)
	deps.Store = &conflictReportingStore{Store: mem}

	summary, err := rotation.New(deps).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SlotsIgnored, "one conflict per channel")
	require.Contains(t, summary.PerTier, models.TierD)
	assert.Equal(t, summary.SlotsIgnored, summary.PerTier[models.TierD].SlotsIgnored)
}
