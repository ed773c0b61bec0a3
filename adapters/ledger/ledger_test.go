package ledger

import (
	"context"
	"testing"
	"time"

	"centerout/domain/core"
	"centerout/domain/trial"
	"centerout/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *AttemptRepository {
	t.Helper()
	db, err := Open(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAttemptRepository(db)
}

func attempt(sid core.SessionID, trialID string, n, target int, typ trial.Type, ok bool) ports.AttemptRecord {
	rec := ports.AttemptRecord{
		SessionID: sid,
		TrialID:   core.TrialID(trialID),
		Attempt:   n,
		Target:    target,
		Type:      typ,
		Direction: trial.Outward,
		Success:   ok,
		EndedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if ok {
		rec.ReactionMs = 240
		rec.MovementMs = 410
	} else {
		rec.Reason = string(trial.LeftStartEarly)
		rec.Overshoots = 1
	}
	return rec
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	first, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer second.Close()

	var version string
	require.NoError(t, second.GetContext(ctx, &version, `SELECT version FROM schema_version`))
	assert.Equal(t, "1.0.0", version)
}

func TestRecordAndListAttempts(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sid := core.SessionID("s-1")

	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-1", 1, 2, trial.Baseline, false)))
	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-1", 2, 2, trial.Baseline, true)))
	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-2", 1, 5, trial.Perturbation, true)))
	require.NoError(t, repo.RecordAttempt(ctx, attempt("s-2", "t-9", 1, 0, trial.Baseline, true)))

	all, err := repo.ListAttempts(ctx, ports.AttemptFilters{SessionID: &sid})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.TrialID("t-1"), all[0].TrialID)
	assert.False(t, all[0].Success)
	assert.Equal(t, string(trial.LeftStartEarly), all[0].Reason)
	assert.Equal(t, core.Millis(240), all[1].ReactionMs)
	assert.True(t, all[1].EndedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	success := true
	typ := trial.Baseline
	filtered, err := repo.ListAttempts(ctx, ports.AttemptFilters{SessionID: &sid, Type: &typ, Success: &success})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 2, filtered[0].Attempt)

	paged, err := repo.ListAttempts(ctx, ports.AttemptFilters{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, core.TrialID("t-2"), paged[0].TrialID)
}

func TestRecordAttemptRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	rec := attempt("s-1", "t-1", 1, 0, trial.Baseline, true)
	require.NoError(t, repo.RecordAttempt(ctx, rec))
	assert.Error(t, repo.RecordAttempt(ctx, rec))
}

func TestTargetTallies(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sid := core.SessionID("s-1")

	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-1", 1, 3, trial.Baseline, false)))
	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-1", 2, 3, trial.Baseline, true)))
	require.NoError(t, repo.RecordAttempt(ctx, attempt(sid, "t-2", 1, 1, trial.Baseline, true)))

	tallies, err := repo.TargetTallies(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, []ports.TargetTally{
		{Target: 1, Attempts: 1, Successes: 1},
		{Target: 3, Attempts: 2, Successes: 1, Overshoots: 1},
	}, tallies)

	empty, err := repo.TargetTallies(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
