package replay_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/bgn"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/replay"
	"github.com/trovebot/trove/search"
)

// evaluated solves a known-live position and returns the record inputs.
func evaluated(t *testing.T, seq int) *replay.Record {
	t.Helper()
	is := is.New(t)
	p, err := bgn.Parse("RRSR/TEAE/SSAS/ETRT")
	is.NoErr(err)
	solver := search.NewSolver(bag.Default(7),
		equity.StandardCalculators(equity.DefaultWeights(), nil))
	ev, err := solver.SelectMove(context.Background(), p.State)
	is.NoErr(err)
	rec := replay.NewRecord("sess", seq, p.State, ev)
	// fix the timestamp at millisecond precision so round trips through
	// both sinks compare exactly
	rec.When = time.Date(2026, 8, 23, 10, 30, 0, int(250*time.Millisecond), time.UTC)
	return rec
}

func TestNewRecord(t *testing.T) {
	is := is.New(t)
	rec := evaluated(t, 1)
	is.Equal(rec.SessionID, "sess")
	is.Equal(rec.Seq, 1)
	is.Equal(rec.Board, "RRSR/TEAE/SSAS/ETRT")
	is.True(rec.Move != "")
	is.True(rec.Final != "")
	is.True(len(rec.Steps) >= 1) // a legal swap always cascades at least once
	is.Equal(len(rec.Rationale), 3)
	is.Equal(rec.Rationale[0].Term, "raw")
	is.Equal(rec.Rationale[1].Term, "mobility")
	is.Equal(rec.Rationale[2].Term, "risk")
}

func TestYAMLStreamRoundTrip(t *testing.T) {
	is := is.New(t)
	rec1 := evaluated(t, 1)
	rec2 := evaluated(t, 2)

	var buf bytes.Buffer
	stream := replay.NewYAMLStream(&buf)
	is.NoErr(stream.Append(rec1))
	is.NoErr(stream.Append(rec2))

	// appended single-item lists concatenate into one parseable list
	recs, err := replay.ReadYAMLStream(&buf)
	is.NoErr(err)
	is.Equal(len(recs), 2)
	is.True(recs[0].When.Equal(rec1.When))
	got, want := recs[0], *rec1
	got.When, want.When = time.Time{}, time.Time{}
	is.Equal(got, want)
	is.Equal(recs[1].Seq, 2)
}

func TestStoreRoundTrip(t *testing.T) {
	is := is.New(t)
	rec1 := evaluated(t, 1)
	rec2 := evaluated(t, 2)

	store, err := replay.OpenStore(filepath.Join(t.TempDir(), "replay.db"))
	is.NoErr(err)
	defer store.Close()

	is.NoErr(store.Append(rec1))
	is.NoErr(store.Append(rec2))
	// re-appending the same (session, seq) is a no-op
	is.NoErr(store.Append(rec1))

	ctx := context.Background()
	sessions, err := store.Sessions(ctx)
	is.NoErr(err)
	is.Equal(sessions, []string{"sess"})

	recs, err := store.Evaluations(ctx, "sess")
	is.NoErr(err)
	is.Equal(len(recs), 2)
	is.Equal(recs[0], *rec1)
	is.Equal(recs[1], *rec2)
}

func TestLoggerFansOut(t *testing.T) {
	is := is.New(t)
	rec := evaluated(t, 1)

	var buf bytes.Buffer
	store, err := replay.OpenStore(filepath.Join(t.TempDir(), "replay.db"))
	is.NoErr(err)

	logger := replay.NewLogger(replay.NewYAMLStream(&buf), store)
	is.NoErr(logger.Log(rec))

	recs, err := replay.ReadYAMLStream(&buf)
	is.NoErr(err)
	is.Equal(len(recs), 1)

	stored, err := store.Evaluations(context.Background(), "sess")
	is.NoErr(err)
	is.Equal(len(stored), 1)

	is.NoErr(logger.Close())
}
