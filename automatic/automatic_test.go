package automatic

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/trovebot/trove/config"
	"github.com/trovebot/trove/matcher"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

// playCapped runs one full session and returns the runner plus every
// CSV row it logged.
func playCapped(t *testing.T, seed int64, moveCap int) (*SessionRunner, []string) {
	t.Helper()
	is := is.New(t)
	logchan := make(chan string, moveCap+1)
	r, err := NewSessionRunner(logchan, newTestConfig(), nil)
	is.NoErr(err)
	r.SetMoveCap(moveCap)
	is.NoErr(r.Reset(seed, "session1"))
	is.NoErr(r.playFull(context.Background()))
	close(logchan)
	var rows []string
	for row := range logchan {
		rows = append(rows, row)
	}
	return r, rows
}

func TestDealtBoardIsStable(t *testing.T) {
	is := is.New(t)
	r, err := NewSessionRunner(nil, newTestConfig(), nil)
	is.NoErr(err)
	is.NoErr(r.Reset(99, "s1"))
	st := r.State()
	rows, cols := st.Dims()
	is.Equal(rows, DefaultRows)
	is.Equal(cols, DefaultCols)
	is.Equal(st.Generation(), uint64(0))
	is.True(!matcher.HasMatches(st)) // dealt boards start with no free matches

	is.NoErr(r.Reset(100, "s2"))
	is.True(!st.Equal(r.State())) // a different seed deals a different board
}

func TestSessionIsReplayable(t *testing.T) {
	is := is.New(t)
	a, rowsA := playCapped(t, 42, 5)
	b, rowsB := playCapped(t, 42, 5)
	is.Equal(a.Moves(), b.Moves())
	is.Equal(a.Score(), b.Score())
	is.True(a.State().Equal(b.State()))
	is.Equal(rowsA, rowsB)
}

func TestSessionHonorsMoveCap(t *testing.T) {
	is := is.New(t)
	r, rows := playCapped(t, 7, 3)
	is.True(!r.Playing())
	is.True(r.Moves() <= 3)
	is.Equal(len(rows), r.Moves())
	if r.Moves() > 0 {
		is.True(r.Score() > 0)
	}
}

func TestSeedsRoundTrip(t *testing.T) {
	is := is.New(t)
	seeds := GenerateSeeds(5)
	is.Equal(len(seeds), 5)
	for _, s := range seeds {
		is.True(s > 0)
	}
	path := filepath.Join(t.TempDir(), "seeds.txt")
	is.NoErr(SaveSeeds(seeds, path))
	loaded, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(loaded, seeds)
}

func TestAnalyzeLogFile(t *testing.T) {
	is := is.New(t)
	content := LogHeader +
		"session1,1,r0c0<->r0c1,3.00,3.00,1,3.300,12\n" +
		"session2,1,r1c2<->r2c2,6.00,6.00,2,6.100,10\n" +
		"session1,2,r3c3<->r3c4,4.00,7.00,1,4.200,9\n" +
		"session2,2,r0c5<->r1c5,3.00,9.00,1,3.150,11\n"
	path := filepath.Join(t.TempDir(), "selfplay.csv")
	is.NoErr(os.WriteFile(path, []byte(content), 0644))

	out, err := AnalyzeLogFile(path)
	is.NoErr(err)
	is.True(strings.Contains(out, "Sessions played: 2\n"))
	is.True(strings.Contains(out, "Turns logged: 4\n"))
	is.True(strings.Contains(out, "Moves per session: 2.00 (min 2, max 2)\n"))
	is.True(strings.Contains(out, "Mean Score: 8.000000  Stdev: 1.414214\n"))
	is.True(strings.Contains(out, "95% CI: ±1.959964\n"))
	is.True(strings.Contains(out, "Score distribution:\n"))
}

func TestAnalyzeLogFileNoSessions(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "empty.csv")
	is.NoErr(os.WriteFile(path, []byte(LogHeader), 0644))
	_, err := AnalyzeLogFile(path)
	is.True(err != nil)
}

func TestStartSelfPlay(t *testing.T) {
	is := is.New(t)
	out := filepath.Join(t.TempDir(), "selfplay.csv")
	cfg := newTestConfig()
	cfg.Set(config.CacheFractionKey, 0.0)
	is.NoErr(StartSelfPlay(context.Background(), cfg, 2, 2, 77, out))

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if SessionCounter.Value() == 2 && IsPlaying.Value() == 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	is.Equal(SessionCounter.Value(), int64(2))

	// The logger goroutine may still be draining; poll until the file
	// has both sessions' rows.
	var summary string
	var err error
	for time.Now().Before(deadline) {
		summary, err = AnalyzeLogFile(out)
		if err == nil && strings.Contains(summary, "Sessions played: 2") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	is.NoErr(err)
	is.True(strings.Contains(summary, "Sessions played: 2"))
}
