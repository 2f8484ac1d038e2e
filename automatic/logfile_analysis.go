package automatic

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/trovebot/trove/stats"
)

// AnalyzeLogFile reads a self-play CSV log and spits out a bunch of
// statistics: session counts, per-session move and score aggregates
// with a 95% confidence interval, and a score histogram.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)

	// Record looks like:
	// sessionID,turn,move,points,totalpoints,steps,equity,mobility
	// Rows from concurrent sessions interleave, but turns within one
	// session arrive in order; the highest turn row carries the
	// session's final totals.

	type sessionEnd struct {
		moves int
		score float64
	}
	sessions := map[string]sessionEnd{}
	turnsLogged := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "sessionID" {
			// this is the header line
			continue
		}
		turn, err := strconv.Atoi(record[1])
		if err != nil {
			return "", err
		}
		total, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return "", err
		}
		if end := sessions[record[0]]; turn > end.moves {
			sessions[record[0]] = sessionEnd{moves: turn, score: total}
		}
		turnsLogged++
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions found in %v", filepath)
	}

	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scores := lo.Map(ids, func(id string, _ int) float64 { return sessions[id].score })
	moveStats := &stats.Statistic{}
	scoreStats := &stats.Statistic{}
	for i, id := range ids {
		moveStats.Push(float64(sessions[id].moves))
		scoreStats.Push(scores[i])
	}

	// build stats string
	out := fmt.Sprintf("Sessions played: %d\n", len(ids))
	out += fmt.Sprintf("Turns logged: %d\n", turnsLogged)
	out += fmt.Sprintf("Moves per session: %.2f (min %.0f, max %.0f)\n",
		moveStats.Mean(), moveStats.Min(), moveStats.Max())
	out += fmt.Sprintf("Mean Score: %.6f  Stdev: %.6f\n",
		scoreStats.Mean(), scoreStats.Stdev())
	out += fmt.Sprintf("95%% CI: ±%.6f\n", scoreStats.ConfidenceInterval(95))
	if len(scores) > 1 && scoreStats.Max() > scoreStats.Min() {
		hist := histogram.Hist(15, scores)
		var hb strings.Builder
		if err := histogram.Fprint(&hb, hist, histogram.Linear(40)); err != nil {
			return "", err
		}
		out += "Score distribution:\n" + hb.String()
	}
	return out, nil
}
