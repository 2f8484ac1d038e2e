package automatic

// Data collection for unattended play. Self-play sessions run on a
// worker pool and append one CSV row per turn to a log file for
// offline analysis.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/config"
)

var (
	SessionCounter *expvar.Int
	IsPlaying      *expvar.Int
)

func init() {
	SessionCounter = expvar.NewInt("sessionCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// LogHeader is the first line of every self-play CSV log.
const LogHeader = "sessionID,turn,move,points,totalpoints,steps,equity,mobility\n"

// A Job is one session to play: its bag seed and the ID used to tag
// its log rows.
type Job struct {
	Seed int64
	ID   string
}

// StartSelfPlay plays numSessions unattended sessions on the given
// number of worker goroutines, logging every turn to outputFilename.
// A zero fixedSeed draws a random seed per session; a nonzero one
// derives session seeds from it so the whole run replays exactly.
// The call returns once the run is set up; sessions drain in the
// background, counted in the sessionCounter expvar, and the log file
// closes when the last row is written. Cancel ctx to stop early.
func StartSelfPlay(ctx context.Context, cfg *config.Config, numSessions int,
	threads int, fixedSeed int64, outputFilename string) error {

	if IsPlaying.Value() > 0 {
		return errors.New("sessions are already being played, please wait till complete")
	}
	if numSessions < 1 {
		return errors.New("need at least one session")
	}
	if threads < 1 {
		threads = 1
	}

	logfile, err := os.Create(outputFilename)
	if err != nil {
		return err
	}
	log.Debug().Msgf("Starting %v sessions, %v threads", numSessions, threads)

	seeds := GenerateSeeds(numSessions)
	if fixedSeed != 0 {
		for i := range seeds {
			seeds[i] = fixedSeed + int64(i)
		}
	}

	// One lossy mobility table shared by every worker; it is atomic
	// word-sized entries all the way down.
	table := cache.NewMobilityTable(cfg.CacheFraction())

	SessionCounter.Set(0)
	jobs := make(chan Job, 100)
	logChan := make(chan string, 100)
	var wg sync.WaitGroup
	wg.Add(threads)

	for i := 1; i <= threads; i++ {
		go func(i int) {
			defer wg.Done()
			r, rerr := NewSessionRunner(logChan, cfg, table)
			if rerr != nil {
				log.Err(rerr).Msg("could not build session runner")
				return
			}
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for j := range jobs {
				if err := r.Reset(j.Seed, j.ID); err != nil {
					log.Err(err).Str("session", j.ID).Msg("could not start session")
					continue
				}
				if err := r.playFull(ctx); err != nil {
					log.Err(err).Str("session", j.ID).Msg("session aborted")
					continue
				}
				SessionCounter.Add(1)
			}
		}(i)
	}

	go func() {
	sessionLoop:
		for i := 0; i < numSessions; i++ {
			jobs <- Job{Seed: seeds[i], ID: fmt.Sprintf("session%d", i+1)}
			if (i+1)%1000 == 0 {
				log.Info().Msgf("Queued %v jobs", i+1)
			}
			select {
			case <-ctx.Done():
				log.Info().Msg("Got stop signal, exiting soon...")
				break sessionLoop
			default:
				// do nothing
			}
		}

		close(jobs)
		log.Info().Msg("Finished queueing all jobs.")
		wg.Wait()
		log.Info().Msg("All sessions finished.")
		close(logChan)
		log.Info().Msg("Exiting feeder subroutine!")
	}()

	go func() {
		logfile.WriteString(LogHeader)
		for msg := range logChan {
			logfile.WriteString(msg)
		}
		logfile.Close()
		log.Info().Msg("Exiting turn logger goroutine!")
	}()

	return nil
}
