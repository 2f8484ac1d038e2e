package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/automatic"
)

const autoplayTick = 15 * time.Second

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	return sc.handleAutoplay(cmd.args, cmd.options)
}

func (sc *ShellController) autoplaying() bool {
	return automatic.IsPlaying.Value() > 0
}

func (sc *ShellController) handleAutoplay(args []string, options CmdOptions) (*Response, error) {
	if len(args) == 1 {
		switch args[0] {
		case "stop":
			if !sc.autoplaying() {
				return nil, errors.New("no autoplay run to stop")
			}
			sc.stopAutoplay()
			return msg("stopping autoplay; workers exit after their current session"), nil
		case "analyze":
			file := options.String("file")
			if file == "" {
				file = sc.autoLogFile
			}
			if file == "" {
				return nil, errors.New("no autoplay log to analyze; pass -file")
			}
			summary, err := automatic.AnalyzeLogFile(file)
			if err != nil {
				return nil, err
			}
			return msg(summary), nil
		}
	}
	if len(args) != 0 {
		return nil, errors.New("autoplay takes no arguments besides stop and analyze")
	}
	if sc.autoplaying() {
		return nil, errors.New("autoplay is already running; `autoplay stop` first")
	}

	sessions, err := options.IntDefault("sessions", 1000)
	if err != nil {
		return nil, err
	}
	threads, err := options.IntDefault("threads", max(1, runtime.NumCPU()-1))
	if err != nil {
		return nil, err
	}
	seed, err := options.Int64Default("seed", sc.cfg.RNGSeed())
	if err != nil {
		return nil, err
	}
	file := options.String("file")
	if file == "" {
		file = filepath.Join(os.TempDir(), "trove-autoplay.csv")
	}

	sc.autoCtx, sc.autoCancel = context.WithCancel(context.Background())
	err = automatic.StartSelfPlay(sc.autoCtx, sc.cfg, sessions, threads, seed, file)
	if err != nil {
		sc.autoCancel()
		sc.autoCancel = nil
		return nil, err
	}
	sc.autoLogFile = file

	sc.autoTicker = time.NewTicker(autoplayTick)
	sc.autoTickerDone = make(chan bool)
	go func() {
		for {
			select {
			case <-sc.autoTickerDone:
				return
			case <-sc.autoTicker.C:
				log.Info().Msgf("Autoplay is at %v sessions...",
					automatic.SessionCounter.Value())
			}
		}
	}()

	return msg(fmt.Sprintf(
		"Autoplay of %v sessions started; logging turns to %v. "+
			"Use `autoplay stop` to stop early and `autoplay analyze` for a summary.",
		sessions, file)), nil
}

func (sc *ShellController) stopAutoplay() {
	if sc.autoCancel != nil {
		sc.autoCancel()
		sc.autoCancel = nil
	}
	if sc.autoTicker != nil {
		sc.autoTicker.Stop()
		sc.autoTickerDone <- true
		sc.autoTicker = nil
	}
}
