// Package shell is the interactive front end: a readline REPL over
// the solver, the session bag, self-play and the replay log.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/automatic"
	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/config"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/replay"
	"github.com/trovebot/trove/search"
)

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("option missing a value")
	errQuitSignal        = errors.New("sending quit signal")
	errNoPosition        = errors.New("please load a position first with the `load` command")
)

// A ShellController owns the REPL state: the loaded position, the
// session bag committed swaps draw from, the last generated move
// list, and the optional replay logger. Evaluation never mutates any
// of it; only `play` and `seed` do.
type ShellController struct {
	l        *readline.Instance
	execPath string

	cfg   *config.Config
	table *cache.MobilityTable

	state    *board.State
	bag      *bag.Bag
	resolver *cascade.Resolver
	seed     int64
	moveNum  int
	score    float64

	curGenPlays []*search.Evaluation
	sessionID   string
	sessionNum  int

	replayLogger *replay.Logger
	replayBase   string

	autoCtx        context.Context
	autoCancel     context.CancelFunc
	autoTicker     *time.Ticker
	autoTickerDone chan bool
	autoLogFile    string

	aliases map[string]string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config, execPath string) *ShellController {
	sc := &ShellController{
		cfg:      cfg,
		execPath: execPath,
		table:    cache.NewMobilityTable(cfg.CacheFraction()),
		aliases:  map[string]string{},
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mtrove>\033[0m ",
		HistoryFile:     "/tmp/readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// extractFields splits a command line into the command, its plain
// arguments, and its -option value pairs. Quoting follows shell
// rules, so `load "my board.bgn"` is one argument.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	lastWasOption := false
	lastOption := ""
	for _, field := range fields[1:] {
		if strings.HasPrefix(field, "-") {
			lastWasOption = true
			lastOption = field[1:]
			continue
		}
		if lastWasOption {
			options[lastOption] = append(options[lastOption], field)
			lastWasOption = false
		} else {
			args = append(args, field)
		}
	}
	if lastWasOption {
		return nil, errWrongOptionSyntax
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// pickSeed returns the configured seed, or a fresh random one when
// the configuration leaves the choice open.
func (sc *ShellController) pickSeed() int64 {
	if s := sc.cfg.RNGSeed(); s != 0 {
		return s
	}
	return automatic.GenerateSeeds(1)[0]
}

// resetSession rearms the session bag and resolver from seed. Any
// loaded board keeps its cells; scoring and move numbering restart.
func (sc *ShellController) resetSession(seed int64) error {
	curve, err := sc.cfg.Curve()
	if err != nil {
		return err
	}
	sc.seed = seed
	sc.bag = bag.Default(seed)
	sc.resolver = cascade.NewResolver(sc.bag, curve, sc.cfg.MaxCascadeDepth())
	sc.moveNum = 0
	sc.score = 0
	sc.curGenPlays = nil
	sc.sessionNum++
	sc.sessionID = fmt.Sprintf("shell%d", sc.sessionNum)
	return nil
}

// newSolver builds a solver over the session bag with the current
// configuration. Solvers are cheap; building one per command keeps
// `set` changes live without any invalidation bookkeeping.
func (sc *ShellController) newSolver() (*search.Solver, error) {
	if sc.state == nil {
		return nil, errNoPosition
	}
	curve, err := sc.cfg.Curve()
	if err != nil {
		return nil, err
	}
	solver := search.NewSolver(sc.bag, equity.StandardCalculators(sc.cfg.Weights(), sc.table))
	solver.SetPlies(sc.cfg.SearchDepth())
	solver.SetDiscount(sc.cfg.Discount())
	solver.SetCurve(curve)
	solver.SetMaxCascadeDepth(sc.cfg.MaxCascadeDepth())
	solver.SetThreads(sc.cfg.Threads())
	solver.SetTimeBudget(sc.cfg.TimeBudget())
	return solver, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	if expansion, ok := sc.aliases[cmd.cmd]; ok {
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd.cmd))
		expanded := strings.TrimSpace(expansion + " " + rest)
		log.Debug().Str("alias", cmd.cmd).Str("expanded", expanded).Msg("expanding alias")
		cmd, err = extractFields(expanded)
		if err != nil {
			return nil, err
		}
	}
	switch cmd.cmd {
	case "load":
		return sc.load(cmd)
	case "show":
		return sc.show(cmd)
	case "gen":
		return sc.generate(cmd)
	case "solve":
		return sc.solve(cmd)
	case "play":
		return sc.play(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "seed":
		return sc.setSeed(cmd)
	case "set":
		return sc.set(cmd)
	case "unset":
		return sc.unset(cmd)
	case "save":
		return sc.save(cmd)
	case "replay":
		return sc.replayCmd(cmd)
	case "script":
		return sc.script(cmd)
	case "alias":
		return sc.alias(cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "bye", "quit":
		sig <- syscall.SIGINT
		return nil, errQuitSignal
	default:
		log.Info().Msgf("command %v not found", strconv.Quote(line))
		return nil, nil
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if err == errQuitSignal {
			break
		}
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Execute runs a single command line outside the interactive loop,
// for `trove <command...>` invocations.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	defer sc.l.Close()
	resp, err := sc.standardModeSwitch(strings.TrimSpace(line), sig)
	if err != nil && err != errQuitSignal {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
}

// Cleanup stops background self-play and closes open replay sinks.
func (sc *ShellController) Cleanup() {
	sc.stopAutoplay()
	if sc.replayLogger != nil {
		if err := sc.replayLogger.Close(); err != nil {
			log.Err(err).Msg("closing replay logger")
		}
		sc.replayLogger = nil
	}
}
