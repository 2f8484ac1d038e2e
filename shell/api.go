package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/trovebot/trove/automatic"
	"github.com/trovebot/trove/bgn"
	"github.com/trovebot/trove/bot"
	"github.com/trovebot/trove/config"
	"github.com/trovebot/trove/movegen"
	"github.com/trovebot/trove/replay"
	"github.com/trovebot/trove/search"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Int64Default(key string, defaultI int64) (int64, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.ParseInt(v[0], 10, 64)
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

// positionText is the standard position display: the board picture
// followed by one session status line.
func (sc *ShellController) positionText() string {
	var sb strings.Builder
	sb.WriteString(sc.state.ToDisplayText())
	fmt.Fprintf(&sb, "seed %d  move %d  score %.2f  mobility %d",
		sc.seed, sc.moveNum, sc.score, movegen.Mobility(sc.state))
	return sb.String()
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for load")
	}
	if cmd.args[0] == "random" {
		return sc.loadRandom(cmd.args[1:])
	}
	if len(cmd.args) == 1 {
		if _, err := os.Stat(cmd.args[0]); err == nil {
			return sc.loadFile(cmd.args[0])
		}
	}
	return sc.loadBGN(strings.Join(cmd.args, " "))
}

func (sc *ShellController) loadRandom(args []string) (*Response, error) {
	rows, cols := automatic.DefaultRows, automatic.DefaultCols
	switch len(args) {
	case 0:
	case 2:
		var err error
		if rows, err = strconv.Atoi(args[0]); err != nil {
			return nil, err
		}
		if cols, err = strconv.Atoi(args[1]); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("usage: load random [rows cols]")
	}
	if err := sc.resetSession(sc.pickSeed()); err != nil {
		return nil, err
	}
	st, err := automatic.DealStableBoard(sc.bag, rows, cols)
	if err != nil {
		return nil, err
	}
	sc.state = st
	return msg(sc.positionText()), nil
}

func (sc *ShellController) loadBGN(text string) (*Response, error) {
	p, err := bgn.Parse(text)
	if err != nil {
		return nil, err
	}
	seed := p.Seed
	if seed == 0 {
		seed = sc.pickSeed()
	}
	if err := sc.resetSession(seed); err != nil {
		return nil, err
	}
	sc.state = p.State
	return msg(sc.positionText()), nil
}

func (sc *ShellController) loadFile(path string) (*Response, error) {
	positions, err := bgn.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no positions in %v", path)
	}
	if len(positions) > 1 {
		log.Info().Msgf("%v holds %v positions; loading the first", path, len(positions))
	}
	p := positions[0]
	seed := p.Seed
	if seed == 0 {
		seed = sc.pickSeed()
	}
	if err := sc.resetSession(seed); err != nil {
		return nil, err
	}
	sc.state = p.State
	return msg(sc.positionText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.state == nil {
		return nil, errNoPosition
	}
	return msg(sc.positionText()), nil
}

func moveTableHeader() string {
	return "     Move           Steps Points  Equity\n"
}

func MoveTableRow(idx int, ev *search.Evaluation) string {
	return fmt.Sprintf("%3d: %-15s%-6d%-8.2f%-8.3f", idx+1,
		ev.Move.ShortDescription(), len(ev.Result.Steps), ev.Result.Score, ev.Score)
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	numPlays := 15
	if cmd.args != nil {
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
		numPlays = n
	}
	solver, err := sc.newSolver()
	if err != nil {
		return nil, err
	}
	evals, err := solver.RankMoves(context.Background(), sc.state)
	if err != nil {
		return nil, err
	}
	if numPlays < len(evals) {
		evals = evals[:numPlays]
	}
	sc.curGenPlays = evals

	var sb strings.Builder
	sb.WriteString(moveTableHeader())
	for i, ev := range evals {
		sb.WriteString(MoveTableRow(i, ev))
		sb.WriteString("\n")
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if cmd.options.Bool("remote") {
		return sc.remoteSolve()
	}
	solver, err := sc.newSolver()
	if err != nil {
		return nil, err
	}
	started := time.Now()
	ev, err := solver.SelectMove(context.Background(), sc.state)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "best %v  equity %.3f  (%v nodes in %v)\n",
		ev.Move.ShortDescription(), ev.Score, solver.Nodes(),
		time.Since(started).Round(time.Millisecond))
	fmt.Fprintf(&sb, "rationale: %v\n", ev.Rationale)
	for _, step := range ev.Result.Steps {
		fmt.Fprintf(&sb, "  step %d: removed %d  x%.2f  %.2f points\n",
			step.Index, len(step.Removed), step.Multiplier, step.Points)
	}
	fmt.Fprintf(&sb, "cascade total %.2f over %d steps", ev.Result.Score, len(ev.Result.Steps))
	return msg(sb.String()), nil
}

// remoteSolve ships the position to a running bot over NATS instead of
// searching locally. The session does not advance.
func (sc *ShellController) remoteSolve() (*Response, error) {
	if sc.state == nil {
		return nil, errNoPosition
	}
	nc, err := nats.Connect(sc.cfg.NatsURL())
	if err != nil {
		return nil, err
	}
	defer nc.Close()
	resp, err := bot.NewClient(nc, "").RequestMove(&bot.Request{
		Board: bgn.Emit(sc.state, nil),
		Seed:  sc.seed,
		Depth: sc.cfg.SearchDepth(),
	})
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "best %v<->%v  equity %.3f  (remote)\n",
		resp.Move.From, resp.Move.To, resp.Score)
	for _, t := range resp.Rationale {
		fmt.Fprintf(&sb, "  %-10s %8.3f\n", t.Term, t.Value)
	}
	fmt.Fprintf(&sb, "%d cascade steps; final %v", resp.Steps, resp.Final)
	return msg(sb.String()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.state == nil {
		return nil, errNoPosition
	}
	count := 1
	if cmd.args != nil {
		arg := cmd.args[0]
		if strings.HasPrefix(arg, "#") {
			playID, err := strconv.Atoi(arg[1:])
			if err != nil {
				return nil, err
			}
			return sc.commitGenerated(playID)
		}
		var err error
		count, err = strconv.Atoi(arg)
		if err != nil {
			return nil, err
		}
	}
	var sb strings.Builder
	for i := 0; i < count; i++ {
		solver, err := sc.newSolver()
		if err != nil {
			return nil, err
		}
		ev, err := solver.SelectMove(context.Background(), sc.state)
		if err == search.ErrNoLegalMoves {
			sb.WriteString("no legal moves; session over\n")
			break
		}
		if err != nil {
			return nil, err
		}
		line, err := sc.commit(ev)
		if err != nil {
			return nil, err
		}
		sb.WriteString(line)
	}
	sb.WriteString(sc.positionText())
	return msg(sb.String()), nil
}

// commitGenerated commits play number playID from the last `gen`
// listing. IDs start from 1, matching the table.
func (sc *ShellController) commitGenerated(playID int) (*Response, error) {
	idx := playID - 1
	if idx < 0 || idx > len(sc.curGenPlays)-1 {
		return nil, errors.New("play outside range; generate plays with `gen` first")
	}
	line, err := sc.commit(sc.curGenPlays[idx])
	if err != nil {
		return nil, err
	}
	return msg(line + sc.positionText()), nil
}

// commit applies one evaluated swap with the session bag, so replays
// of the same seed and commands reproduce the same boards, and logs
// the evaluation to the replay sinks when they are open.
func (sc *ShellController) commit(ev *search.Evaluation) (string, error) {
	before := sc.state
	swapped, err := sc.state.WithSwap(ev.Move.From, ev.Move.To)
	if err != nil {
		return "", err
	}
	res, err := sc.resolver.Resolve(swapped)
	if err != nil {
		return "", err
	}
	sc.moveNum++
	sc.score += res.Score
	sc.state = res.Final
	sc.curGenPlays = nil

	if sc.replayLogger != nil {
		rec := replay.NewRecord(sc.sessionID, sc.moveNum, before, ev)
		if err := sc.replayLogger.Log(rec); err != nil {
			log.Err(err).Msg("replay-log-failed")
		}
	}
	return fmt.Sprintf("move %d: %v scored %.2f in %d steps (total %.2f)\n",
		sc.moveNum, ev.Move.ShortDescription(), res.Score, len(res.Steps), sc.score), nil
}

func (sc *ShellController) setSeed(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(fmt.Sprintf("session seed is %d", sc.seed)), nil
	}
	seed, err := strconv.ParseInt(cmd.args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	sc.cfg.Set(config.RNGSeedKey, seed)
	if err := sc.resetSession(seed); err != nil {
		return nil, err
	}
	if sc.state != nil {
		// Rewind the generation so refills replay from the start of
		// the new bag.
		sc.state = sc.state.WithGeneration(0)
		return msg(fmt.Sprintf("session reset with seed %d\n", seed) + sc.positionText()), nil
	}
	return msg(fmt.Sprintf("session reset with seed %d", seed)), nil
}

func (sc *ShellController) settingsText() string {
	settings := sc.cfg.AllSettings()
	keys := lo.Keys(settings)
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%-20v %v\n", k, settings[k])
	}
	return sb.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.settingsText()), nil
	}
	key := cmd.args[0]
	if !sc.cfg.Known(key) {
		return nil, fmt.Errorf("unknown configuration key %q", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v: %v", key, sc.cfg.Get(key))), nil
	}
	value := strings.Join(cmd.args[1:], " ")
	sc.cfg.Set(key, value)
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) unset(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need a configuration key to unset")
	}
	key := cmd.args[0]
	if err := sc.cfg.Unset(key); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%v restored to %v", key, sc.cfg.Get(key))), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	path := "trove.yml"
	if cmd.args != nil {
		path = cmd.args[0]
	}
	if err := sc.cfg.Write(path); err != nil {
		return nil, err
	}
	return msg("settings written to " + path), nil
}

func (sc *ShellController) replayCmd(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		if sc.replayLogger == nil {
			return msg("replay logging is off"), nil
		}
		return msg("replay logging is on; writing to " + sc.replayBase + ".{yaml,db}"), nil
	}
	switch cmd.args[0] {
	case "on":
		if sc.replayLogger != nil {
			return msg("replay logging is already on"), nil
		}
		base := sc.cfg.ReplayPath()
		if base == "" {
			base = "trove-replay"
		}
		stream, err := replay.OpenYAMLFile(base + ".yaml")
		if err != nil {
			return nil, err
		}
		store, err := replay.OpenStore(base + ".db")
		if err != nil {
			stream.Close()
			return nil, err
		}
		sc.replayLogger = replay.NewLogger(stream, store)
		sc.replayBase = base
		return msg("replay logging on; every committed move appends to " +
			base + ".yaml and " + base + ".db"), nil
	case "off":
		if sc.replayLogger == nil {
			return msg("replay logging is already off"), nil
		}
		err := sc.replayLogger.Close()
		sc.replayLogger = nil
		if err != nil {
			return nil, err
		}
		return msg("replay logging off"), nil
	case "export":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: replay export <file.yaml>")
		}
		return sc.replayExport(cmd.args[1])
	}
	return nil, errors.New("usage: replay on|off|export <file.yaml>")
}

// replayExport dumps every evaluation in the replay store as one
// YAML stream, in session order.
func (sc *ShellController) replayExport(outPath string) (*Response, error) {
	base := sc.replayBase
	if base == "" {
		base = sc.cfg.ReplayPath()
	}
	if base == "" {
		base = "trove-replay"
	}
	store, err := replay.OpenStore(base + ".db")
	if err != nil {
		return nil, err
	}
	defer store.Close()

	ctx := context.Background()
	ids, err := store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New("replay store is empty; nothing to export")
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stream := replay.NewYAMLStream(f)
	n := 0
	for _, id := range ids {
		recs, err := store.Evaluations(ctx, id)
		if err != nil {
			return nil, err
		}
		for i := range recs {
			if err := stream.Append(&recs[i]); err != nil {
				return nil, err
			}
			n++
		}
	}
	return msg(fmt.Sprintf("exported %d evaluations from %d sessions to %v",
		n, len(ids), outPath)), nil
}

func (sc *ShellController) alias(cmd *shellcmd) (*Response, error) {
	// No arguments - list all aliases
	if len(cmd.args) == 0 {
		if len(sc.aliases) == 0 {
			return msg("No aliases defined"), nil
		}
		names := lo.Keys(sc.aliases)
		sort.Strings(names)
		var sb strings.Builder
		sb.WriteString("Defined aliases:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s = %s\n", name, sc.aliases[name])
		}
		return msg(sb.String()), nil
	}

	switch cmd.args[0] {
	case "set":
		if len(cmd.args) < 3 {
			return nil, errors.New("usage: alias set <name> <command>")
		}
		name := cmd.args[1]

		// Reconstruct the full command from args and options.
		commandParts := cmd.args[2:]
		for opt, values := range cmd.options {
			for _, val := range values {
				commandParts = append(commandParts, "-"+opt, val)
			}
		}
		command := strings.Join(commandParts, " ")
		sc.aliases[name] = command
		return msg(fmt.Sprintf("Alias '%s' set to: %s", name, command)), nil

	case "delete", "remove", "rm":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: alias delete <name>")
		}
		name := cmd.args[1]
		if _, exists := sc.aliases[name]; !exists {
			return nil, fmt.Errorf("alias '%s' not found", name)
		}
		delete(sc.aliases, name)
		return msg(fmt.Sprintf("Alias '%s' deleted", name)), nil

	case "show":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: alias show <name>")
		}
		name := cmd.args[1]
		if command, exists := sc.aliases[name]; exists {
			return msg(fmt.Sprintf("%s = %s", name, command)), nil
		}
		return nil, fmt.Errorf("alias '%s' not found", name)

	case "list":
		return sc.alias(&shellcmd{cmd: "alias"})

	default:
		return nil, fmt.Errorf("unknown subcommand '%s'. Valid: set, delete, show, list", cmd.args[0])
	}
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
