// Package bot serves the solver over NATS request/reply. Requests
// carry a position in board gem notation; responses carry the chosen
// move with its full rationale, so callers can audit the score the
// same way the shell does.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/bgn"
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/config"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/search"
)

// DefaultChannel is the subject the bot subscribes on.
const DefaultChannel = "trove.solve"

const connectAttempts = 5

// A Request asks for the best move on a position. Board is in board
// gem notation; a zero Seed falls back to the notation's seed opcode.
// Depth and BudgetMS default to the bot's configuration when zero.
type Request struct {
	Board    string `json:"board"`
	Seed     int64  `json:"seed,omitempty"`
	Depth    int    `json:"depth,omitempty"`
	BudgetMS int    `json:"budget_ms,omitempty"`
}

// A MoveJSON is a swap in wire form; cells use the same r<row>c<col>
// coordinates the shell prints.
type MoveJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// A TermJSON is one rationale contribution.
type TermJSON struct {
	Term  string  `json:"term"`
	Value float64 `json:"value"`
}

// A Response carries either a solved move or an error string, never
// both.
type Response struct {
	Move      *MoveJSON  `json:"move,omitempty"`
	Score     float64    `json:"score,omitempty"`
	Rationale []TermJSON `json:"rationale,omitempty"`
	Steps     int        `json:"steps,omitempty"`
	Final     string     `json:"final,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// A LambdaEvent is the one-shot solve request for the lambda entry
// point. The response travels back over NATS on ReplyChannel rather
// than through the function's return value.
type LambdaEvent struct {
	Request
	RequestID    string `json:"request_id,omitempty"`
	ReplyChannel string `json:"reply_channel,omitempty"`
}

type Bot struct {
	cfg   *config.Config
	table *cache.MobilityTable
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{
		cfg:   cfg,
		table: cache.NewMobilityTable(cfg.CacheFraction()),
	}
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

// handle decodes one request off the wire. Every failure mode comes
// back as a Response with Error set; the subscription loop never
// drops a reply.
func (bot *Bot) handle(data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("could not parse request", err)
	}
	return bot.Solve(context.Background(), &req)
}

// Solve runs one search for req and packages the outcome.
func (bot *Bot) Solve(ctx context.Context, req *Request) *Response {
	p, err := bgn.Parse(req.Board)
	if err != nil {
		return errorResponse("could not parse board", err)
	}
	curve, err := bot.cfg.Curve()
	if err != nil {
		return errorResponse("bad chain curve configuration", err)
	}

	seed := req.Seed
	if seed == 0 {
		seed = p.Seed
	}
	depth := req.Depth
	if depth < 1 {
		depth = bot.cfg.SearchDepth()
	}
	budget := bot.cfg.TimeBudget()
	if req.BudgetMS > 0 {
		budget = time.Duration(req.BudgetMS) * time.Millisecond
	}

	solver := search.NewSolver(bag.Default(seed),
		equity.StandardCalculators(bot.cfg.Weights(), bot.table))
	solver.SetPlies(depth)
	solver.SetDiscount(bot.cfg.Discount())
	solver.SetCurve(curve)
	solver.SetMaxCascadeDepth(bot.cfg.MaxCascadeDepth())
	solver.SetThreads(bot.cfg.Threads())
	solver.SetTimeBudget(budget)

	ev, err := solver.SelectMove(ctx, p.State)
	if err != nil {
		return errorResponse("could not solve position", err)
	}

	resp := &Response{
		Move:  &MoveJSON{From: ev.Move.From.String(), To: ev.Move.To.String()},
		Score: ev.Score,
		Steps: len(ev.Result.Steps),
		Final: bgn.Emit(ev.Result.Final, nil),
	}
	for _, t := range ev.Rationale {
		resp.Rationale = append(resp.Rationale, TermJSON{Term: t.Name, Value: t.Value})
	}
	return resp
}

// Main connects to NATS (with backoff), subscribes on channel, and
// blocks until SIGINT/SIGTERM, then drains the connection so in-flight
// replies land before exit.
func Main(channel string, bot *Bot) error {
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var cerr error
			nc, cerr = nats.Connect(bot.cfg.NatsURL())
			return cerr
		},
		retry.Attempts(connectAttempts),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("nats-connect-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return err
	}

	_, err = nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.handle(m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, ideally, but we need to do something
			// sensible here.
			m.Respond([]byte(err.Error()))
		} else {
			m.Respond(data)
		}
	})
	if err != nil {
		return err
	}
	nc.Flush()
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info().Msg("draining and exiting")
	return nc.Drain()
}
