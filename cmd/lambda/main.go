package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trovebot/trove/bot"
	"github.com/trovebot/trove/config"
)

var cfg *config.Config
var nc *nats.Conn
var b *bot.Bot

// HardTimeLimit caps one solve regardless of the requested budget.
const HardTimeLimit = 60 * time.Second

func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	logger := log.With().
		Str("requestID", evt.RequestID).
		Logger()

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, HardTimeLimit)
	defer cancel()

	resp := b.Solve(ctx, &evt.Request)
	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}

	if evt.ReplyChannel != "" {
		logger.Info().Msg("solve-done-sending-via-nats")
		err = retry.Do(
			func() error {
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				if err != nil {
					return err
				}
				// We're just waiting for an acknowledgement. The actual
				// data doesn't matter.
				return nil
			},
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("solve-reply-failed")
		}
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	logger.Info().Msg("exiting-fn")
	return resp.Move.From + "<->" + resp.Move.To, nil
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg = &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		panic(err)
	}
	log.Info().Msgf("Loaded config: %v", cfg.AllSettings())
	cfg.AdjustRelativePaths(exPath)
	if cfg.Debug() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	nc, err = nats.Connect(cfg.NatsURL())
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}
	b = bot.NewBot(cfg)

	lambda.Start(HandleRequest)
}
