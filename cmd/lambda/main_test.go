package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/trovebot/trove/bot"
	"github.com/trovebot/trove/config"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	evt := bot.LambdaEvent{
		Request:   bot.Request{Board: "AAS/CSS/SAA seed 7;"},
		RequestID: "req1",
	}
	dc := config.DefaultConfig()
	dc.Set(config.CacheFractionKey, 0.0)
	cfg = &dc
	b = bot.NewBot(cfg)
	ctx := context.Background()
	ret, err := HandleRequest(ctx, evt)
	is.NoErr(err)
	is.Equal(ret, "r1c0<->r2c0")
}
