package bot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultRequestTimeout bounds one solve round trip.
const DefaultRequestTimeout = 10 * time.Second

// A Client asks a running bot for moves.
type Client struct {
	nc      *nats.Conn
	channel string
}

// NewClient wraps an existing connection. An empty channel means
// DefaultChannel.
func NewClient(nc *nats.Conn, channel string) *Client {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Client{nc: nc, channel: channel}
}

// RequestMove sends a position to the bot and gets its move back. A
// Response with Error set comes back as a Go error.
func (c *Client) RequestMove(req *Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	res, err := c.nc.Request(c.channel, data, DefaultRequestTimeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))

	resp := &Response{}
	if err := json.Unmarshal(res.Data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("bot returned: " + resp.Error)
	}
	return resp, nil
}
