package app

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// reconnectDelay paces redial attempts after a dropped connection.
const reconnectDelay = 3 * time.Second

// liveEvent is the refresh message the backend broadcasts on data mutations.
type liveEvent struct {
	Type string `json:"type"`
}

// LiveUpdater keeps a websocket open to the backend and re-runs the active
// page's loader whenever a refresh event arrives.
type LiveUpdater struct {
	url  string
	orch *Orchestrator
	log  zerolog.Logger
}

// NewLiveUpdater creates an updater for the given websocket URL.
func NewLiveUpdater(url string, orch *Orchestrator, log zerolog.Logger) *LiveUpdater {
	return &LiveUpdater{url: url, orch: orch, log: log}
}

// Run connects and listens until ctx is cancelled, redialling on failure.
func (u *LiveUpdater) Run(ctx context.Context) {
	for {
		if err := u.listen(ctx); err != nil {
			u.log.Debug().Err(err).Msg("live connection lost")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (u *LiveUpdater) listen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	u.log.Info().Str("url", u.url).Msg("live updates connected")

	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev liveEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		if ev.Type != "refresh" {
			continue
		}
		u.log.Debug().Msg("refresh event received")
		u.orch.Nav().Reload(ctx)
	}
}
