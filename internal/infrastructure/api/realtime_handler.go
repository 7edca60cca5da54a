package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type realtimeHandler struct {
	events EventSubscriber
	logger zerolog.Logger
}

// serve streams the caller's tenant events over a websocket
func (h *realtimeHandler) serve(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	log := h.logger.With().Str("tenantId", p.TenantID).Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.events.Subscribe(r.Context(), p.TenantID)
	defer sub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	closed := readPump(conn)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	log.Debug().Msg("Realtime client connected")
	for {
		select {
		case <-closed:
			log.Debug().Msg("Realtime client disconnected")
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("Failed to write realtime event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Msg("Failed to write ping")
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed; the
// returned channel closes when the connection fails.
func readPump(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return done
}
