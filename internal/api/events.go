package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/atlasmap-sc/scatter/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 4096
)

// eventsHandler upgrades to a websocket that streams session notifications
// as JSON. Gestures sent by the client are applied to the session.
func eventsHandler(origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := getSession(r)
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns(origins),
		})
		if err != nil {
			log.Printf("websocket accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		conn.SetReadLimit(maxMsgSize)

		notes, cancel := s.Subscribe(64)
		defer cancel()

		ctx, stop := context.WithCancel(r.Context())
		defer stop()
		go readGestures(ctx, stop, conn, s)
		writeNotifications(ctx, conn, notes)
	}
}

func readGestures(ctx context.Context, stop context.CancelFunc, conn *websocket.Conn, s *service.Session) {
	defer stop()
	for {
		var g service.Gesture
		if err := wsjson.Read(ctx, conn, &g); err != nil {
			return
		}
		if err := s.Apply(ctx, g); err != nil {
			wsjson.Write(ctx, conn, service.Notification{Type: "error", Reason: err.Error()})
		}
	}
}

func writeNotifications(ctx context.Context, conn *websocket.Conn, notes <-chan service.Notification) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notes:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(writeCtx, conn, n)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// originPatterns turns CORS origins into host patterns for the websocket
// origin check.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		out = append(out, o)
	}
	return out
}
