package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/undeadlabs/arena/internal/events"
	"github.com/undeadlabs/arena/internal/obslog"
)

const eventWriteTimeout = 5 * time.Second

// EventFeed serves the battle event stream as a websocket endpoint on its
// own listener. Each connection gets an independent hub subscription; a
// client that stops reading is dropped rather than allowed to stall the hub.
type EventFeed struct {
	hub     *events.Hub
	httpSrv *http.Server
}

func NewEventFeed(hub *events.Hub) *EventFeed {
	f := &EventFeed{hub: hub}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events", f.serveWS)
	f.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return f
}

// ListenAndServe blocks serving on addr until Shutdown.
func (f *EventFeed) ListenAndServe(listenAddr string) error {
	f.httpSrv.Addr = listenAddr
	obslog.L().Info("event feed listening", zap.String("addr", listenAddr))
	err := f.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (f *EventFeed) Shutdown(ctx context.Context) error {
	return f.httpSrv.Shutdown(ctx)
}

func (f *EventFeed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sub, cancel := f.hub.Subscribe()
	defer cancel()

	ctx := r.Context()
	// drain client frames so pings and close frames are processed
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			writeCancel()
			if err != nil {
				return
			}
		}
	}
}
