// Package reportserver serves a connected dashboard client a live view of a
// Reporter's recorded metrics: a plain JSON snapshot endpoint and a push
// websocket. Adapted from the teacher's server/server.go; this is ambient
// observability (raw numeric series), not plot/image rendering.
package reportserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tomer-shavit/traffic-system/reporter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	pushResolution = 200 * time.Millisecond
	writeWait      = time.Second
)

// Server serves a single dashboard client the live Reporter snapshot, the
// same intentionally unlayered single-client shape as the teacher's
// training-progress server.
type Server struct {
	addr     string
	reporter *reporter.Reporter
	router   *mux.Router
}

func NewServer(addr string, rep *reporter.Reporter) *Server {
	s := &Server{addr: addr, reporter: rep, router: mux.NewRouter()}
	s.router.HandleFunc("/snapshot", s.serveSnapshot)
	s.router.HandleFunc("/ws", s.serveWebsocket)
	return s
}

func (s *Server) Serve() error {
	if err := http.ListenAndServe(s.addr, s.router); err != nil {
		return fmt.Errorf("reportserver: serve: %w", err)
	}
	return nil
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.reporter.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("reportserver: upgrade:", err)
		return
	}
	defer ws.Close()
	s.publishSnapshots(r.Context(), ws)
}

// publishSnapshots pushes a fresh snapshot to the client on a fixed
// interval until the connection closes or the request context is canceled.
func (s *Server) publishSnapshots(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(pushResolution)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(s.reporter.Snapshot()); err != nil {
				return
			}
		}
	}
}
