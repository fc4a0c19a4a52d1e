package status

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"parrot/log"
)

type Server struct {
	board   *Board
	hub     *Hub
	metrics http.Handler
	srv     *http.Server
}

// NewServer serves board and hub on bind. metrics may be nil, in which case
// /metrics is not routed.
func NewServer(bind string, board *Board, hub *Hub, metrics http.Handler) *Server {
	s := &Server{
		board:   board,
		hub:     hub,
		metrics: metrics,
	}
	s.srv = &http.Server{
		Addr:              bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.board.Latest()); err != nil {
			log.Errorf("status encode: %v", err)
		}
	})
	router.Handler(http.MethodGet, "/ws", s.hub.Handler())
	if s.metrics != nil {
		router.Handler(http.MethodGet, "/metrics", s.metrics)
	}
	return router
}

// Run serves until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	log.Info("status server listening on " + ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
