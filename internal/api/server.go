// Package api serves the tracker over a small JSON HTTP interface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/tracker"
)

type Server struct {
	tracker *tracker.Tracker
	router  *mux.Router
}

func New(t *tracker.Tracker) *Server {
	s := &Server{tracker: t, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	r.HandleFunc("/habits", s.listHabits).Methods(http.MethodGet)
	r.HandleFunc("/habits", s.createHabit).Methods(http.MethodPost)
	r.HandleFunc("/habits/{id}", s.getHabit).Methods(http.MethodGet)
	r.HandleFunc("/habits/{id}", s.editHabit).Methods(http.MethodPatch)
	r.HandleFunc("/habits/{id}", s.deleteHabit).Methods(http.MethodDelete)
	r.HandleFunc("/habits/{id}/stats", s.habitStats).Methods(http.MethodGet)
	r.HandleFunc("/habits/{id}/progress", s.habitProgress).Methods(http.MethodGet)

	r.HandleFunc("/habits/{id}/reports/{date}", s.getReport).Methods(http.MethodGet)
	r.HandleFunc("/habits/{id}/reports/{date}", s.markCompleted).Methods(http.MethodPut)
	r.HandleFunc("/habits/{id}/reports/{date}", s.unmark).Methods(http.MethodDelete)
	r.HandleFunc("/habits/{id}/reports/{date}/photo", s.setPhoto).Methods(http.MethodPut)
	r.HandleFunc("/habits/{id}/reports/{date}/photo", s.clearPhoto).Methods(http.MethodDelete)

	r.HandleFunc("/days/{date}/habits", s.habitsAtDay).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "no such route"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed", Message: "method not allowed"})
	})
}

// Handler is the router wrapped with panic recovery, CORS and access logging.
func (s *Server) Handler() http.Handler {
	corsOrigins := handlers.AllowedOrigins([]string{"*"})
	corsMethods := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	corsHeaders := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"})

	h := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(s.router)
	h = handlers.CORS(corsOrigins, corsMethods, corsHeaders)(h)
	return handlers.LoggingHandler(logger.Writer(), h)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...interface{}) {
	logger.Error("Panic recovered", "panic", args)
}

// ListenAndServe blocks until ctx is cancelled or the listener fails, then
// drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Handler:      s.Handler(),
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("HTTP server shutting down")
		return server.Shutdown(shutdownCtx)
	}
}
