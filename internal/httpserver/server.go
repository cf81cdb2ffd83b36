// internal/httpserver/server.go
//
// HTTP wiring for the local practice challenge.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs).
//   - Diagnostics endpoints: "/", "/health", "/stats".
//   - Challenge endpoint: POST /guess, scoring wrapped guesses against a
//     fixed secret with the same glyph vocabulary as the real endpoint.
//
// Notes:
//   - The secret is fixed for the lifetime of the server; every guess is
//     scored independently, there are no sessions.
//   - Scored guesses are recorded in an in-memory transcript for /stats.

package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ctfkit/flagdle/internal/game"
	"github.com/ctfkit/flagdle/internal/transcript"
)

// Server bundles the router, the fixed secret, and the guess transcript.
type Server struct {
	r       *chi.Mux
	id      string
	secret  string
	logbook *transcript.Log
}

// New constructs a Server for the given secret, installs middleware, and
// registers routes. The secret must be exactly 32 alphabet symbols.
func New(secret string) (*Server, error) {
	if !game.ValidBody(secret) {
		return nil, fmt.Errorf("secret must be %d symbols of %q", game.BodyLength, game.Alphabet)
	}
	s := &Server{
		r:       chi.NewRouter(),
		id:      uuid.NewString(),
		secret:  secret,
		logbook: transcript.New(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service":   "flagdle-practice",
			"instance":  s.id,
			"endpoints": []string{"/health", "/stats", "POST /guess"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "guesses": s.logbook.Total()})
	})
	s.r.Get("/stats", s.handleStats)

	// Challenge endpoint
	s.r.Post("/guess", s.handleGuess)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s, nil
}

// Router exposes the internal router (useful for tests and in-process use).
func (s *Server) Router() chi.Router { return s.r }

// Serve runs the server on addr until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutCtx)
	case err := <-errc:
		return err
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ GUESS ---------------------------------------

// guessReq/Res payloads for POST /guess, matching the real endpoint.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Result string `json:"result"`
}

// handleGuess validates the wrapper, scores the body against the secret,
// and responds with the glyph-encoded feedback.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	body, ok := game.Unwrap(req.Guess)
	if !ok {
		http.Error(w, `{"error":"bad_guess_format"}`, http.StatusBadRequest)
		return
	}

	marks := game.Score(s.secret, body)
	feedback := game.EncodeFeedback(marks)
	s.logbook.Record(body, feedback)

	if game.AllHit(marks) {
		log.Info().Int("guesses", s.logbook.Total()).Msg("secret recovered by a guesser")
	}
	_ = json.NewEncoder(w).Encode(guessRes{Result: feedback})
}

// ------------------------------ STATS ---------------------------------------

// handleStats reports how many guesses were scored and the most recent
// attempts with their feedback.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	type attempt struct {
		Guess    string    `json:"guess"`
		Feedback string    `json:"feedback"`
		At       time.Time `json:"at"`
	}
	recent := s.logbook.Recent()
	out := struct {
		Total  int       `json:"total"`
		Recent []attempt `json:"recent"`
	}{Total: s.logbook.Total(), Recent: make([]attempt, 0, len(recent))}
	for _, e := range recent {
		out.Recent = append(out.Recent, attempt{Guess: e.Guess, Feedback: e.Feedback, At: e.At})
	}
	_ = json.NewEncoder(w).Encode(out)
}
