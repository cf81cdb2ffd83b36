package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ctfkit/flagdle/internal/client"
	"github.com/ctfkit/flagdle/internal/httpserver"
	"github.com/ctfkit/flagdle/internal/secret"
	"github.com/ctfkit/flagdle/internal/solver"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// An interrupt cancels the context; in-flight requests abort and the
	// run stops without partial-state persistence.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch mode := getEnv("FLAGDLE_MODE", "solve"); mode {
	case "solve":
		err = runSolve(ctx)
	case "practice":
		err = runPractice(ctx)
	case "serve":
		err = runServe(ctx)
	default:
		log.Fatal().Str("mode", mode).Msg("unknown FLAGDLE_MODE (want solve, practice, or serve)")
	}

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			printInterrupted()
			return // interrupt exits cleanly
		}
		log.Fatal().Err(err).Msg("run failed")
	}
}

// runSolve recovers the flag from the live endpoint and prints it.
func runSolve(ctx context.Context) error {
	url := getEnv("FLAGDLE_URL", client.DefaultURL)
	timeout := parseTimeout(os.Getenv("FLAGDLE_TIMEOUT"), client.DefaultTimeout)

	log.Info().
		Str("run", uuid.NewString()).
		Str("url", url).
		Dur("timeout", timeout).
		Msg("starting solver")

	res, err := solver.New(client.New(url, timeout)).Run(ctx)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

// runServe hosts the practice challenge until interrupted. The secret is
// FLAGDLE_SECRET if set, otherwise derived from FLAGDLE_SALT and today's
// date so the endpoint is stable across restarts.
func runServe(ctx context.Context) error {
	sec := os.Getenv("FLAGDLE_SECRET")
	if sec == "" {
		sec = secret.Derive(getEnv("FLAGDLE_SALT", secret.DefaultSalt), secret.DateKey(time.Now()))
	}
	srv, err := httpserver.New(sec)
	if err != nil {
		return err
	}
	addr := ":" + getEnv("PORT", "30095")
	log.Info().Str("addr", addr).Msg("starting practice server")
	return srv.Serve(ctx, addr)
}

// runPractice boots the practice challenge in-process on a loopback port,
// runs the solver against it, and verifies the recovered secret. Dry runs
// get a fresh random secret unless FLAGDLE_SECRET pins one.
func runPractice(ctx context.Context) error {
	sec := os.Getenv("FLAGDLE_SECRET")
	if sec == "" {
		sec = secret.Random()
	}
	srv, err := httpserver.New(sec)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to bind practice listener: %w", err)
	}
	hs := &http.Server{Handler: srv.Router()}
	go func() { _ = hs.Serve(ln) }()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutCtx)
	}()

	url := fmt.Sprintf("http://%s/guess", ln.Addr())
	log.Info().Str("url", url).Msg("practice challenge up")

	res, err := solver.New(client.New(url, client.DefaultTimeout)).Run(ctx)
	if err != nil {
		return err
	}
	if res.Body != sec {
		return fmt.Errorf("practice run recovered %q, want %q", res.Body, sec)
	}
	printResult(res)
	return nil
}

// parseTimeout reads a duration override, falling back to def on anything
// unparsable or non-positive.
func parseTimeout(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("value", raw).Msg("invalid FLAGDLE_TIMEOUT, using default")
		return def
	}
	return d
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
