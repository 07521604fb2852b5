package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/answer"
	"github.com/mrlearner1606/memory-bot/internal/bot"
	"github.com/mrlearner1606/memory-bot/internal/config"
	"github.com/mrlearner1606/memory-bot/internal/gateway"
	"github.com/mrlearner1606/memory-bot/internal/health"
	"github.com/mrlearner1606/memory-bot/internal/intent"
	"github.com/mrlearner1606/memory-bot/internal/provider"
	"github.com/mrlearner1606/memory-bot/internal/retrieval"
	"github.com/mrlearner1606/memory-bot/internal/server"
	"github.com/mrlearner1606/memory-bot/internal/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) > 1 && os.Args[1] == "init" {
		runInit(log)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	if len(os.Args) > 1 && os.Args[1] == "check" {
		runCheck(cfg, log)
		return
	}

	gw, err := buildGateway(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("gateway assembly failed")
	}

	memories := store.NewClient(cfg.Store.BaseURL, cfg.Store.Token, cfg.Store.BaseID, cfg.Store.TableID, cfg.Store.Timeout, log)

	b := bot.New(
		intent.NewResolver(gw, log),
		memories,
		retrieval.NewEngine(memories, log),
		answer.NewSynthesizer(gw, cfg.Owner),
		log,
	)

	srv := server.New(cfg.Listen, b, cfg.Password, log)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("stopped")
}

// buildGateway wires each configured backend behind its key ring and retry
// executor, then orders them into the fallback chain.
func buildGateway(cfg *config.Config, log zerolog.Logger) (*gateway.Gateway, error) {
	var chains []gateway.Chain
	for name, pcfg := range cfg.Providers {
		var p provider.Provider
		switch pcfg.Type {
		case "openai":
			p = provider.NewOpenAI(name, pcfg.BaseURL, pcfg.Model, pcfg.Timeout)
		case "anthropic":
			p = provider.NewAnthropic(pcfg.BaseURL, pcfg.Model, pcfg.Timeout)
		case "gemini":
			p = provider.NewGemini(pcfg.BaseURL, pcfg.Model, pcfg.Timeout)
		default:
			return nil, fmt.Errorf("unknown provider type %q", pcfg.Type)
		}
		keys, err := provider.NewKeyRing(pcfg.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		chains = append(chains, provider.NewExecutor(p, keys, pcfg.MaxAttempts, pcfg.Backoff, pcfg.Priority, log))
	}
	return gateway.New(chains, log)
}

// runCheck probes every configured collaborator and exits nonzero when any
// is unreachable.
func runCheck(cfg *config.Config, log zerolog.Logger) {
	ctx := context.Background()
	ok := true

	for name, pcfg := range cfg.Providers {
		s := health.CheckProvider(ctx, name, pcfg.Type, pcfg.BaseURL, pcfg.APIKeys[0])
		report(log, s)
		ok = ok && s.Reachable
	}
	s := health.CheckStore(ctx, cfg.Store.BaseURL, cfg.Store.Token, cfg.Store.BaseID, cfg.Store.TableID)
	report(log, s)
	ok = ok && s.Reachable

	if !ok {
		os.Exit(1)
	}
}

func report(log zerolog.Logger, s health.Status) {
	evt := log.Info()
	if !s.Reachable {
		evt = log.Error()
	}
	evt.Str("target", s.Target).Bool("reachable", s.Reachable).Dur("latency", s.Latency).Str("detail", s.Error).Msg("health check")
}

func runInit(log zerolog.Logger) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("cannot locate home directory")
		}
		dir = filepath.Join(home, ".config")
	}
	path, err := config.WriteExample(filepath.Join(dir, "memorybot"))
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}
	fmt.Println("wrote", path)
}
