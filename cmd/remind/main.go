// Command remind is the main entry point for the ReMind voice journal server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/remindai/remind/internal/config"
	"github.com/remindai/remind/internal/health"
	"github.com/remindai/remind/internal/journal"
	"github.com/remindai/remind/internal/observe"
	"github.com/remindai/remind/internal/server"
	"github.com/remindai/remind/internal/speech"
	"github.com/remindai/remind/pkg/provider/embeddings"
	oaembed "github.com/remindai/remind/pkg/provider/embeddings/openai"
	"github.com/remindai/remind/pkg/provider/stt"
	sttmock "github.com/remindai/remind/pkg/provider/stt/mock"
	"github.com/remindai/remind/pkg/provider/stt/whisper"
	"github.com/remindai/remind/pkg/provider/tts"
	"github.com/remindai/remind/pkg/provider/tts/coqui"
	ttsmock "github.com/remindai/remind/pkg/provider/tts/mock"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "remind: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "remind: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("remind starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "remind",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Storage ───────────────────────────────────────────────────────────────
	var (
		store journal.Store
		pool  *pgxpool.Pool
	)
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to open postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		pg := journal.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("journal migration failed", "err", err)
			return 1
		}
		store = pg
		slog.Info("journal store ready", "backend", "postgres")
	} else {
		store = journal.NewMemStore()
		slog.Warn("no postgres_dsn configured, journal data will not survive restarts")
	}

	// ── Semantic search ───────────────────────────────────────────────────────
	var semantic *journal.SemanticIndex
	if providers.Embeddings != nil && pool != nil {
		semantic = journal.NewSemanticIndex(pool, providers.Embeddings)
		if err := semantic.Migrate(ctx); err != nil {
			slog.Error("semantic index migration failed", "err", err)
			return 1
		}
		slog.Info("semantic memory search enabled",
			"dimensions", providers.Embeddings.Dimensions())
	}

	// ── Voice settings + hot reload ───────────────────────────────────────────
	settings := speech.NewSettings()
	cfg.Voice.ApplyTo(settings)

	watcher, err := config.NewWatcher(*configPath, func(_, next *config.Config) {
		next.Voice.ApplyTo(settings)
		slog.Info("configuration reloaded",
			"voice_output", next.Voice.Enabled(),
			"locale", settings.Locale(),
			"rate", settings.Rate(),
		)
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── HTTP server ───────────────────────────────────────────────────────────
	// Provider checks only apply when the config names a provider; running
	// without one means the client handles that side of speech itself.
	checkers := []health.Checker{health.StoreChecker(store)}
	if cfg.Providers.STT.Name != "" {
		checkers = append(checkers, health.ProviderChecker("stt", providers.STT != nil))
	}
	if cfg.Providers.TTS.Name != "" {
		checkers = append(checkers, health.ProviderChecker("tts", providers.TTS != nil))
	}

	opts := []server.Option{
		server.WithSettings(settings),
		server.WithHealth(health.New(checkers...)),
	}
	if semantic != nil {
		opts = append(opts, server.WithSemanticIndex(semantic))
	}
	if providers.STT != nil {
		opts = append(opts, server.WithSTTProvider(providers.STT))
	}
	if providers.TTS != nil {
		opts = append(opts, server.WithTTSProvider(providers.TTS))
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.New(store, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg, semantic != nil)
	slog.Info("server ready, press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// serverProviders holds the optional provider instances built from config.
// Any of the fields may be nil; the server degrades to client-side speech
// and substring search.
type serverProviders struct {
	STT        stt.Provider
	TTS        tts.Provider
	Embeddings embeddings.Provider
}

// registerBuiltinProviders wires the provider factories that ship with
// ReMind into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, whisper.WithSampleRate(rate))
		}
		if ms := optInt(entry.Options, "silence_threshold_ms"); ms > 0 {
			opts = append(opts, whisper.WithSilenceThresholdMs(ms))
		}
		return whisper.New(modelPath, opts...)
	})

	reg.RegisterSTT("mock", func(entry config.ProviderEntry) (stt.Provider, error) {
		return &sttmock.Provider{}, nil
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if rate := optInt(entry.Options, "output_rate"); rate > 0 {
			opts = append(opts, coqui.WithOutputRate(rate))
		}
		return coqui.New(entry.BaseURL, opts...), nil
	})

	reg.RegisterTTS("mock", func(entry config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	// ── Embeddings ────────────────────────────────────────────────────────────

	reg.RegisterEmbeddings("openai", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	})

	for kind, names := range config.ValidProviderNames {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates every provider named in cfg. An unregistered
// name is skipped so third-party builds can layer their own registrations on
// top; any other construction error is fatal.
func buildProviders(cfg *config.Config, reg *config.Registry) (*serverProviders, error) {
	ps := &serverProviders{}

	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered, skipping", "kind", "stt", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", name, err)
		} else {
			ps.STT = p
			slog.Info("provider created", "kind", "stt", "name", name)
		}
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered, skipping", "kind", "tts", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		} else {
			ps.TTS = p
			slog.Info("provider created", "kind", "tts", "name", name)
		}
	}

	if name := cfg.Providers.Embeddings.Name; name != "" {
		p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered, skipping", "kind", "embeddings", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			ps.Embeddings = p
			slog.Info("provider created", "kind", "embeddings", "name", name)
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, semantic bool) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          ReMind — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	printProvider("Embeddings", cfg.Providers.Embeddings.Name, cfg.Providers.Embeddings.Model)
	backend := "in-memory"
	if cfg.Storage.PostgresDSN != "" {
		backend = "postgres"
	}
	fmt.Printf("║  Storage         : %-19s ║\n", backend)
	search := "substring"
	if semantic {
		search = "semantic"
	}
	fmt.Printf("║  Memory search   : %-19s ║\n", search)
	voice := "enabled"
	if !cfg.Voice.Enabled() {
		voice = "disabled"
	}
	fmt.Printf("║  Voice output    : %-19s ║\n", voice)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an integer from a provider Options map. YAML decodes
// unadorned numbers as int. Returns 0 when absent or not an int.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	n, _ := opts[key].(int)
	return n
}
