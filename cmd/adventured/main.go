// Command adventured runs the adventure-simulator game server: the
// tick loop for the resident session plus the HTTP generation API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oiahoon/adventure-simulator/internal/api"
	"github.com/oiahoon/adventure-simulator/internal/character"
	"github.com/oiahoon/adventure-simulator/internal/config"
	"github.com/oiahoon/adventure-simulator/internal/engine"
	"github.com/oiahoon/adventure-simulator/internal/entropy"
	"github.com/oiahoon/adventure-simulator/internal/llm"
	"github.com/oiahoon/adventure-simulator/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := entropy.NewSource(seed)

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		// Storage failure degrades to in-memory operation.
		slog.Warn("database unavailable, running in memory", "path", cfg.DBPath, "error", err)
		db = nil
	} else {
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	}

	// ── LLM Client ────────────────────────────────────────────────────
	client := llm.NewClient(cfg.APIKey,
		llm.WithBaseURL(cfg.BaseURL),
		llm.WithModel(cfg.Model),
		llm.WithTimeout(cfg.RequestTimeout),
		llm.WithMinDelay(cfg.MinCallDelay),
	)
	if client.Enabled() {
		slog.Info("LLM client enabled", "model", cfg.Model)
	} else {
		slog.Warn("DEEPSEEK_API_KEY not set — LLM generation disabled, using cache and templates")
	}

	// ── Session ───────────────────────────────────────────────────────
	opts := engine.DefaultOptions()
	opts.LevelCap = cfg.LevelCap
	opts.AutosaveEvery = cfg.AutosaveTicks

	session := loadOrCreateSession(cfg, opts, client, db, rng, seed)
	c := session.State.Character
	slog.Info("session ready",
		"character", c.Name,
		"storyline", c.Storyline,
		"level", c.Level,
		"cultivation", c.Status.Cultivation,
		"game_time", session.State.GameTime,
	)

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{
		Client:   client,
		DB:       db,
		RNG:      rng,
		Port:     cfg.Port,
		LevelCap: cfg.LevelCap,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Game loop ─────────────────────────────────────────────────────
	loop := engine.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
		loop.Stop()
	}()

	loop.Run(ctx, session)

	slog.Info("final save...")
	if err := session.Save(); err != nil {
		slog.Error("final save failed", "error", err)
	}
}

// loadOrCreateSession resumes the resident session when a save exists,
// otherwise rolls a fresh character.
func loadOrCreateSession(cfg *config.Config, opts engine.Options, client *llm.Client, db *persistence.DB, rng *entropy.Source, seed int64) *engine.Session {
	const residentSave = "resident"

	if db != nil {
		session, err := engine.LoadSession(residentSave, opts, client, db, rng, seed)
		if err == nil {
			slog.Info("resumed saved session", "id", residentSave)
			return session
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			slog.Warn("saved session unreadable, starting fresh", "error", err)
		}
	}

	name := os.Getenv("CHARACTER_NAME")
	if name == "" {
		name = "云逸"
	}
	c := character.New(name, character.ProfessionWarrior)
	state := engine.NewState(c, "village")

	id := residentSave
	if db == nil {
		id = uuid.NewString()
	}
	return engine.NewSession(id, state, opts, client, db, rng, seed)
}
