package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m2tx/solarshine/assets"
	"github.com/m2tx/solarshine/internal/catalog"
	"github.com/m2tx/solarshine/internal/chat"
	"github.com/m2tx/solarshine/internal/config"
	"github.com/m2tx/solarshine/internal/functions"
	"github.com/m2tx/solarshine/internal/knowledge"
	"github.com/m2tx/solarshine/internal/repository"
	"github.com/m2tx/solarshine/internal/server"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	c, err := catalog.Load(assets.Catalog)
	if err != nil {
		log.Fatal(err)
	}

	index := knowledge.NewIndex(logger)
	if err := index.Load(assets.Dir, assets.FAQDir); err != nil {
		log.Fatal(err)
	}

	tools, err := functions.NewToolset(c, index)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	transcripts, closeTranscripts, err := openTranscripts(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer closeTranscripts()

	provider := chat.NewGeminiProvider(chat.GeminiConfig{
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout,
	}, tools, logger)

	sessions := chat.NewSessionManager(provider, chat.SessionConfig{
		Model:             cfg.Model,
		SystemInstruction: assets.SystemInstruction,
	}, logger)

	exchanger := chat.NewExchanger(sessions, !cfg.Degraded(),
		chat.WithTimeout(cfg.RequestTimeout),
		chat.WithTranscripts(transcripts),
		chat.WithLogger(logger),
	)

	if cfg.Degraded() {
		logger.Warn("chat.degraded", slog.String("reason", "GEMINI_API_KEY not set"))
	}

	if cfg.AdminToken == "" {
		logger.Info("server.transcripts.disabled", slog.String("reason", "ADMIN_TOKEN not set"))
	}

	srv := server.New(server.Config{
		AdminToken: cfg.AdminToken,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	}, exchanger, c, transcripts, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.listen", slog.String("addr", httpServer.Addr), slog.String("model", cfg.Model))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.shutdown", slog.String("error", err.Error()))
	}
	logger.Info("http.stopped")
}

// openTranscripts returns the Mongo transcript store when MONGODB_URI is set
// and an in-memory store otherwise.
func openTranscripts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.TranscriptRepository, func(), error) {
	if cfg.MongoURI == "" {
		logger.Info("transcripts.memory")
		return repository.NewMemoryTranscriptRepository(0), func() {}, nil
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb.disconnect", slog.String("error", err.Error()))
		}
	}

	repo := repository.NewMongoTranscriptRepository(mongoClient.Database(cfg.MongoDB), cfg.TranscriptCollection)

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := repo.EnsureIndexes(indexCtx); err != nil {
		closeFn()
		return nil, nil, err
	}

	logger.Info("transcripts.mongodb", slog.String("db", cfg.MongoDB), slog.String("collection", cfg.TranscriptCollection))
	return repo, closeFn, nil
}
