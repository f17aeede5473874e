package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/aitovar/photo-listing/aitovar"
	"github.com/aitovar/photo-listing/config"
	"github.com/aitovar/photo-listing/listing"
	"github.com/aitovar/photo-listing/storage"
	"github.com/aitovar/photo-listing/vision"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	addr := config.Getenv("PL_ADDR", ":8080")
	dbPath := config.Getenv("PL_DB_PATH", "listings.db")

	storeKey := os.Getenv("PL_STORE_KEY")
	if storeKey == "" {
		log.Warn().Msg("PL_STORE_KEY is not set, using a built-in development key")
		storeKey = "photo-listing-dev"
	}

	kv, err := storage.NewSQLiteKV(dbPath, storage.DeriveKey(storeKey))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open listing store")
	}
	defer kv.Close()
	log.Info().Str("dbPath", dbPath).Msg("listing store opened")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var apiClient *aitovar.Client
	if apiURL := os.Getenv("AITOVAR_API_URL"); apiURL != "" {
		apiClient = aitovar.NewClient(aitovar.ClientOpts{
			BaseURL: apiURL,
			Auth:    os.Getenv("AITOVAR_API_TOKEN"),
		})
	}

	analyzer, err := buildAnalyzer(ctx, apiClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analyzer")
	}

	// The built-in taxonomy stands in whenever the category service is
	// unreachable or not configured.
	var taxonomy *listing.Taxonomy
	if apiClient != nil {
		taxonomy = aitovar.LoadTaxonomy(ctx, apiClient)
	} else {
		taxonomy = listing.DefaultTaxonomy()
	}

	session := NewSession(analyzer, taxonomy, kv)
	server := NewServer(session)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		session.Persist()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// buildAnalyzer picks the analysis backend: the hosted API when configured,
// Gemini when ANALYZER=gemini, and the offline mock otherwise.
func buildAnalyzer(ctx context.Context, apiClient *aitovar.Client) (aitovar.Analyzer, error) {
	mode := config.Getenv("ANALYZER", "")

	switch mode {
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" {
			log.Fatal().Msg("GEMINI_API_KEY is required when ANALYZER=gemini")
		}
		analyzer, err := vision.NewGeminiAnalyzer(ctx)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("using gemini vision analyzer")
		return analyzer, nil
	case "api":
		if apiClient == nil {
			log.Fatal().Msg("AITOVAR_API_URL is required when ANALYZER=api")
		}
		log.Info().Msg("using hosted analysis service")
		return apiClient, nil
	case "", "mock":
		if apiClient != nil && mode == "" {
			log.Info().Msg("using hosted analysis service")
			return apiClient, nil
		}
		log.Info().Msg("using offline mock analyzer")
		return aitovar.NewMockAnalyzer(), nil
	default:
		log.Fatal().Str("mode", mode).Msg("unknown ANALYZER mode, expected api, gemini or mock")
		return nil, nil
	}
}
