// Command reconcile runs one manual reconciliation pass: every generation
// with an unfinished lifecycle is ticked once through the same state machine
// that serves client polls. Useful after a crash or when the submitting
// client never came back to poll.
package main

import (
	"context"

	"github.com/joho/godotenv"

	"fanshorts/internal/adapter/repo"
	"fanshorts/internal/infra"
	"fanshorts/internal/infra/credentials"
	"fanshorts/internal/providers/higgsfield"
	"fanshorts/internal/providers/replicate"
	"fanshorts/internal/service"
	"fanshorts/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	var store storage.Store
	if cfg.StorageBackend == "filesystem" {
		fs, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init filesystem storage")
		}
		store = fs
	} else {
		sb, err := storage.NewSupabaseStore(storage.SupabaseOptions{
			BaseURL:    cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.SupabaseBucket,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init supabase storage")
		}
		store = sb
	}

	creds := credentials.NewStore(dbpool)
	replicateToken := cfg.ReplicateToken
	if replicateToken == "" {
		replicateToken, _ = creds.ReplicateToken(ctx)
	}
	hfKey, hfSecret := cfg.HiggsfieldAPIKey, cfg.HiggsfieldSecret
	if hfKey == "" || hfSecret == "" {
		if key, secret, err := creds.HiggsfieldKeys(ctx); err == nil && key != "" {
			hfKey, hfSecret = key, secret
		}
	}

	generations := service.NewGenerationService(service.GenerationServiceOptions{
		Repo:     repo.NewGenerationRepository(dbpool),
		Motions:  repo.NewMotionVideoRepository(dbpool),
		Concepts: repo.NewConceptImageRepository(dbpool),
		Replicate: replicate.NewClient(replicate.Options{
			Token:          replicateToken,
			BaseURL:        cfg.ReplicateBaseURL,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		Higgsfield: higgsfield.NewClient(higgsfield.Options{
			APIKey:         hfKey,
			Secret:         hfSecret,
			BaseURL:        cfg.HiggsfieldBaseURL,
			Logger:         &logger,
			RequestTimeout: cfg.ProviderTimeout,
		}),
		Artifacts: storage.NewArtifactStore(store, nil),
		Store:     store,
		Logger:    logger,
	})

	ticked, err := generations.Reconcile(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconcile pass failed")
	}
	logger.Info().Int("ticked", ticked).Msg("reconcile pass finished")
}
