package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fanshorts/internal/adapter/repo"
	"fanshorts/internal/http/handlers"
	httpapi "fanshorts/internal/http/httpapi"
	"fanshorts/internal/infra"
	"fanshorts/internal/infra/credentials"
	"fanshorts/internal/infra/geoip"
	"fanshorts/internal/middleware"
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

	// Env tokens win; the DB-backed store is the rotation fallback.
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

	replicateClient := replicate.NewClient(replicate.Options{
		Token:          replicateToken,
		BaseURL:        cfg.ReplicateBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
	higgsfieldClient := higgsfield.NewClient(higgsfield.Options{
		APIKey:         hfKey,
		Secret:         hfSecret,
		BaseURL:        cfg.HiggsfieldBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.ProviderTimeout,
	})

	generationRepo := repo.NewGenerationRepository(dbpool)
	motionRepo := repo.NewMotionVideoRepository(dbpool)
	conceptRepo := repo.NewConceptImageRepository(dbpool)
	characterRepo := repo.NewCharacterImageRepository(dbpool)
	analyticsRepo := repo.NewAnalyticsRepository(dbpool)

	generations := service.NewGenerationService(service.GenerationServiceOptions{
		Repo:       generationRepo,
		Motions:    motionRepo,
		Concepts:   conceptRepo,
		Analytics:  analyticsRepo,
		Replicate:  replicateClient,
		Higgsfield: higgsfieldClient,
		Artifacts:  storage.NewArtifactStore(store, nil),
		Store:      store,
		Logger:     logger,
	})
	library := service.NewLibraryService(service.LibraryServiceOptions{
		Motions:     motionRepo,
		Concepts:    conceptRepo,
		Characters:  characterRepo,
		Generations: generationRepo,
		Store:       store,
		Logger:      logger,
	})

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(generations, library, analyticsRepo, higgsfieldClient, logger)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
