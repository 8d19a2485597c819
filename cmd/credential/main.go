// Command credential seeds provider API keys into the database-backed
// credential store, used when tokens are not supplied via environment.
//
//	credential -provider replicate -token r8_xxx
//	credential -provider higgsfield -key hf_xxx -secret hf_yyy
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"fanshorts/internal/infra"
	"fanshorts/internal/infra/credentials"
)

func main() {
	provider := flag.String("provider", "", "provider name: replicate or higgsfield")
	token := flag.String("token", "", "replicate api token")
	key := flag.String("key", "", "higgsfield api key")
	secret := flag.String("secret", "", "higgsfield api secret")
	flag.Parse()

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

	store := credentials.NewStore(dbpool)
	switch *provider {
	case credentials.ProviderReplicate:
		if err := store.SetReplicateToken(ctx, *token); err != nil {
			logger.Fatal().Err(err).Msg("failed to store replicate token")
		}
	case credentials.ProviderHiggsfield:
		if err := store.SetHiggsfieldKeys(ctx, *key, *secret); err != nil {
			logger.Fatal().Err(err).Msg("failed to store higgsfield keys")
		}
	default:
		logger.Fatal().Str("provider", *provider).Msg("unknown provider")
	}
	logger.Info().Str("provider", *provider).Msg("credential stored")
}
