package cmd

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"aitools-backend/internal/cache"
	"aitools-backend/internal/config"
	"aitools-backend/internal/inference"
	"aitools-backend/internal/metrics"
	"aitools-backend/internal/storage"
)

func EnvFileFlag() string {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
	}

	return configPath
}

// SetupLogFile tees log output to path in addition to stderr. The returned
// closer must be closed on shutdown.
func SetupLogFile(path string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	return f
}

// CreateBindings registers a binding for every provider with credentials in
// cfg. Workers AI is the default provider for tools that do not name one.
func CreateBindings(cfg *config.Config) *inference.Router {
	router := inference.NewRouter(inference.ProviderWorkersAI)

	register := func(provider string, b inference.Binding) {
		router.Register(provider, metrics.InstrumentBinding(provider, b))
		slog.Info("registered inference provider", "provider", provider)
	}

	if cfg.WorkersAIConfigured() {
		register(inference.ProviderWorkersAI, inference.NewWorkersAI(cfg.WorkersAIBaseURL, cfg.CloudflareAccountID, cfg.CloudflareAPIToken))
	} else {
		slog.Warn("CLOUDFLARE_ACCOUNT_ID or CLOUDFLARE_API_TOKEN not set, tools served by workers ai will fail")
	}

	if cfg.OpenAIAPIKey != "" {
		register(inference.ProviderOpenAI, inference.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL))
	}

	if cfg.AnthropicAPIKey != "" {
		register(inference.ProviderAnthropic, inference.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicMaxTokens))
	}

	if cfg.OllamaURL != "" {
		register(inference.ProviderOllama, inference.NewOllama(cfg.OllamaURL))
	}

	return router
}

func CreateHistoryCache(ctx context.Context, cfg *config.Config) cache.HistoryCache {
	switch strings.ToLower(cfg.HistoryCache) {
	case "memory":
		slog.Info("caching history listings in process")
		return cache.NewMemoryCache()
	case "none":
		return cache.NoopCache{}
	case "redis", "":
	default:
		log.Fatalf("unknown HISTORY_CACHE %q, expected memory, redis or none", cfg.HistoryCache)
	}

	if cfg.RedisAddr == "" {
		if cfg.HistoryCache != "" {
			log.Fatalf("HISTORY_CACHE=redis requires REDIS_ADDR")
		}
		slog.Info("REDIS_ADDR not set, history listings are not cached")
		return cache.NoopCache{}
	}

	c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.HistoryCacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	return c
}

// CreateImageArchive returns nil when neither an archive bucket nor a local
// archive directory is configured.
func CreateImageArchive(ctx context.Context, cfg *config.Config) *storage.ImageArchive {
	var (
		provider storage.Provider
		bucket   string
	)

	switch {
	case cfg.ImageArchiveBucket != "":
		s3p, err := storage.NewS3Provider(ctx, &storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 provider: %v", err)
		}
		provider, bucket = s3p, cfg.ImageArchiveBucket
	case cfg.ImageArchiveDir != "":
		local, err := storage.NewLocalProvider(cfg.ImageArchiveDir)
		if err != nil {
			log.Fatalf("Failed to create local storage provider: %v", err)
		}
		provider, bucket = local, "images"
	default:
		return nil
	}

	archive, err := storage.NewImageArchive(ctx, provider, bucket)
	if err != nil {
		log.Fatalf("Failed to create image archive: %v", err)
	}
	slog.Info("archiving generated images", "bucket", bucket)

	return archive
}
