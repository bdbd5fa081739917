package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/ai/gemini"
	"github.com/spigell/jobgenius/internal/cache"
	"github.com/spigell/jobgenius/internal/chat"
	"github.com/spigell/jobgenius/internal/jobsource"
	"github.com/spigell/jobgenius/internal/secrets"
	"github.com/spigell/jobgenius/internal/service"
	"github.com/spigell/jobgenius/internal/storage"
)

// application bundles everything a command needs. close releases the store and the cache.
type application struct {
	store   storage.Store
	cache   *cache.Redis
	service *service.Service
}

func (a *application) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func buildStore(ctx context.Context, cfg StorageConfig, logger *zap.Logger) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", storage.DriverMemory:
		store := storage.NewMemory(logger.Named("storage"))
		if cfg.SampleData {
			if err := store.Seed(ctx, storage.SampleJobs()); err != nil {
				return nil, fmt.Errorf("seed sample jobs: %w", err)
			}
		}
		return store, nil

	case storage.DriverPostgres:
		pgCfg := cfg.Postgres
		if cfg.PostgresURL.Configured() {
			src := cfg.PostgresURL
			src.Name = "postgres url"
			url, err := secrets.Load(src)
			if err != nil {
				return nil, err
			}
			pgCfg.URL = url
		}

		store, err := storage.NewPostgres(ctx, pgCfg, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		if cfg.SampleData {
			if err := store.Seed(ctx, storage.SampleJobs()); err != nil {
				store.Close()
				return nil, fmt.Errorf("seed sample jobs: %w", err)
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// buildExternalSource merges the enabled network sources. It returns nil when none is enabled.
func buildExternalSource(cfg SourcesConfig, c *cache.Redis, logger *zap.Logger) jobsource.Source {
	client := &http.Client{Timeout: cfg.Timeout}

	var sources []jobsource.Source
	if cfg.Arbeitnow.Enabled {
		sources = append(sources, jobsource.NewArbeitnow(cfg.Arbeitnow.ArbeitnowConfig, client, logger))
	}
	if cfg.DuckDuckGo.Enabled {
		sources = append(sources, jobsource.NewDuckDuckGo(cfg.DuckDuckGo.DuckDuckGoConfig, client, logger))
	}
	if cfg.HeadHunter.Enabled {
		sources = append(sources, jobsource.NewHeadHunter(cfg.HeadHunter.HeadHunterConfig, client, logger))
	}
	if len(sources) == 0 {
		return nil
	}

	if c != nil && c.Available() {
		for i, src := range sources {
			sources[i] = jobsource.NewCached(src, c, cfg.CacheTTL, logger)
		}
	}

	return jobsource.Merge(logger, sources...)
}

// buildGenerator returns nil without an error when AI is disabled.
func buildGenerator(ctx context.Context, cfg AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	src := cfg.Gemini.APIKey
	src.Name = "gemini api key"
	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key.file, ai.gemini.api-key.env or GEMINI_API_KEY)", err)
	}

	return gemini.NewGenerator(ctx, apiKey, gemini.Options{
		Model:           cfg.Gemini.Model,
		MaxRetries:      cfg.Gemini.MaxRetries,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		MaxLogLength:    cfg.Gemini.MaxLogLength,
	}, logger)
}

func buildApplication(ctx context.Context, config *Config, store storage.Store, logger *zap.Logger) (*application, error) {
	a := &application{store: store}

	if config.Cache.Enabled {
		a.cache = cache.New(ctx, config.Cache, logger.Named("cache"))
	}

	generator, err := buildGenerator(ctx, config.AI, logger.Named("ai"))
	if err != nil {
		// chat falls back to canned replies and resume optimization to the template
		logger.Warn("generative AI is disabled", zap.Error(err))
	}

	responderOpts := []chat.Option{chat.WithLogger(logger.Named("chat")), chat.WithTimeout(config.AI.ChatTimeout)}
	deps := service.Deps{
		Store:    store,
		Local:    jobsource.NewStore(store, logger),
		External: buildExternalSource(config.Sources, a.cache, logger.Named("sources")),
		Filters:  config.Filters,
		Logger:   logger.Named("service"),
	}
	if generator != nil {
		deps.Responder = chat.NewResponder(generator, responderOpts...)
		deps.Optimizer = gemini.NewOptimizer(generator, logger.Named("optimizer"), config.AI.Gemini.MaxLogLength)
	} else {
		deps.Responder = chat.NewResponder(nil, responderOpts...)
	}

	svc, err := service.New(deps)
	if err != nil {
		a.close()
		return nil, err
	}
	a.service = svc

	return a, nil
}

var errNoSkills = errors.New("no skills given: use --skills or profile.skills")
