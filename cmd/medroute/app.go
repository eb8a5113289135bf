package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/medroute/internal/adapters/driven/ai"
	artifactfile "github.com/custodia-labs/medroute/internal/adapters/driven/artifact/file"
	configfile "github.com/custodia-labs/medroute/internal/adapters/driven/config/file"
	"github.com/custodia-labs/medroute/internal/adapters/driven/docsource/jsonfile"
	"github.com/custodia-labs/medroute/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medroute/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/medroute/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/medroute/internal/adapters/driving/cli"
	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/core/services"
	"github.com/custodia-labs/medroute/internal/logger"
)

// app wires the driven adapters behind the driving ports. The embedding
// provider and the SQLite store are opened on first use so that commands
// such as settings work while a provider is unreachable.
type app struct {
	settings *services.SettingsService
	cfg      *domain.AppSettings
	source   driven.DocumentSource
	store    driven.ArtifactStore

	mu      sync.Mutex
	db      *sqlite.Store
	cache   driven.EmbeddingCache
	history driven.BuildHistory
	embed   driven.EmbeddingService
	encoder *services.Encoder
}

func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := configfile.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator(), configDir)

	cfg, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}
	if opts.ArtifactDir != "" {
		cfg.Router.ArtifactDir = opts.ArtifactDir
	}
	logger.Debug("config: %s, router: %s", configDir, cfg.Router.ArtifactDir)

	a := &app{
		settings: settingsSvc,
		cfg:      cfg,
		source:   jsonfile.NewDocumentSource(),
		store:    artifactfile.NewArtifactStore(cfg.Router.ArtifactDir),
	}
	return &cli.Services{
		Settings: settingsSvc,
		Build:    &buildPort{app: a},
		Query:    a.loadQueryService,
		Close:    a.close,
	}, nil
}

// storage opens the SQLite store when caching is enabled, or falls back to
// process-local memory adapters.
func (a *app) storage() error {
	if a.cache != nil {
		return nil
	}
	if !a.cfg.Cache.Enabled {
		a.cache = memory.NewEmbeddingCache()
		a.history = memory.NewBuildHistory()
		return nil
	}
	db, err := sqlite.NewStore(a.cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	a.db = db
	a.cache = db.EmbeddingCache()
	a.history = db.BuildHistory()
	return nil
}

func (a *app) loadEncoder(ctx context.Context) (*services.Encoder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder != nil {
		return a.encoder, nil
	}
	if err := a.storage(); err != nil {
		return nil, err
	}
	svc, err := ai.CreateAndValidateEmbeddingService(ctx, &a.cfg.Embedding)
	if err != nil {
		return nil, err
	}
	a.embed = svc
	a.encoder = services.NewEncoder(svc, a.cache, services.EncoderConfig{
		BatchSize:  a.cfg.Embedding.BatchSize,
		MaxWorkers: a.cfg.Embedding.MaxWorkers,
	})
	return a.encoder, nil
}

func (a *app) buildHistory() (driven.BuildHistory, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.storage(); err != nil {
		return nil, err
	}
	return a.history, nil
}

func (a *app) loadQueryService(ctx context.Context) (driving.QueryService, error) {
	artifact, err := a.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return nil, fmt.Errorf("%w: no router at %s. Run 'medroute build' first", err, a.store.Location())
		}
		return nil, err
	}

	encoder, err := a.loadEncoder(ctx)
	if err != nil {
		return nil, err
	}
	router, err := services.NewTopicRouter(artifact, encoder)
	if err != nil {
		if errors.Is(err, domain.ErrModelMismatch) {
			return nil, fmt.Errorf("%w. Rebuild with 'medroute build'", err)
		}
		return nil, err
	}

	return services.NewQueryService(router, encoder, a.source, flat.Factory, services.NewIndexCache(),
		services.QueryConfig{MaxAbstractChars: a.cfg.Retrieval.MaxAbstractChars}), nil
}

func (a *app) close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.embed != nil {
		errs = append(errs, a.embed.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// buildPort defers opening the embedding provider until a build runs.
type buildPort struct {
	app *app
}

func (p *buildPort) Build(ctx context.Context, opts domain.BuildOptions) (*domain.BuildReport, error) {
	encoder, err := p.app.loadEncoder(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewBuildService(p.app.source, encoder, p.app.store, p.app.history).Build(ctx, opts)
}

func (p *buildPort) History(ctx context.Context, limit int) ([]domain.BuildReport, error) {
	history, err := p.app.buildHistory()
	if err != nil {
		return nil, err
	}
	return services.NewBuildService(p.app.source, nil, p.app.store, history).History(ctx, limit)
}
