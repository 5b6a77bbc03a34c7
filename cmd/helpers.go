package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/memory"
	"github.com/mnemo-ai/mnemo/internal/providers"
	"github.com/mnemo-ai/mnemo/internal/scheduler"
	"github.com/mnemo-ai/mnemo/internal/store"
	"github.com/mnemo-ai/mnemo/internal/store/pg"
	"github.com/mnemo-ai/mnemo/internal/store/sqlite"
	"github.com/mnemo-ai/mnemo/internal/tracing"
)

// runtime is the wired-up engine plus everything that needs closing.
type runtime struct {
	cfg      *config.Config
	memories store.MemoryStore
	agents   store.AgentStore
	engine   *memory.Engine
	tasks    *scheduler.Runner

	closers []func()
}

// openRuntime loads config and builds the full pipeline: store adapter,
// provider (with embedding cache), task runner, engine, telemetry.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint != "" {
		shutdown, err := tracing.Setup(ctx, tracing.Config{
			Endpoint:    cfg.Telemetry.Endpoint,
			Protocol:    cfg.Telemetry.Protocol,
			Insecure:    cfg.Telemetry.Insecure,
			ServiceName: cfg.Telemetry.ServiceName,
			Headers:     cfg.Telemetry.Headers,
		})
		if err != nil {
			slog.Warn("telemetry disabled", "error", err)
		} else {
			rt.closers = append(rt.closers, func() { shutdown(context.Background()) })
		}
	}

	var audit store.RequestLogStore
	if cfg.Store.PostgresDSN != "" {
		db, err := pg.OpenDB(cfg.Store.PostgresDSN)
		if err != nil {
			rt.close()
			return nil, err
		}
		if err := pg.Migrate(db); err != nil {
			db.Close()
			rt.close()
			return nil, err
		}
		rt.memories = pg.NewPGMemoryStore(db)
		rt.agents = pg.NewPGAgentStore(db)
		audit = pg.NewPGRequestLogStore(db)
		rt.closers = append(rt.closers, func() { db.Close() })
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
			rt.close()
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.memories = st
		rt.agents = st
		audit = st
		rt.closers = append(rt.closers, func() { st.Close() })
	}

	provider, err := buildProvider(cfg.Provider)
	if err != nil {
		rt.close()
		return nil, err
	}

	rt.tasks = scheduler.NewRunner("memory", 2, 64)
	rt.closers = append(rt.closers, rt.tasks.Shutdown)

	rt.engine = memory.NewEngine(rt.memories, rt.agents, audit, provider, rt.tasks)
	return rt, nil
}

func buildProvider(cfg config.ProviderConfig) (memory.Provider, error) {
	pcfg := providers.Config{
		APIKey:            cfg.APIKey,
		APIBase:           cfg.APIBase,
		ChatModel:         cfg.ChatModel,
		EmbedModel:        cfg.EmbedModel,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}

	var inner memory.Provider
	var err error
	switch cfg.Kind {
	case "dashscope":
		inner, err = providers.NewDashScopeProvider(pcfg)
	default:
		inner, err = providers.NewOpenAIProvider(pcfg)
	}
	if err != nil {
		return nil, err
	}

	return providers.NewCachingProvider(inner, cfg.EmbedCacheSize)
}

// close tears the runtime down in reverse construction order, waiting
// for in-flight background tasks first.
func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// resolveAgent looks an agent up by key, creating it on first use.
func resolveAgent(ctx context.Context, rt *runtime, name string) (*store.AgentProfile, error) {
	key := config.NormalizeAgentKey(name)
	agent, err := rt.agents.GetAgentByKey(ctx, key)
	if err == nil {
		return agent, nil
	}

	agent = &store.AgentProfile{
		AgentKey:    key,
		DisplayName: name,
		Provider:    rt.cfg.Provider.Kind,
		Model:       rt.cfg.Provider.ChatModel,
	}
	if err := rt.agents.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("create agent %q: %w", key, err)
	}
	slog.Info("agent created", "key", key)
	return agent, nil
}
