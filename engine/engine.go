package engine

import (
	"context"
	"fmt"
	"log"

	"reportfire/di"
	"reportfire/internal/db"
	"reportfire/internal/executor"
	"reportfire/internal/lifecycle"
	"reportfire/internal/listener"
	"reportfire/internal/report"
	"reportfire/internal/runtime"
	"reportfire/internal/scheduler"
	"reportfire/types/config"
	"reportfire/web"
)

// Engine is the running scheduling instance: one trigger runtime, one
// scheduler, and a lifecycle service per registered report family.
type Engine struct {
	cfg      *config.EngineConfig
	deps     *di.Dependencies
	rt       *runtime.TimerRuntime
	families map[string]*lifecycle.Service
}

// New wires storage, the runtime and every registered family, then starts the
// dashboard if one is configured. Each family needs a data source under its
// name; a missing source or a failed listener registration aborts the boot.
func New(ctx context.Context, cfg *config.EngineConfig, sources map[string]report.DataSource) (*Engine, error) {
	deps, err := di.GetDependencies(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.StorageDriver == config.Postgres {
		if err := db.Init(deps.SqlDB, deps.LockMgr); err != nil {
			return nil, err
		}
	}

	if cfg.DashboardAuthEnabled && deps.Users != nil {
		if _, err := deps.Users.Create(ctx, cfg.DashboardUserName, cfg.DashboardPassword); err != nil {
			log.Println("failed to create dashboard user:", err)
		}
	}

	rt := runtime.NewTimerRuntime()
	if err := rt.Start(ctx); err != nil {
		return nil, err
	}

	sched := scheduler.NewService(rt, deps.Records)
	artifacts := report.NewLocalArtifactStore(cfg.ArtifactDir)

	families := make(map[string]*lifecycle.Service, len(cfg.Families))
	for _, fam := range cfg.Families {
		source, ok := sources[fam.Name]
		if !ok {
			rt.Stop()
			return nil, fmt.Errorf("no data source registered for family '%s'", fam.Name)
		}

		if err := rt.RegisterListener(fam.Name, listener.NewFireCountListener(deps.Records, deps.LockMgr)); err != nil {
			rt.Stop()
			return nil, err
		}

		exec := executor.NewService(executor.Config{
			Space:         fam.Space,
			Destination:   fam.Destination,
			TemplateType:  fam.TemplateType,
			MaxConcurrent: int64(cfg.WorkerCount),
		}, source, nil, artifacts, deps.Notifier)

		families[fam.Name] = lifecycle.NewService(fam.Name, deps.Records, deps.Monitor, sched, exec, deps.LockMgr)
	}

	eng := &Engine{
		cfg:      cfg,
		deps:     deps,
		rt:       rt,
		families: families,
	}

	if cfg.DashboardAuthEnabled {
		handler := web.NewRouteHandler(
			families, deps.Records, deps.Monitor, deps.Users,
			cfg.SecretKey, true, cfg.DashboardPort,
		)
		go func() {
			if err := handler.Serve(); err != nil {
				log.Println("dashboard server stopped:", err)
			}
		}()
	}

	return eng, nil
}

// Family returns the lifecycle service of a registered family.
func (e *Engine) Family(name string) (*lifecycle.Service, error) {
	svc, ok := e.families[name]
	if !ok {
		return nil, fmt.Errorf("unknown family '%s'", name)
	}
	return svc, nil
}

// Shutdown stops the runtime and closes storage and the notifier. Trigger
// loops and execution goroutines exit before the runtime stop returns, but
// executions see a cancelled context and are not guaranteed to complete.
func (e *Engine) Shutdown() {
	e.rt.Stop()

	if err := e.deps.Notifier.Close(); err != nil {
		log.Println("failed to close notifier:", err)
	}
	if err := e.deps.Monitor.Close(); err != nil {
		log.Println("failed to close monitoring store:", err)
	}
	if err := e.deps.Records.Close(); err != nil {
		log.Println("failed to close record store:", err)
	}
}
