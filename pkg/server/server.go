// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"runtime"

	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	"github.com/pingcap/sqlast/pkg/dialect"
	mgrcfg "github.com/pingcap/sqlast/pkg/manager/config"
	"github.com/pingcap/sqlast/pkg/manager/logger"
	"github.com/pingcap/sqlast/pkg/manager/memory"
	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/pingcap/sqlast/pkg/sctx"
	"github.com/pingcap/sqlast/pkg/server/api"
	"github.com/pingcap/sqlast/pkg/service"
	"github.com/pingcap/sqlast/pkg/util/versioninfo"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Server struct {
	wg waitgroup.WaitGroup
	// managers
	ConfigManager  *mgrcfg.ConfigManager
	MetricsManager *metrics.MetricsManager
	LoggerManager  *logger.LoggerManager
	MemoryManager  *memory.MemManager
	// parse and fingerprint with the AST cache
	Service *service.Service
	// HTTP and gRPC server
	APIServer *api.Server
}

func NewServer(ctx context.Context, sctx *sctx.Context) (srv *Server, err error) {
	srv = &Server{
		ConfigManager:  mgrcfg.NewConfigManager(),
		MetricsManager: metrics.NewMetricsManager(),
		wg:             waitgroup.WaitGroup{},
	}

	ready := atomic.NewBool(false)

	// set up logger
	var lg *zap.Logger
	if srv.LoggerManager, lg, err = logger.NewLoggerManager(&sctx.Overlay.Log); err != nil {
		return
	}
	srv.LoggerManager.Init(srv.ConfigManager.WatchConfig())

	// setup config manager
	if err = srv.ConfigManager.Init(ctx, lg.Named("config"), sctx.ConfigFile, &sctx.Overlay); err != nil {
		err = errors.WithStack(err)
		return
	}
	cfg := srv.ConfigManager.GetConfig()

	// The log file configured in the config file is only used after the config
	// manager is initialized, so print the info after that.
	level := lg.Level()
	srv.LoggerManager.SetLoggerLevel(zap.InfoLevel)
	printInfo(lg)
	srv.LoggerManager.SetLoggerLevel(level)

	// setup metrics
	srv.MetricsManager.Init(ctx, lg.Named("metrics"))
	metrics.ServerEventCounter.WithLabelValues(metrics.EventStart).Inc()

	// setup service
	srv.Service = service.NewService(lg.Named("service"), dialect.Default(), &cfg.Cache, srv.ConfigManager)

	// setup memory manager, which purges the cache when the memory runs short
	srv.MemoryManager = memory.NewMemManager(lg.Named("memory"), srv.ConfigManager, srv.Service.PurgeCache)
	srv.MemoryManager.Start(ctx)

	// setup http & grpc
	if srv.APIServer, err = api.NewServer(cfg.API, lg.Named("api"), api.Managers{
		CfgMgr:  srv.ConfigManager,
		Service: srv.Service,
	}, ready); err != nil {
		return
	}
	lg.Info("server started", zap.String("addr", srv.APIServer.Addr()),
		zap.Int("cache-capacity", cfg.Cache.MaxCapacity), zap.Uint64("cache-ttl", cfg.Cache.TTL))

	ready.Toggle()
	return
}

func printInfo(lg *zap.Logger) {
	fields := []zap.Field{
		zap.String("Release Version", versioninfo.SQLAstVersion),
		zap.String("Git Commit Hash", versioninfo.SQLAstGitHash),
		zap.String("Git Branch", versioninfo.SQLAstGitBranch),
		zap.String("UTC Build Time", versioninfo.SQLAstBuildTS),
		zap.String("GoVersion", runtime.Version()),
		zap.String("OS", runtime.GOOS),
		zap.String("Arch", runtime.GOARCH),
	}
	lg.Info("Welcome to SQLAst.", fields...)
}

func (s *Server) Close() error {
	metrics.ServerEventCounter.WithLabelValues(metrics.EventClose).Inc()

	errs := make([]error, 0, 4)
	if s.APIServer != nil {
		errs = append(errs, s.APIServer.Close())
	}
	if s.MemoryManager != nil {
		s.MemoryManager.Close()
	}
	if s.Service != nil {
		s.Service.PurgeCache()
	}
	if s.ConfigManager != nil {
		errs = append(errs, s.ConfigManager.Close())
	}
	if s.MetricsManager != nil {
		s.MetricsManager.Close()
	}
	if s.LoggerManager != nil {
		errs = append(errs, s.LoggerManager.Close())
	}
	s.wg.Wait()
	return errors.Collect(ErrCloseServer, errs...)
}
