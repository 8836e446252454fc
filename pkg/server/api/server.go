// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/waitgroup"
	mgrcfg "github.com/pingcap/sqlast/pkg/manager/config"
	"github.com/pingcap/sqlast/pkg/service"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const (
	// DefConnTimeout is used as timeout duration in the HTTP server.
	DefConnTimeout = 30 * time.Second

	headerRequestID = "X-Request-Id"
	ctxRequestID    = "request_id"
)

type Managers struct {
	CfgMgr  *mgrcfg.ConfigManager
	Service *service.Service
}

// Server serves the HTTP API and the gRPC service on one port. gRPC requests
// arrive as HTTP/2 cleartext and are dispatched by content type.
type Server struct {
	listener net.Listener
	wg       waitgroup.WaitGroup
	limit    ratelimit.Limiter
	ready    *atomic.Bool
	lg       *zap.Logger
	grpc     *grpc.Server
	mgr      Managers
}

func NewServer(cfg config.API, lg *zap.Logger, mgr Managers, ready *atomic.Bool) (*Server, error) {
	grpcOpts := []grpc_zap.Option{
		grpc_zap.WithLevels(func(code codes.Code) zapcore.Level {
			if code == codes.OK {
				return zap.DebugLevel
			}
			return zap.InfoLevel
		}),
	}
	h := &Server{
		limit: ratelimit.NewUnlimited(),
		ready: ready,
		lg:    lg,
		grpc: grpc.NewServer(
			grpc.ForceServerCodec(wireCodec{}),
			grpc_middleware.WithUnaryServerChain(
				grpc_ctxtags.UnaryServerInterceptor(grpc_ctxtags.WithFieldExtractor(grpc_ctxtags.CodeGenRequestFieldExtractor)),
				grpc_zap.UnaryServerInterceptor(lg.Named("grpcu"), grpcOpts...),
			),
		),
		mgr: mgr,
	}
	if cfg.MaxRequestsPerSecond > 0 {
		h.limit = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	var err error
	h.listener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.UseH2C = true
	engine.Use(
		gin.Recovery(),
		h.rateLimit,
		h.readyState,
		h.grpcServer,
		h.requestID,
		h.attachLogger,
	)

	h.registerGrpc()
	h.registerAPI(engine.Group("/api"))
	h.registerRoot(engine.Group("/"))
	// The paths are consistent with other components.
	h.registerMetrics(engine.Group("metrics"))

	hsrv := http.Server{
		Handler:           engine.Handler(),
		ReadHeaderTimeout: DefConnTimeout,
		IdleTimeout:       DefConnTimeout,
	}

	h.wg.RunWithRecover(func() {
		lg.Info("HTTP closed", zap.Error(hsrv.Serve(h.listener)))
	}, nil, h.lg)

	return h, nil
}

// Addr is the address the server listens on, which differs from the
// configured one when the configured port is 0.
func (h *Server) Addr() string {
	return h.listener.Addr().String()
}

func (h *Server) rateLimit(c *gin.Context) {
	_ = h.limit.Take()
}

func (h *Server) requestID(c *gin.Context) {
	id := c.GetHeader(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(ctxRequestID, id)
	c.Header(headerRequestID, id)
	c.Next()
}

func (h *Server) attachLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	latency := time.Since(start)

	fields := make([]zapcore.Field, 0, 8)
	fields = append(fields,
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("ip", c.ClientIP()),
		zap.String("user-agent", c.Request.UserAgent()),
		zap.String("request-id", c.GetString(ctxRequestID)),
		zap.Duration("latency", latency),
	)

	path := c.Request.URL.Path
	switch {
	case len(c.Errors) > 0:
		errs := make([]error, 0, len(c.Errors))
		for _, e := range c.Errors {
			errs = append(errs, e)
		}
		fields = append(fields, zap.Errors("errs", errs))
		h.lg.Warn(path, fields...)
	default:
		h.lg.Debug(path, fields...)
	}
}

func (h *Server) readyState(c *gin.Context) {
	if !h.ready.Load() {
		c.Abort()
		c.JSON(http.StatusInternalServerError, "service not ready")
	}
}

func (h *Server) grpcServer(ctx *gin.Context) {
	if ctx.Request.ProtoMajor == 2 && strings.HasPrefix(ctx.GetHeader("Content-Type"), "application/grpc") {
		ctx.Status(http.StatusOK)
		h.grpc.ServeHTTP(ctx.Writer, ctx.Request)
		ctx.Abort()
	} else {
		ctx.Next()
	}
}

func (h *Server) registerAPI(g *gin.RouterGroup) {
	h.registerSQL(g)
	h.registerConfig(g.Group("admin").Group("config"))
	h.registerMetrics(g.Group("metrics"))
	h.registerDebug(g.Group("debug"))
}

func (h *Server) Close() error {
	err := h.listener.Close()
	h.wg.Wait()
	h.grpc.Stop()
	return err
}
