// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"time"

	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/pingcap/sqlast/pkg/service"
	"github.com/samber/lo"
	"google.golang.org/grpc"
)

// GRPCServiceName is the service name in sql_parser.proto.
const GRPCServiceName = "sql_parser.SqlParserService"

type ParseSQLRequest struct {
	SQL     string
	Dialect string
	NoCache bool
}

type ParseSQLSuccess struct {
	ASTJSON   string
	Cached    bool
	ElapsedMs float64
}

type RequestError struct {
	ErrorMessage string
	ElapsedMs    float64
}

// ParseSQLResponse sets exactly one of Success and Error.
type ParseSQLResponse struct {
	Success *ParseSQLSuccess
	Error   *RequestError
}

type FingerprintSQLRequest struct {
	SQL         string
	Dialect     string
	MaxInValues *uint32
}

type FingerprintSQLSuccess struct {
	Fingerprint string
	Digest      string
	ElapsedMs   float64
}

// FingerprintSQLResponse sets exactly one of Success and Error.
type FingerprintSQLResponse struct {
	Success *FingerprintSQLSuccess
	Error   *RequestError
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Status  string
	Version string
}

// SQLParserServer is the gRPC service. Request failures are reported in the
// response body, not as gRPC status codes.
type SQLParserServer interface {
	ParseSQL(context.Context, *ParseSQLRequest) (*ParseSQLResponse, error)
	GenerateFingerprint(context.Context, *FingerprintSQLRequest) (*FingerprintSQLResponse, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

var sqlParserServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*SQLParserServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ParseSql",
			Handler: unaryHandler("ParseSql", func(srv SQLParserServer, ctx context.Context, req *ParseSQLRequest) (any, error) {
				return srv.ParseSQL(ctx, req)
			}),
		},
		{
			MethodName: "GenerateFingerprint",
			Handler: unaryHandler("GenerateFingerprint", func(srv SQLParserServer, ctx context.Context, req *FingerprintSQLRequest) (any, error) {
				return srv.GenerateFingerprint(ctx, req)
			}),
		},
		{
			MethodName: "HealthCheck",
			Handler: unaryHandler("HealthCheck", func(srv SQLParserServer, ctx context.Context, req *HealthCheckRequest) (any, error) {
				return srv.HealthCheck(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sql_parser.proto",
}

func unaryHandler[Req any](method string, call func(SQLParserServer, context.Context, *Req) (any, error)) grpc.MethodHandler {
	fullMethod := "/" + GRPCServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SQLParserServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SQLParserServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type sqlParserService struct {
	h *Server
}

var _ SQLParserServer = (*sqlParserService)(nil)

func (s *sqlParserService) ParseSQL(ctx context.Context, req *ParseSQLRequest) (*ParseSQLResponse, error) {
	start := time.Now()
	res, err := s.h.mgr.Service.Parse(ctx, service.ParseRequest{
		SQL:     req.SQL,
		Dialect: dialectOrDefault(req.Dialect),
		NoCache: req.NoCache,
	})
	if err != nil {
		_, result := errorStatus(err)
		s.observe(metrics.OpParse, result, start)
		return &ParseSQLResponse{Error: &RequestError{ErrorMessage: err.Error(), ElapsedMs: elapsedMs(start)}}, nil
	}
	s.observe(metrics.OpParse, metrics.ResultOK, start)
	return &ParseSQLResponse{Success: &ParseSQLSuccess{
		ASTJSON:   string(res.AST),
		Cached:    res.Cached,
		ElapsedMs: elapsedMs(start),
	}}, nil
}

func (s *sqlParserService) GenerateFingerprint(ctx context.Context, req *FingerprintSQLRequest) (*FingerprintSQLResponse, error) {
	start := time.Now()
	var maxInValues *int
	if req.MaxInValues != nil {
		maxInValues = lo.ToPtr(int(*req.MaxInValues))
	}
	res, err := s.h.mgr.Service.Fingerprint(ctx, service.FingerprintRequest{
		SQL:         req.SQL,
		Dialect:     dialectOrDefault(req.Dialect),
		MaxInValues: maxInValues,
	})
	if err != nil {
		_, result := errorStatus(err)
		s.observe(metrics.OpFingerprint, result, start)
		return &FingerprintSQLResponse{Error: &RequestError{ErrorMessage: err.Error(), ElapsedMs: elapsedMs(start)}}, nil
	}
	s.observe(metrics.OpFingerprint, metrics.ResultOK, start)
	return &FingerprintSQLResponse{Success: &FingerprintSQLSuccess{
		Fingerprint: res.Fingerprint,
		Digest:      res.Digest,
		ElapsedMs:   elapsedMs(start),
	}}, nil
}

func (s *sqlParserService) HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error) {
	info := s.h.healthInfo()
	return &HealthCheckResponse{Status: info.Status, Version: info.Version}, nil
}

func (s *sqlParserService) observe(op, result string, start time.Time) {
	metrics.APIRequestCounter.WithLabelValues(op, result).Inc()
	metrics.APIDurationHistogram.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Proto3 strings default to "", which means the default dialect.
func dialectOrDefault(name string) string {
	if name == "" {
		return defaultDialect
	}
	return name
}

func (h *Server) registerGrpc() {
	h.grpc.RegisterService(&sqlParserServiceDesc, &sqlParserService{h: h})
}
