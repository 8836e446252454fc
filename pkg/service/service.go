// Copyright 2026 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package service serves parse and fingerprint requests on top of the
// dialect registry, the parse cache and the fingerprint engine.
package service

import (
	"context"
	"time"

	"github.com/pingcap/sqlast/lib/config"
	"github.com/pingcap/sqlast/lib/util/errors"
	"github.com/pingcap/sqlast/pkg/cache"
	"github.com/pingcap/sqlast/pkg/dialect"
	"github.com/pingcap/sqlast/pkg/fingerprint"
	"github.com/pingcap/sqlast/pkg/metrics"
	"github.com/pingcap/sqlast/pkg/sqlparse"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidRequest = errors.New("invalid request")

type ParseRequest struct {
	SQL     string
	Dialect string
	// NoCache parses the raw text and neither reads nor writes the cache.
	NoCache bool
}

type ParseResult struct {
	// AST is a JSON array with one tree per statement.
	AST    []byte
	Cached bool
}

type FingerprintRequest struct {
	SQL     string
	Dialect string
	// MaxInValues bounds IN lists. nil means the configured default, 0 means no bound.
	MaxInValues *int
}

type FingerprintResult struct {
	Fingerprint string
	Digest      string
}

type CacheStats struct {
	Entries  int
	Capacity int
	TTL      time.Duration
	Shards   int
}

type Service struct {
	logger    *zap.Logger
	registry  *dialect.Registry
	cache     *cache.ParseCache
	cfgGetter config.ConfigGetter
	// group is nil unless concurrent misses of one key should share a parse.
	group *singleflight.Group
}

// NewService builds the cache from cfg. The fingerprint default is read from
// cfgGetter on every request so that it follows config reloads.
func NewService(lg *zap.Logger, registry *dialect.Registry, cfg *config.Cache, cfgGetter config.ConfigGetter) *Service {
	s := &Service{
		logger:    lg,
		registry:  registry,
		cache:     cache.NewParseCache(cfg.MaxCapacity, time.Duration(cfg.TTL)*time.Second, cfg.Shards),
		cfgGetter: cfgGetter,
	}
	if cfg.SingleFlight {
		s.group = &singleflight.Group{}
	}
	return s
}

// Parse returns the JSON syntax tree of the request's SQL. Errors wrap
// dialect.ErrUnsupportedDialect, dialect.ErrParse or sqlparse.ErrSerialize.
func (s *Service) Parse(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	d, err := s.registry.Resolve(req.Dialect)
	if err != nil {
		return nil, err
	}
	if req.NoCache {
		data, err := s.parse(d, req.SQL)
		if err != nil {
			return nil, err
		}
		return &ParseResult{AST: data}, nil
	}

	key := cache.Key{SQL: sqlparse.Normalize(req.SQL), Dialect: d.Name}
	if v, ok := s.cache.Get(key); ok {
		if v.Failed() {
			return nil, errors.Wrap(dialect.ErrParse, errors.New(v.ErrMsg))
		}
		return &ParseResult{AST: v.AST, Cached: true}, nil
	}

	if s.group == nil {
		data, err := s.parseAndStore(d, key)
		if err != nil {
			return nil, err
		}
		return &ParseResult{AST: data}, nil
	}
	// DoChan lets a cancelled request return early while the parse and the
	// cache fill continue for the others.
	ch := s.group.DoChan(d.Name+"\x00"+key.SQL, func() (any, error) {
		return s.parseAndStore(d, key)
	})
	select {
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return &ParseResult{AST: res.Val.([]byte)}, nil
	}
}

// parseAndStore parses a cache miss and records the outcome. Serialization
// failures are not recorded, so a later request tries again.
func (s *Service) parseAndStore(d *dialect.Dialect, key cache.Key) ([]byte, error) {
	stmts, err := d.Parse(key.SQL)
	if err != nil {
		metrics.ParseFailureCounter.WithLabelValues(d.Name).Inc()
		s.cache.Put(key, cache.Failed(parseDetail(err)))
		return nil, err
	}
	data, err := sqlparse.MarshalStatements(d, stmts)
	if err != nil {
		s.logger.Warn("serialize syntax tree failed", zap.String("dialect", d.Name), zap.Error(err))
		return nil, err
	}
	s.cache.Put(key, cache.Parsed(data))
	return data, nil
}

func (s *Service) parse(d *dialect.Dialect, sql string) ([]byte, error) {
	stmts, err := d.Parse(sql)
	if err != nil {
		metrics.ParseFailureCounter.WithLabelValues(d.Name).Inc()
		return nil, err
	}
	return sqlparse.MarshalStatements(d, stmts)
}

// parseDetail strips the ErrParse prefix, which is added back when the
// cached failure is returned.
func parseDetail(err error) string {
	var werr *errors.WError
	if errors.As(err, &werr) && errors.Is(werr.Cause(), dialect.ErrParse) && werr.Unwrap() != nil {
		return werr.Unwrap().Error()
	}
	return err.Error()
}

// Fingerprint parses the raw SQL and redacts its literals. It never uses the cache.
func (s *Service) Fingerprint(ctx context.Context, req FingerprintRequest) (*FingerprintResult, error) {
	maxInValues := s.cfgGetter.GetConfig().Fingerprint.MaxInValues
	if req.MaxInValues != nil {
		if *req.MaxInValues < 0 {
			return nil, errors.Wrapf(ErrInvalidRequest, "max_in_values must be non-negative, got %d", *req.MaxInValues)
		}
		maxInValues = *req.MaxInValues
	}
	d, err := s.registry.Resolve(req.Dialect)
	if err != nil {
		return nil, err
	}
	stmts, err := d.Parse(req.SQL)
	if err != nil {
		metrics.ParseFailureCounter.WithLabelValues(d.Name).Inc()
		return nil, err
	}
	fp, err := fingerprint.Fingerprint(d, stmts, maxInValues)
	if err != nil {
		return nil, err
	}
	return &FingerprintResult{
		Fingerprint: fp,
		Digest:      fingerprint.Digest(fp),
	}, nil
}

func (s *Service) Dialects() []string {
	return s.registry.Names()
}

func (s *Service) CacheStats() CacheStats {
	return CacheStats{
		Entries:  s.cache.Len(),
		Capacity: s.cache.Capacity(),
		TTL:      s.cache.TTL(),
		Shards:   s.cache.Shards(),
	}
}

func (s *Service) PurgeCache() {
	s.cache.Purge()
	s.logger.Info("parse cache purged")
}
