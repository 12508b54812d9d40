package risk

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/wyfcoding/quantrisk/cache"
)

// WithCache 缓存确定性的解析结果（期权与 Hull-White），蒙特卡洛结果不缓存。
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// cacheKey 以代次、操作名和参数的 JSON 编码作为键，编码失败时返回空串表示不缓存。
// 曲线或默认参数更新会推进代次，旧代次的条目不再被读取。
func (s *Service) cacheKey(operation string, parts ...any) string {
	raw, err := json.Marshal(parts)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(s.generation.Load(), 10) + "|" + operation + ":" + string(raw)
}

// cached 命中则直接返回，否则计算并写回。只缓存成功结果。
func cached[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	if s.cache == nil || key == "" {
		return compute()
	}

	var v T
	err := s.cache.Get(ctx, key, &v)
	if err == nil {
		s.metrics.ObserveCacheLookup(true)
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	s.metrics.ObserveCacheLookup(false)

	v, err = compute()
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func (s *Service) resetCache() {
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Reset(); err != nil {
		s.logger.Warn("cache reset failed", "error", err)
	}
}
