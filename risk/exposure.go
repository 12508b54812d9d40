package risk

import (
	"context"

	"github.com/wyfcoding/quantrisk/algorithm/sim"
	"github.com/wyfcoding/quantrisk/tracing"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// ExposureRequest 敞口模拟请求。
type ExposureRequest struct {
	S0               float64 `json:"s0"`
	Rate             float64 `json:"rate"`
	Sigma            float64 `json:"sigma"`
	Horizon          float64 `json:"horizon"`
	Steps            int     `json:"steps"`
	Paths            int     `json:"paths"`
	LossGivenDefault float64 `json:"loss_given_default"`
	CreditSpread     float64 `json:"credit_spread"`
	Quantile         float64 `json:"quantile,omitempty"` // 0 表示使用配置的 PFE 分位数
	Seed             *uint64 `json:"seed,omitempty"`     // nil 表示使用配置的默认种子，0 表示新种子
}

// Exposure 单次模拟得到 EE、PFE、CVA 与期末统计。
// 先校验参数与规模上限，再占用并发令牌，最后才分配路径矩阵。
func (s *Service) Exposure(ctx context.Context, req ExposureRequest) (report *sim.ExposureReport, err error) {
	ctx, done := s.begin(ctx, ComponentExposure, "run")
	defer func() { done(err) }()

	settings := s.Settings()
	cfg := sim.Config{
		S0:      req.S0,
		Rate:    req.Rate,
		Sigma:   req.Sigma,
		Horizon: req.Horizon,
		Steps:   req.Steps,
		Paths:   req.Paths,
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	// 上限按路径矩阵元素数 paths×(steps+1) 计，用除法比较避免溢出。
	if limit := settings.MaxPathSteps; limit > 0 && cfg.Paths > limit/(cfg.Steps+1) {
		return nil, xerrors.ErrSimulationTooLarge.WithDetail("paths=%d steps=%d limit=%d", cfg.Paths, cfg.Steps, limit)
	}

	quantile := req.Quantile
	if quantile == 0 {
		quantile = settings.PFEQuantile
	}
	seed := settings.DefaultSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	opts := []sim.Option{sim.WithWorkers(settings.Workers)}
	if seed != 0 {
		opts = append(opts, sim.WithSeed(seed))
	}

	tracing.AddTag(ctx, "paths", cfg.Paths)
	tracing.AddTag(ctx, "steps", cfg.Steps)
	tracing.AddTag(ctx, "seeded", seed != 0)

	engine, err := sim.NewExposureEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if !s.sem.TryAcquire() {
		return nil, xerrors.ErrSimulationBusy.WithDetail("in_use=%d", s.sem.InUse())
	}
	defer s.sem.Release()

	if err = ctx.Err(); err != nil {
		return nil, xerrors.Wrap(err, xerrors.ErrUnavailable, "simulation cancelled")
	}

	report, err = engine.Run(sim.RunOptions{
		Quantile:         quantile,
		LossGivenDefault: req.LossGivenDefault,
		CreditSpread:     req.CreditSpread,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddSimulatedPaths(cfg.Paths)
	return report, nil
}
