// Package sim 提供蒙特卡洛路径模拟与交易对手敞口（EE / PFE / CVA）计算。
package sim

import (
	"math"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	algomath "github.com/wyfcoding/quantrisk/algorithm/math"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// Config 几何布朗运动模拟参数。
type Config struct {
	S0      float64 // 初始价格 > 0
	Rate    float64 // 漂移（无风险利率）
	Sigma   float64 // 波动率 >= 0
	Horizon float64 // 模拟期限 T（年）> 0
	Steps   int     // 时间步数 N >= 1
	Paths   int     // 路径数 M >= 1
}

// Validate 在分配任何路径矩阵之前校验参数。
func (c Config) Validate() error {
	if !algomath.IsFinite(c.S0, c.Rate, c.Sigma, c.Horizon) {
		return xerrors.ErrNonFiniteInput.WithDetail("S0=%v r=%v sigma=%v T=%v", c.S0, c.Rate, c.Sigma, c.Horizon)
	}
	switch {
	case c.S0 <= 0:
		return xerrors.ErrNonPositiveSpot.WithDetail("S0=%v", c.S0)
	case c.Horizon <= 0:
		return xerrors.ErrInvalidHorizon.WithDetail("T=%v", c.Horizon)
	case c.Steps < 1:
		return xerrors.ErrInvalidSteps.WithDetail("steps=%d", c.Steps)
	case c.Paths < 1:
		return xerrors.ErrInvalidPaths.WithDetail("paths=%d", c.Paths)
	case c.Sigma < 0:
		return xerrors.ErrNegativeVolatility.WithDetail("sigma=%v", c.Sigma)
	}
	return nil
}

// Option 引擎可选项。
type Option func(*ExposureEngine)

// WithSeed 使用固定种子，模拟结果逐位可复现。
func WithSeed(seed uint64) Option {
	return func(e *ExposureEngine) {
		e.streams = SeededStreams(seed)
	}
}

// WithStreamFactory 注入自定义随机流。
func WithStreamFactory(f StreamFactory) Option {
	return func(e *ExposureEngine) {
		if f != nil {
			e.streams = f
		}
	}
}

// WithWorkers 设置并发路径计算的协程上限，<=0 时取 GOMAXPROCS。
func WithWorkers(n int) Option {
	return func(e *ExposureEngine) {
		e.workers = n
	}
}

// ExposureEngine GBM 敞口模拟引擎，构造后参数不可变。
// 每次调用 SimulatePaths 都重新生成路径矩阵，不做缓存。
type ExposureEngine struct {
	cfg     Config
	dt      float64
	streams StreamFactory // nil 表示每次模拟使用新的随机种子
	workers int
}

// NewExposureEngine 校验参数并创建引擎。
func NewExposureEngine(cfg Config, opts ...Option) (*ExposureEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &ExposureEngine{
		cfg: cfg,
		dt:  cfg.Horizon / float64(cfg.Steps),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e, nil
}

// Config 返回引擎参数。
func (e *ExposureEngine) Config() Config { return e.cfg }

// Dt 时间步长 T/N。
func (e *ExposureEngine) Dt() float64 { return e.dt }

// TimeGrid 返回 N+1 个时间点 0, Δt, …, T，末点精确等于 T。
func (e *ExposureEngine) TimeGrid() []float64 {
	grid := make([]float64, e.cfg.Steps+1)
	for k := range grid {
		grid[k] = float64(k) * e.dt
	}
	grid[e.cfg.Steps] = e.cfg.Horizon
	return grid
}

// SimulatePaths 生成 [paths][steps+1] 的价格矩阵。
// 路径按连续分块交给协程池，每条路径只写自己的行并只消费自己的随机流，
// 因此结果与并发度无关。
func (e *ExposureEngine) SimulatePaths() [][]float64 {
	streams := e.streams
	if streams == nil {
		streams = freshStreams()
	}

	m, cols := e.cfg.Paths, e.cfg.Steps+1
	backing := make([]float64, m*cols)
	paths := make([][]float64, m)
	for i := range paths {
		paths[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}

	workers := min(e.workers, m)
	if workers <= 1 {
		for i := range paths {
			e.simulatePath(paths[i], streams(i))
		}
		return paths
	}

	chunk := (m + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < m; start += chunk {
		end := min(start+chunk, m)
		p.Go(func() {
			for i := start; i < end; i++ {
				e.simulatePath(paths[i], streams(i))
			}
		})
	}
	p.Wait()
	return paths
}

// simulatePath 精确对数离散：S_t = S_{t-1}·exp((r − σ²/2)Δt + σ√Δt·z)，保证严格为正。
func (e *ExposureEngine) simulatePath(row []float64, z NormalStream) {
	drift := (e.cfg.Rate - 0.5*e.cfg.Sigma*e.cfg.Sigma) * e.dt
	diffusion := e.cfg.Sigma * math.Sqrt(e.dt)

	row[0] = e.cfg.S0
	for t := 1; t < len(row); t++ {
		row[t] = row[t-1] * math.Exp(drift+diffusion*z.NormFloat64())
	}
}

// ExpectedExposure 重新模拟并返回长度 steps+1 的期望敞口曲线。
func (e *ExposureEngine) ExpectedExposure() ([]float64, error) {
	return e.expectedExposure(e.SimulatePaths())
}

func (e *ExposureEngine) expectedExposure(paths [][]float64) ([]float64, error) {
	ee, err := ExposureProfile(paths)
	if err != nil {
		return nil, err
	}
	// t=0 没有模拟噪声。
	ee[0] = math.Max(e.cfg.S0, 0)
	return ee, nil
}

// CVAEstimate 重新模拟并计算单边 CVA 近似值。
// 这是对贴现期望敞口的矩形求积，不含双边与错向风险，不能作为生产估值。
func (e *ExposureEngine) CVAEstimate(lossGivenDefault, creditSpread float64) (float64, error) {
	if err := validateCredit(lossGivenDefault, creditSpread); err != nil {
		return 0, err
	}
	ee, err := e.ExpectedExposure()
	if err != nil {
		return 0, err
	}
	return CVAFromProfile(ee, e.TimeGrid(), e.cfg.Rate, e.dt, lossGivenDefault, creditSpread)
}

// RunOptions 单次模拟同时产出的指标。
type RunOptions struct {
	Quantile         float64 // PFE 分位数，(0,1)
	LossGivenDefault float64
	CreditSpread     float64
}

// ExposureReport 一次模拟的完整敞口报告。
type ExposureReport struct {
	TimeGrid []float64          `json:"time_grid"`
	Expected []float64          `json:"expected_exposure"`
	PFE      []float64          `json:"pfe"`
	Quantile float64            `json:"quantile"`
	CVA      float64            `json:"cva"`
	Terminal TerminalStatistics `json:"terminal"`
}

// Run 只模拟一次，基于同一路径矩阵计算 EE、PFE、CVA 与期末统计，保证各指标相互一致。
func (e *ExposureEngine) Run(opts RunOptions) (*ExposureReport, error) {
	if err := validateCredit(opts.LossGivenDefault, opts.CreditSpread); err != nil {
		return nil, err
	}
	if !(opts.Quantile > 0 && opts.Quantile < 1) {
		return nil, xerrors.ErrInvalidQuantile.WithDetail("q=%v", opts.Quantile)
	}

	paths := e.SimulatePaths()
	ee, err := e.expectedExposure(paths)
	if err != nil {
		return nil, err
	}
	pfe, err := PotentialFutureExposure(paths, opts.Quantile)
	if err != nil {
		return nil, err
	}
	grid := e.TimeGrid()
	cva, err := CVAFromProfile(ee, grid, e.cfg.Rate, e.dt, opts.LossGivenDefault, opts.CreditSpread)
	if err != nil {
		return nil, err
	}
	terminal, err := Terminal(paths)
	if err != nil {
		return nil, err
	}
	return &ExposureReport{
		TimeGrid: grid,
		Expected: ee,
		PFE:      pfe,
		Quantile: opts.Quantile,
		CVA:      cva,
		Terminal: terminal,
	}, nil
}
