package xerrors

var (
	// ErrInvalidOptionKind 期权类型不在 {call, put} 中。
	ErrInvalidOptionKind = New(ErrInvalidArg, 400101, "invalid option kind", "supported kinds: call, put", nil)
	// ErrNonPositiveSpot 标的价格必须为正。
	ErrNonPositiveSpot = New(ErrInvalidArg, 400102, "spot price must be positive", "", nil)
	// ErrNonPositiveStrike 执行价必须为正。
	ErrNonPositiveStrike = New(ErrInvalidArg, 400103, "strike must be positive", "", nil)
	// ErrNonPositiveMaturity 到期期限必须为正。
	ErrNonPositiveMaturity = New(ErrInvalidArg, 400104, "time to maturity must be positive", "", nil)
	// ErrNonPositiveVolatility 波动率必须为正。
	ErrNonPositiveVolatility = New(ErrInvalidArg, 400105, "volatility must be positive", "", nil)
	// ErrNonFiniteInput 输入包含 NaN 或 Inf。
	ErrNonFiniteInput = New(ErrInvalidArg, 400106, "input must be finite", "", nil)
	// ErrNonPositiveMeanReversion 均值回归速度必须为正。
	ErrNonPositiveMeanReversion = New(ErrInvalidArg, 400107, "mean reversion speed must be positive", "", nil)
	// ErrNegativeVolatility 波动率不能为负。
	ErrNegativeVolatility = New(ErrInvalidArg, 400108, "volatility must be non-negative", "", nil)
	// ErrEmptyCurve 收益率曲线为空。
	ErrEmptyCurve = New(ErrInvalidArg, 400109, "yield curve is empty", "at least one (term, rate) point is required", nil)
	// ErrUnsortedCurve 收益率曲线期限未严格递增。
	ErrUnsortedCurve = New(ErrInvalidArg, 400110, "yield curve terms must be strictly increasing", "", nil)
	// ErrInvalidFrequency 付息间隔必须为正。
	ErrInvalidFrequency = New(ErrInvalidArg, 400111, "payment frequency must be positive", "", nil)
	// ErrNegativeMaturity 债券期限不能为负。
	ErrNegativeMaturity = New(ErrInvalidArg, 400112, "maturity must be non-negative", "", nil)
	// ErrInvalidSteps 时间步数至少为 1。
	ErrInvalidSteps = New(ErrInvalidArg, 400113, "step count must be at least 1", "", nil)
	// ErrInvalidPaths 路径数至少为 1。
	ErrInvalidPaths = New(ErrInvalidArg, 400114, "path count must be at least 1", "", nil)
	// ErrInvalidHorizon 模拟期限必须为正。
	ErrInvalidHorizon = New(ErrInvalidArg, 400115, "simulation horizon must be positive", "", nil)
	// ErrInvalidLGD 违约损失率必须在 [0, 1]。
	ErrInvalidLGD = New(ErrInvalidArg, 400116, "loss given default must be within [0, 1]", "", nil)
	// ErrInvalidSpread 信用利差不能为负。
	ErrInvalidSpread = New(ErrInvalidArg, 400117, "credit spread must be non-negative", "", nil)
	// ErrInvalidQuantile 分位数必须在 (0, 1)。
	ErrInvalidQuantile = New(ErrInvalidArg, 400118, "quantile must be within (0, 1)", "", nil)
	// ErrDimMismatch 曲线或剖面维度不匹配。
	ErrDimMismatch = New(ErrInvalidArg, 400119, "dimension mismatch", "exposure profile and time grid lengths differ", nil)
	// ErrEmptyData 输入数据为空。
	ErrEmptyData = New(ErrInvalidArg, 400120, "empty data", "input data must not be empty", nil)
	// ErrMalformedCurveData 收益率曲线数据格式错误。
	ErrMalformedCurveData = New(ErrInvalidArg, 400121, "malformed yield curve data", "", nil)
	// ErrInvalidRequest 请求体无法解析或未通过字段校验。
	ErrInvalidRequest = New(ErrInvalidArg, 400100, "invalid request body", "", nil)
	// ErrSimulationTooLarge 模拟规模超过配置上限。
	ErrSimulationTooLarge = New(ErrLimitExceeded, 429101, "simulation too large", "paths x steps exceeds the configured limit", nil)
	// ErrSimulationBusy 并发模拟数已满。
	ErrSimulationBusy = New(ErrLimitExceeded, 429102, "simulation capacity exhausted", "too many concurrent simulations, retry later", nil)
	// ErrNumericalInstability 合法输入得到 NaN/Inf，说明公式或实现存在缺陷。
	ErrNumericalInstability = New(ErrNumerical, 500101, "numerical instability", "result is NaN or Inf", nil)
	// ErrCurveUnavailable 未配置默认收益率曲线。
	ErrCurveUnavailable = New(ErrUnavailable, 503101, "yield curve unavailable", "no curve supplied and no default curve loaded", nil)
)
