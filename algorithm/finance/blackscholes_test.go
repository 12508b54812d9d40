package finance

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/quantrisk/xerrors"
)

func atTheMoney(kind OptionKind) OptionContract {
	return OptionContract{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Kind: kind}
}

func TestBlackScholesPrice(t *testing.T) {
	bsc := NewBlackScholesCalculator()

	call, err := bsc.Price(atTheMoney(OptionCall))
	require.NoError(t, err)
	assert.InDelta(t, 10.45, call, 0.5)
	assert.InDelta(t, 10.450583572185565, call, 1e-9)

	put, err := bsc.Price(atTheMoney(OptionPut))
	require.NoError(t, err)
	assert.InDelta(t, 5.57, put, 0.5)
	assert.InDelta(t, 5.573526022256971, put, 1e-9)
}

func TestPutCallParity(t *testing.T) {
	bsc := NewBlackScholesCalculator()
	for _, c := range []OptionContract{
		atTheMoney(OptionCall),
		{Spot: 80, Strike: 110, Maturity: 0.25, Rate: 0.01, Volatility: 0.35},
		{Spot: 140, Strike: 95, Maturity: 3, Rate: -0.005, Volatility: 0.15},
	} {
		c.Kind = OptionCall
		call, err := bsc.Price(c)
		require.NoError(t, err)
		c.Kind = OptionPut
		put, err := bsc.Price(c)
		require.NoError(t, err)

		assert.InDelta(t, c.Spot-c.Strike*math.Exp(-c.Rate*c.Maturity), call-put, 1e-6)
	}
}

func TestGreeksATM(t *testing.T) {
	bsc := NewBlackScholesCalculator()

	g, err := bsc.Greeks(atTheMoney(OptionCall))
	require.NoError(t, err)
	assert.InDelta(t, 0.6368306511756191, g.Delta, 1e-8)
	assert.InDelta(t, 0.018762017345846895, g.Gamma, 1e-8)
	assert.InDelta(t, 0.3752403469169379, g.Vega, 1e-8)
	assert.InDelta(t, 0.5323248154537634, g.Rho, 1e-7)
	assert.Less(t, g.Theta, 0.0)

	m := g.AsMap()
	assert.Len(t, m, 5)
	for _, k := range []string{"delta", "gamma", "vega", "theta", "rho"} {
		assert.Contains(t, m, k)
	}

	p, err := bsc.Greeks(atTheMoney(OptionPut))
	require.NoError(t, err)
	assert.InDelta(t, g.Delta-1, p.Delta, 1e-12)
	assert.InDelta(t, g.Gamma, p.Gamma, 1e-15)
	assert.InDelta(t, g.Vega, p.Vega, 1e-15)
	assert.Greater(t, p.Rho, 0.0)
	assert.InDelta(t, 0.4189046090469506, p.Rho, 1e-7)
}

// 解析希腊字母应与中心差分一致。
func TestGreeksMatchFiniteDifferences(t *testing.T) {
	bsc := NewBlackScholesCalculator()
	const h = 1e-4

	for _, kind := range []OptionKind{OptionCall, OptionPut} {
		base := OptionContract{Spot: 92, Strike: 100, Maturity: 0.75, Rate: 0.03, Volatility: 0.27, Kind: kind}
		g, err := bsc.Greeks(base)
		require.NoError(t, err)

		bump := func(mut func(*OptionContract, float64)) (float64, float64) {
			up, down := base, base
			mut(&up, h)
			mut(&down, -h)
			pu, err := bsc.Price(up)
			require.NoError(t, err)
			pd, err := bsc.Price(down)
			require.NoError(t, err)
			return pu, pd
		}

		pu, pd := bump(func(c *OptionContract, d float64) { c.Spot += d })
		p0, err := bsc.Price(base)
		require.NoError(t, err)
		assert.InDelta(t, (pu-pd)/(2*h), g.Delta, 1e-6, "delta %s", kind)
		assert.InDelta(t, (pu-2*p0+pd)/(h*h), g.Gamma, 1e-4, "gamma %s", kind)

		pu, pd = bump(func(c *OptionContract, d float64) { c.Volatility += d })
		assert.InDelta(t, (pu-pd)/(2*h)/100, g.Vega, 1e-6, "vega %s", kind)

		pu, pd = bump(func(c *OptionContract, d float64) { c.Rate += d })
		rho := (pu - pd) / (2 * h) / 100
		if kind == OptionPut {
			// 看跌期权 rho 报告利率敏感度的绝对值。
			rho = -rho
		}
		assert.InDelta(t, rho, g.Rho, 1e-6, "rho %s", kind)

		pu, pd = bump(func(c *OptionContract, d float64) { c.Maturity += d })
		assert.InDelta(t, -(pu-pd)/(2*h)/365, g.Theta, 1e-6, "theta %s", kind)
	}
}

func TestDeltaBounds(t *testing.T) {
	bsc := NewBlackScholesCalculator()
	for _, s := range []float64{1, 50, 100, 150, 1000} {
		for _, vol := range []float64{0.01, 0.2, 1.5} {
			for _, T := range []float64{0.01, 1, 10} {
				c := OptionContract{Spot: s, Strike: 100, Maturity: T, Rate: 0.02, Volatility: vol, Kind: OptionCall}
				g, err := bsc.Greeks(c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, g.Delta, 0.0)
				assert.LessOrEqual(t, g.Delta, 1.0)

				c.Kind = OptionPut
				g, err = bsc.Greeks(c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, g.Delta, -1.0)
				assert.LessOrEqual(t, g.Delta, 0.0)
			}
		}
	}
}

func TestBlackScholesRejectsInvalidInput(t *testing.T) {
	bsc := NewBlackScholesCalculator()
	cases := []struct {
		name string
		mut  func(*OptionContract)
		want error
	}{
		{"zero vol", func(c *OptionContract) { c.Volatility = 0 }, xerrors.ErrNonPositiveVolatility},
		{"negative vol", func(c *OptionContract) { c.Volatility = -0.2 }, xerrors.ErrNonPositiveVolatility},
		{"zero spot", func(c *OptionContract) { c.Spot = 0 }, xerrors.ErrNonPositiveSpot},
		{"negative strike", func(c *OptionContract) { c.Strike = -1 }, xerrors.ErrNonPositiveStrike},
		{"zero maturity", func(c *OptionContract) { c.Maturity = 0 }, xerrors.ErrNonPositiveMaturity},
		{"nan rate", func(c *OptionContract) { c.Rate = math.NaN() }, xerrors.ErrNonFiniteInput},
		{"unknown kind", func(c *OptionContract) { c.Kind = "straddle" }, xerrors.ErrInvalidOptionKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := atTheMoney(OptionCall)
			tc.mut(&c)

			_, err := bsc.Price(c)
			assert.True(t, errors.Is(err, tc.want), "price: %v", err)
			assert.True(t, xerrors.IsType(err, xerrors.ErrInvalidArg))

			_, err = bsc.Greeks(c)
			assert.True(t, errors.Is(err, tc.want), "greeks: %v", err)

			_, err = bsc.Calculate(c)
			assert.True(t, errors.Is(err, tc.want), "calculate: %v", err)
		})
	}
}

func TestParseOptionKind(t *testing.T) {
	k, err := ParseOptionKind(" Call ")
	require.NoError(t, err)
	assert.Equal(t, OptionCall, k)

	k, err = ParseOptionKind("PUT")
	require.NoError(t, err)
	assert.Equal(t, OptionPut, k)

	_, err = ParseOptionKind("binary")
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionKind)
}

func TestCalculateCombinesPriceAndGreeks(t *testing.T) {
	bsc := NewBlackScholesCalculator()
	v, err := bsc.Calculate(atTheMoney(OptionPut))
	require.NoError(t, err)

	p, _ := bsc.Price(atTheMoney(OptionPut))
	g, _ := bsc.Greeks(atTheMoney(OptionPut))
	assert.Equal(t, p, v.Price)
	assert.Equal(t, g, v.Greeks)
}
