package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-15)
	assert.InDelta(t, 0.975002104851780, NormCDF(1.96), 1e-12)
	assert.InDelta(t, 1.0, NormCDF(-1.3)+NormCDF(1.3), 1e-15)
}

func TestNormPDF(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), NormPDF(0), 1e-15)
	assert.InDelta(t, NormPDF(0.7), NormPDF(-0.7), 1e-15)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1, -2, 0))
	assert.True(t, IsFinite())
	assert.False(t, IsFinite(1, math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
}
