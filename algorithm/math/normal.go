// Package math 提供定价与模拟共用的数值工具。
package math

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormCDF 标准正态累积分布函数 Φ(x)。
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF 标准正态概率密度函数 φ(x)。
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// IsFinite 报告所有参数均不为 NaN/Inf。
func IsFinite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
