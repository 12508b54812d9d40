package sim

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"

	"golang.org/x/exp/rand"
)

// NormalStream 标准正态随机数流。
type NormalStream interface {
	NormFloat64() float64
}

// StreamFactory 为第 pathIndex 条路径返回独立的随机流。
// 同一 pathIndex 必须得到相同序列，模拟结果才可复现且与并发度无关。
type StreamFactory func(pathIndex int) NormalStream

// SeededStreams 由种子派生每条路径的 PCG 流。
func SeededStreams(seed uint64) StreamFactory {
	return func(pathIndex int) NormalStream {
		return rand.New(rand.NewSource(pathSeed(seed, pathIndex)))
	}
}

// freshStreams 使用 crypto/rand 生成基础种子，每次模拟都不同。
func freshStreams() StreamFactory {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		binary.LittleEndian.PutUint64(b[:], uint64(time.Now().UnixNano()))
	}
	return SeededStreams(binary.LittleEndian.Uint64(b[:]))
}

// pathSeed 取 SplitMix64 序列的第 pathIndex 项，相邻路径的种子互不相关。
func pathSeed(seed uint64, pathIndex int) uint64 {
	x := seed + uint64(pathIndex+1)*0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
