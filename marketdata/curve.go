// Package marketdata 读取外部市场数据文件，例如以 "Term","Rate" 两列保存的收益率曲线 CSV。
package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/retry"
	"github.com/wyfcoding/quantrisk/xerrors"
)

const (
	termColumn = "term"
	rateColumn = "rate"
)

// ReadYieldCurveCSV 解析带表头的收益率曲线 CSV。
// 表头大小写不敏感、列顺序不限，多余的列被忽略；点必须按期限严格递增。
func ReadYieldCurveCSV(r io.Reader) (*finance.YieldCurve, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, xerrors.ErrEmptyCurve
	}
	if err != nil {
		return nil, xerrors.ErrMalformedCurveData.WithDetail("read header: %v", err)
	}
	termIdx, rateIdx := columnIndex(header)
	if termIdx < 0 || rateIdx < 0 {
		return nil, xerrors.ErrMalformedCurveData.WithDetail("header %v must contain Term and Rate", header)
	}

	var points []finance.CurvePoint
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xerrors.ErrMalformedCurveData.WithDetail("line %d: %v", line, err)
		}
		if len(record) <= max(termIdx, rateIdx) {
			return nil, xerrors.ErrMalformedCurveData.WithDetail("line %d: expected at least %d fields, got %d", line, max(termIdx, rateIdx)+1, len(record))
		}
		term, err := strconv.ParseFloat(strings.TrimSpace(record[termIdx]), 64)
		if err != nil {
			return nil, xerrors.ErrMalformedCurveData.WithDetail("line %d: term %q", line, record[termIdx])
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(record[rateIdx]), 64)
		if err != nil {
			return nil, xerrors.ErrMalformedCurveData.WithDetail("line %d: rate %q", line, record[rateIdx])
		}
		points = append(points, finance.CurvePoint{Term: term, Rate: rate})
	}
	return finance.NewYieldCurve(points)
}

// LoadYieldCurveFile 从文件读取收益率曲线。
func LoadYieldCurveFile(path string) (*finance.YieldCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.ErrCurveUnavailable.WithDetail("open %s: %v", path, err)
	}
	defer f.Close()
	return ReadYieldCurveCSV(f)
}

// LoadYieldCurveFileWithRetry 按退避策略重复读取，用于热更新时文件正被替换的情形。
// 文件缺失、为空或内容不完整都会重试。
func LoadYieldCurveFileWithRetry(ctx context.Context, path string, cfg retry.Config) (*finance.YieldCurve, error) {
	return retry.Do(ctx, cfg, retryable, func(context.Context) (*finance.YieldCurve, error) {
		return LoadYieldCurveFile(path)
	})
}

func retryable(err error) bool {
	return errors.Is(err, xerrors.ErrCurveUnavailable) ||
		errors.Is(err, xerrors.ErrEmptyCurve) ||
		errors.Is(err, xerrors.ErrMalformedCurveData)
}

func columnIndex(header []string) (termIdx, rateIdx int) {
	termIdx, rateIdx = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(h), "\ufeff")) {
		case termColumn:
			termIdx = i
		case rateColumn:
			rateIdx = i
		}
	}
	return termIdx, rateIdx
}
