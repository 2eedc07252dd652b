package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// round2 金额统一保留两位小数
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// dateOnly 截断到 UTC 日期
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
