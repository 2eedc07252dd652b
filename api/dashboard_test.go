package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpcomingWindow(t *testing.T) {
	from, to := upcomingWindow(time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), from)
	// 上界不含，1 月 21 日是窗口内最后一天
	assert.Equal(t, time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, 7, int(to.Sub(from).Hours()/24))

	// 非 UTC 时间先换算到 UTC 日期
	_, to = upcomingWindow(time.Date(2025, 1, 1, 2, 0, 0, 0, time.FixedZone("PKT", 5*3600)))
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), to)
}
