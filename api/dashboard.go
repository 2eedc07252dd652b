package api

import (
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// DashboardHandler 首页概览处理器
type DashboardHandler struct {
	now func() time.Time
}

// NewDashboardHandler 创建概览处理器
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{now: time.Now}
}

// DashboardResponse 首页概览
type DashboardResponse struct {
	Month              *service.MonthFigures  `json:"month"`
	BudgetAlerts       int                    `json:"budget_alerts"`
	AssetTotal         float64                `json:"asset_total"`
	UpcomingEvents     []models.CalendarEvent `json:"upcoming_events"`
	RecentTransactions []models.Transaction   `json:"recent_transactions"`
}

// upcomingDays 首页展示的未来事件天数（含今天）
const upcomingDays = 7

// upcomingWindow 未来事件查询区间 [today, today+7)，即今天起的 7 个自然日
func upcomingWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today, today.AddDate(0, 0, upcomingDays)
}

// Get 首页概览
// @Summary 首页概览
// @Description 当月收支、超支预算数、资产总值、未来 7 天事件（最多 10 条）与最近 5 笔交易
// @Tags 概览
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=DashboardResponse} "获取成功"
// @Router /api/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	now := h.now().UTC()
	from, to := upcomingWindow(now)

	g, ctx := errgroup.WithContext(c.Request.Context())
	db := database.DB.WithContext(ctx)
	resp := DashboardResponse{
		UpcomingEvents:     []models.CalendarEvent{},
		RecentTransactions: []models.Transaction{},
	}

	g.Go(func() error {
		fig, err := service.MonthToDate(db, userID, now)
		resp.Month = fig
		return err
	})
	g.Go(func() error {
		statuses, err := service.ListBudgetStatuses(db, userID, &now)
		for _, s := range statuses {
			if s.Alert {
				resp.BudgetAlerts++
			}
		}
		return err
	})
	g.Go(func() error {
		var assets []models.Asset
		if err := db.Preload("AssetType").Where("user_id = ?", userID).Find(&assets).Error; err != nil {
			return err
		}
		resp.AssetTotal = service.SummarizeAssets(assets).Total
		return nil
	})
	g.Go(func() error {
		return db.Where("user_id = ? AND event_date >= ? AND event_date < ?", userID, from, to).
			Order("event_date ASC, id ASC").Limit(10).Find(&resp.UpcomingEvents).Error
	})
	g.Go(func() error {
		return db.Preload("Category").Where("user_id = ?", userID).
			Order("date DESC, id DESC").Limit(5).Find(&resp.RecentTransactions).Error
	})

	if err := g.Wait(); err != nil {
		ServerError(c, err, "获取概览失败")
		return
	}
	Success(c, resp)
}
