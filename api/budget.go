package api

import (
	"errors"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 预算处理器
type BudgetHandler struct {
	now func() time.Time
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{now: time.Now}
}

// SetBudgetsRequest 批量设置预算请求
type SetBudgetsRequest struct {
	Month   string                     `json:"month" example:"2025-01"`
	Budgets []service.BudgetLimitInput `json:"budgets" binding:"required,min=1,dive"`
}

// List 预算执行情况
// @Summary 获取预算执行情况
// @Description 返回每条预算的已用、剩余与超支告警；已用只统计支出(debit)
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2025-01)，为空返回全部"
// @Success 200 {object} Response{data=[]service.BudgetStatus} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var month *time.Time
	if m := c.Query("month"); m != "" {
		t, err := parseMonth(m, h.now())
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		month = &t
	}

	statuses, err := service.ListBudgetStatuses(database.DB, userID, month)
	if err != nil {
		ServerError(c, err, "查询预算失败")
		return
	}
	Success(c, statuses)
}

// Set 批量设置预算
// @Summary 设置月度预算
// @Description 先校验全部类别与金额，再在一个事务内创建缺失类别并 upsert 预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetsRequest true "预算设置"
// @Success 200 {object} Response{data=[]models.Budget} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/budgets [post]
func (h *BudgetHandler) Set(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SetBudgetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	month, err := parseMonth(req.Month, h.now())
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	saved, err := service.SetBudgets(database.DB, userID, month, req.Budgets)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBudget) || errors.Is(err, service.ErrEmptyCategory) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "保存预算失败")
		return
	}
	SuccessWithMessage(c, "设置成功", saved)
}

// Delete 删除预算
// @Summary 删除预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	deleted, err := service.DeleteBudget(database.DB, userID, id)
	if err != nil {
		ServerError(c, err, "删除失败")
		return
	}
	if !deleted {
		NotFound(c, "预算不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
