package api

import (
	"errors"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// RecurringPaymentHandler 周期付款处理器
type RecurringPaymentHandler struct {
	now func() time.Time
}

// NewRecurringPaymentHandler 创建周期付款处理器
func NewRecurringPaymentHandler() *RecurringPaymentHandler {
	return &RecurringPaymentHandler{now: time.Now}
}

// CreateRecurringPaymentRequest 创建周期付款请求
type CreateRecurringPaymentRequest struct {
	PaymentName string  `json:"payment_name" binding:"required,max=100" example:"房租"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"45000"`
	Frequency   string  `json:"frequency" binding:"required" example:"monthly"`
	NextDueDate string  `json:"next_due_date" binding:"required" example:"2025-02-01"`
}

// UpdateRecurringPaymentRequest 更新周期付款请求
type UpdateRecurringPaymentRequest struct {
	PaymentName *string  `json:"payment_name" binding:"omitempty,max=100"`
	Amount      *float64 `json:"amount" binding:"omitempty,gt=0"`
	Frequency   *string  `json:"frequency"`
	NextDueDate *string  `json:"next_due_date"`
}

// RecurringPaymentResponse 周期付款及本次生成的事件数
type RecurringPaymentResponse struct {
	Payment         *models.RecurringPayment `json:"payment"`
	EventsGenerated int                      `json:"events_generated"`
}

// List 周期付款列表
// @Summary 获取周期付款列表
// @Tags 周期付款
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.RecurringPayment} "获取成功"
// @Router /api/recurring-payments [get]
func (h *RecurringPaymentHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var list []models.RecurringPayment
	if err := database.DB.Where("user_id = ?", userID).Order("next_due_date ASC").Find(&list).Error; err != nil {
		ServerError(c, err, "查询周期付款失败")
		return
	}
	Success(c, list)
}

// Create 创建周期付款
// @Summary 创建周期付款
// @Description 创建后生成未来一年的日历事件（每次发生一条，首次到期前一天一条提醒）
// @Tags 周期付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRecurringPaymentRequest true "周期付款信息"
// @Success 200 {object} Response{data=RecurringPaymentResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/recurring-payments [post]
func (h *RecurringPaymentHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateRecurringPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	due, err := parseDate(req.NextDueDate)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	payment := models.RecurringPayment{
		UserID:      userID,
		PaymentName: strings.TrimSpace(req.PaymentName),
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		NextDueDate: due,
	}
	n, err := service.CreateRecurringPayment(database.DB, &payment, h.now())
	if err != nil {
		if errors.Is(err, service.ErrInvalidFrequency) || errors.Is(err, service.ErrEmptyPaymentName) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "创建周期付款失败")
		return
	}

	SuccessWithMessage(c, "创建成功", RecurringPaymentResponse{Payment: &payment, EventsGenerated: n})
}

func findOwnRecurringPayment(c *gin.Context, userID uint) (*models.RecurringPayment, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var p models.RecurringPayment
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&p).Error; err != nil {
		if database.IsNotFound(err) {
			NotFound(c, "周期付款不存在")
		} else {
			ServerError(c, err, "查询周期付款失败")
		}
		return nil, false
	}
	return &p, true
}

// Get 获取周期付款
// @Summary 获取周期付款详情
// @Tags 周期付款
// @Produce json
// @Security BearerAuth
// @Param id path int true "周期付款ID"
// @Success 200 {object} Response{data=models.RecurringPayment} "获取成功"
// @Failure 404 {object} Response "周期付款不存在"
// @Router /api/recurring-payments/{id} [get]
func (h *RecurringPaymentHandler) Get(c *gin.Context) {
	p, ok := findOwnRecurringPayment(c, middleware.GetCurrentUserID(c))
	if !ok {
		return
	}
	Success(c, p)
}

// Update 更新周期付款
// @Summary 更新周期付款
// @Description 删除该付款未来的日历事件后按新参数重新生成
// @Tags 周期付款
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "周期付款ID"
// @Param request body UpdateRecurringPaymentRequest true "周期付款信息"
// @Success 200 {object} Response{data=RecurringPaymentResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "周期付款不存在"
// @Router /api/recurring-payments/{id} [put]
func (h *RecurringPaymentHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	p, ok := findOwnRecurringPayment(c, userID)
	if !ok {
		return
	}

	var req UpdateRecurringPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	upd := service.RecurringPaymentUpdate{
		Amount:      req.Amount,
		PaymentName: req.PaymentName,
		Frequency:   req.Frequency,
	}
	if req.NextDueDate != nil {
		due, err := parseDate(*req.NextDueDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		upd.NextDueDate = &due
	}

	n, err := service.UpdateRecurringPayment(database.DB, p, upd, h.now())
	if err != nil {
		if errors.Is(err, service.ErrInvalidFrequency) || errors.Is(err, service.ErrEmptyPaymentName) {
			BadRequest(c, err.Error())
			return
		}
		ServerError(c, err, "更新周期付款失败")
		return
	}

	SuccessWithMessage(c, "更新成功", RecurringPaymentResponse{Payment: p, EventsGenerated: n})
}

// Delete 删除周期付款
// @Summary 删除周期付款
// @Description 同时删除未来的日历事件，已过去的事件保留
// @Tags 周期付款
// @Produce json
// @Security BearerAuth
// @Param id path int true "周期付款ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "周期付款不存在"
// @Router /api/recurring-payments/{id} [delete]
func (h *RecurringPaymentHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	p, ok := findOwnRecurringPayment(c, userID)
	if !ok {
		return
	}

	removed, err := service.DeleteRecurringPayment(database.DB, p, h.now())
	if err != nil {
		ServerError(c, err, "删除周期付款失败")
		return
	}
	SuccessWithMessage(c, "删除成功", gin.H{"events_removed": removed})
}
