package api

import (
	"strings"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
)

// CalendarHandler 财务日历处理器
type CalendarHandler struct{}

// NewCalendarHandler 创建日历处理器
func NewCalendarHandler() *CalendarHandler {
	return &CalendarHandler{}
}

// CreateEventRequest 创建自定义事件请求
type CreateEventRequest struct {
	EventTitle  string   `json:"event_title" binding:"required,max=150" example:"信用卡还款"`
	EventDate   string   `json:"event_date" binding:"required" example:"2025-03-15"`
	Description string   `json:"description" binding:"max=255"`
	Amount      *float64 `json:"amount" binding:"omitempty,gte=0"`
}

// UpdateEventRequest 更新事件请求，事件类型不可修改
type UpdateEventRequest struct {
	EventTitle  *string  `json:"event_title" binding:"omitempty,max=150"`
	EventDate   *string  `json:"event_date"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Amount      *float64 `json:"amount" binding:"omitempty,gte=0"`
	EventType   *string  `json:"event_type"`
}

// List 事件列表
// @Summary 获取日历事件
// @Description 返回区间内全部事件（自定义与周期付款生成的事件），按日期升序
// @Tags 日历
// @Produce json
// @Security BearerAuth
// @Param start query string false "开始日期 (2006-01-02)"
// @Param end query string false "结束日期 (2006-01-02)，包含当天"
// @Param type query string false "事件类型 custom/recurring_due/recurring_payment"
// @Success 200 {object} Response{data=[]models.CalendarEvent} "获取成功"
// @Router /api/calendar [get]
func (h *CalendarHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	query := database.DB.Where("user_id = ?", userID)

	if s := c.Query("start"); s != "" {
		start, err := parseDate(s)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("event_date >= ?", start)
	}
	if s := c.Query("end"); s != "" {
		end, err := parseDate(s)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("event_date < ?", end.AddDate(0, 0, 1))
	}
	if t := c.Query("type"); t != "" {
		query = query.Where("event_type = ?", t)
	}

	var events []models.CalendarEvent
	if err := query.Order("event_date ASC, id ASC").Find(&events).Error; err != nil {
		ServerError(c, err, "查询日历失败")
		return
	}
	Success(c, events)
}

// Create 创建自定义事件
// @Summary 创建日历事件
// @Tags 日历
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "事件信息"
// @Success 200 {object} Response{data=models.CalendarEvent} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/calendar [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	date, err := parseDate(req.EventDate)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	event := models.CalendarEvent{
		UserID:      userID,
		EventTitle:  strings.TrimSpace(req.EventTitle),
		EventDate:   date,
		EventType:   models.EventTypeCustom,
		Description: req.Description,
		Amount:      req.Amount,
	}
	if err := database.DB.Create(&event).Error; err != nil {
		ServerError(c, err, "创建事件失败")
		return
	}
	SuccessWithMessage(c, "创建成功", event)
}

func findOwnEvent(c *gin.Context, userID uint) (*models.CalendarEvent, bool) {
	id, ok := parseID(c)
	if !ok {
		return nil, false
	}
	var event models.CalendarEvent
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&event).Error; err != nil {
		if database.IsNotFound(err) {
			NotFound(c, "事件不存在")
		} else {
			ServerError(c, err, "查询事件失败")
		}
		return nil, false
	}
	return &event, true
}

// Update 更新事件
// @Summary 更新日历事件
// @Description 可修改标题、日期、描述和金额；事件类型不可修改
// @Tags 日历
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "事件ID"
// @Param request body UpdateEventRequest true "事件信息"
// @Success 200 {object} Response{data=models.CalendarEvent} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "事件不存在"
// @Router /api/calendar/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	event, ok := findOwnEvent(c, userID)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if req.EventType != nil && *req.EventType != event.EventType {
		BadRequest(c, "事件类型不可修改")
		return
	}

	updates := map[string]interface{}{}
	if req.EventTitle != nil {
		updates["event_title"] = strings.TrimSpace(*req.EventTitle)
	}
	if req.EventDate != nil {
		date, err := parseDate(*req.EventDate)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		updates["event_date"] = date
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if len(updates) == 0 {
		BadRequest(c, "没有需要更新的字段")
		return
	}

	if err := database.DB.Model(event).Updates(updates).Error; err != nil {
		ServerError(c, err, "更新事件失败")
		return
	}
	database.DB.First(event, event.ID)
	SuccessWithMessage(c, "更新成功", event)
}

// Delete 删除事件，周期付款生成的事件也可单独删除
// @Summary 删除日历事件
// @Tags 日历
// @Produce json
// @Security BearerAuth
// @Param id path int true "事件ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "事件不存在"
// @Router /api/calendar/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	result := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CalendarEvent{})
	if result.Error != nil {
		ServerError(c, result.Error, "删除失败")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "事件不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
