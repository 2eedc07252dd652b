package api

import (
	"time"

	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// ZakatTaxHandler 天课与所得税处理器
type ZakatTaxHandler struct {
	svc *service.ZakatTaxService
	now func() time.Time
}

// NewZakatTaxHandler 创建天课与所得税处理器
func NewZakatTaxHandler(svc *service.ZakatTaxService) *ZakatTaxHandler {
	return &ZakatTaxHandler{svc: svc, now: time.Now}
}

// Get 天课与所得税报告
// @Summary 天课与所得税
// @Description 按资产总额与 nisaab 门槛计算天课，按财年 income 类别收入计算累进所得税，并给出报税截止日期
// @Tags 天课与税
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=service.ZakatTaxReport} "获取成功"
// @Router /api/zakat-tax [get]
func (h *ZakatTaxHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	report, err := h.svc.Report(c.Request.Context(), userID, h.now())
	if err != nil {
		ServerError(c, err, "计算失败")
		return
	}
	Success(c, report)
}
