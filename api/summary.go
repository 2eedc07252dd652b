package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
)

// IncomeExpenseSummaryResponse 收入/支出汇总返回
type IncomeExpenseSummaryResponse struct {
	TotalIncome  float64 `json:"total_income" example:"150000.00"` // credit 总和
	TotalExpense float64 `json:"total_expense" example:"82000.50"` // debit 总和
	Net          float64 `json:"net" example:"67999.50"`
}

// Summary 收支汇总
// @Summary 获取收入/支出汇总
// @Description 按日期范围统计当前用户的收入与支出。不传 start_date/end_date 则统计全部时间。
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2006-01-02)"
// @Param end_date query string false "结束日期 (2006-01-02)，包含当天"
// @Success 200 {object} Response{data=IncomeExpenseSummaryResponse} "获取成功"
// @Failure 400 {object} Response "日期格式错误"
// @Router /api/transactions/summary [get]
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if s := c.Query("start_date"); s != "" {
		start, err := parseDate(s)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("date >= ?", start)
	}
	if s := c.Query("end_date"); s != "" {
		end, err := parseDate(s)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("date < ?", end.AddDate(0, 0, 1))
	}

	var rows []struct {
		TransactionType string
		Total           float64
	}
	if err := query.Select("transaction_type, COALESCE(SUM(amount), 0) AS total").
		Group("transaction_type").Scan(&rows).Error; err != nil {
		ServerError(c, err, "统计失败")
		return
	}

	var resp IncomeExpenseSummaryResponse
	for _, r := range rows {
		switch r.TransactionType {
		case models.TransactionTypeCredit:
			resp.TotalIncome = r.Total
		case models.TransactionTypeDebit:
			resp.TotalExpense = r.Total
		}
	}
	resp.Net = resp.TotalIncome - resp.TotalExpense
	Success(c, resp)
}
