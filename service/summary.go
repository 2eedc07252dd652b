package service

import (
	"fmt"
	"time"

	"fintrack/models"

	"gorm.io/gorm"
)

// MonthFigures 当月收支
type MonthFigures struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// MonthToDate 统计 now 所在月份 1 日到 now 的收入（credit）与支出（debit）
func MonthToDate(db *gorm.DB, userID uint, now time.Time) (*MonthFigures, error) {
	start := models.MonthStartOf(now)
	end := dateOnly(now).AddDate(0, 0, 1)

	var rows []struct {
		TransactionType string
		Total           float64
	}
	if err := db.Model(&models.Transaction{}).
		Select("transaction_type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Group("transaction_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("统计当月收支失败: %w", err)
	}

	fig := &MonthFigures{Month: start.Format("2006-01")}
	for _, r := range rows {
		switch r.TransactionType {
		case models.TransactionTypeCredit:
			fig.Income = round2(r.Total)
		case models.TransactionTypeDebit:
			fig.Expense = round2(r.Total)
		}
	}
	fig.Net = round2(fig.Income - fig.Expense)
	return fig, nil
}
