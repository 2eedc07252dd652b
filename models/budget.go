package models

import (
	"time"
)

// Budget 月度类别预算，(user_id, category_id, month_start) 唯一
type Budget struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_budget_user_category_month"`
	CategoryID  uint      `json:"category_id" gorm:"not null;uniqueIndex:idx_budget_user_category_month"`
	MonthStart  time.Time `json:"month_start" gorm:"type:date;not null;uniqueIndex:idx_budget_user_category_month"`
	BudgetLimit float64   `json:"budget_limit" gorm:"type:decimal(14,2);not null"`
	Category    *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Budget) TableName() string {
	return "budgets"
}

// MonthStartOf 返回 t 所在月份第一天（UTC 零点）
func MonthStartOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
