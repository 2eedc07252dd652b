package models

import (
	"time"
)

// IncomeCategoryName 所得税统计使用的收入类别
const IncomeCategoryName = "income"

// Category 交易类别，首次按名称引用时自动创建
type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex"`
	BudgetLimit *float64  `json:"budget_limit,omitempty" gorm:"type:decimal(14,2)"` // 默认月度预算，可为空
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories 初始化时写入的类别
func DefaultCategories() []string {
	return []string{
		IncomeCategoryName,
		"food",
		"transport",
		"shopping",
		"utilities",
		"entertainment",
		"health",
		"other",
	}
}
