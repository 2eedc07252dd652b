package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// RecurringPayment 周期性付款，创建时生成对应的日历事件
type RecurringPayment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	Amount      float64        `json:"amount" gorm:"type:decimal(14,2);not null"`
	PaymentName string         `json:"payment_name" gorm:"size:100;not null"`
	Frequency   string         `json:"frequency" gorm:"size:10;not null"`
	NextDueDate time.Time      `json:"next_due_date" gorm:"type:date;not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (RecurringPayment) TableName() string {
	return "recurring_payments"
}
