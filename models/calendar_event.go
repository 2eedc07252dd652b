package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EventTypeCustom           = "custom"
	EventTypeRecurringDue     = "recurring_due"     // 到期前一天的提醒
	EventTypeRecurringPayment = "recurring_payment" // 周期付款的每次发生
)

// CalendarEvent 财务日历事件
type CalendarEvent struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	UserID             uint           `json:"user_id" gorm:"index;not null"`
	EventTitle         string         `json:"event_title" gorm:"size:150;not null"`
	EventDate          time.Time      `json:"event_date" gorm:"type:date;not null;index"`
	EventType          string         `json:"event_type" gorm:"size:30;not null;index"`
	Description        string         `json:"description" gorm:"size:255"`
	Amount             *float64       `json:"amount,omitempty" gorm:"type:decimal(14,2)"`
	RecurringPaymentID *uint          `json:"recurring_payment_id,omitempty" gorm:"index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}
