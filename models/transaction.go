package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// IsValidTransactionType 校验交易类型
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Transaction 收支记录
type Transaction struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	Amount          float64        `json:"amount" gorm:"type:decimal(14,2);not null"`
	TransactionType string         `json:"transaction_type" gorm:"size:10;not null;index"`
	CategoryID      uint           `json:"category_id" gorm:"index;not null"`
	Category        *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Vendor          string         `json:"vendor" gorm:"size:100"`
	Date            time.Time      `json:"date" gorm:"type:date;not null;index"`
	Description     string         `json:"description" gorm:"size:255"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}
