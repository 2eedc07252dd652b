package models

import "time"

// ContactMessage 联系表单提交记录
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:100;not null"`
	Subject   string    `json:"subject" gorm:"size:150"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Emailed   bool      `json:"emailed" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
