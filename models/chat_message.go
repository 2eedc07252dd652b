package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage AI 助手聊天记录（单轮：用户输入 + AI 输出）
type ChatMessage struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Model     string         `json:"model" gorm:"size:100"`
	UserText  string         `json:"user_text" gorm:"type:text;not null"`
	AIText    string         `json:"ai_text" gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
