package api

import (
	"strings"

	"fintrack/database"
	"fintrack/models"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContactHandler 联系表单处理器
type ContactHandler struct {
	email *service.EmailService
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(email *service.EmailService) *ContactHandler {
	return &ContactHandler{email: email}
}

// ContactRequest 联系表单
type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"Ali"`
	Email   string `json:"email" binding:"required,email,max=100" example:"ali@example.com"`
	Subject string `json:"subject" binding:"max=150" example:"功能建议"`
	Message string `json:"message" binding:"required,max=5000" example:"希望支持更多货币"`
}

// Submit 提交联系表单
// @Summary 提交联系表单
// @Description 保存留言；开启邮件时转发到配置的收件人，发送失败只记录日志
// @Tags 联系我们
// @Accept json
// @Produce json
// @Param request body ContactRequest true "留言内容"
// @Success 200 {object} Response "提交成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/contact/submit [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	msg := models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if msg.Message == "" {
		BadRequest(c, "留言内容不能为空")
		return
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		ServerError(c, err, "提交失败")
		return
	}

	if h.email != nil && h.email.Enabled() {
		if err := h.email.SendContactEmail(&msg); err != nil {
			logrus.WithError(err).WithField("contact_id", msg.ID).Error("联系表单邮件发送失败")
		} else if err := database.DB.Model(&msg).Update("emailed", true).Error; err != nil {
			logrus.WithError(err).WithField("contact_id", msg.ID).Warn("更新邮件状态失败")
		}
	}

	SuccessWithMessage(c, "提交成功，我们会尽快与您联系", gin.H{"id": msg.ID})
}
