package service

import (
	"fmt"
	"html"
	"strings"

	"fintrack/config"
	"fintrack/models"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 邮件服务是否可用（已启用且配置了联系表单收件人）
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled && s.cfg.ContactTo != ""
}

// SendContactEmail 将联系表单转发到 contact_to，回复地址为提交者邮箱
func (s *EmailService) SendContactEmail(msg *models.ContactMessage) error {
	if !s.Enabled() {
		return fmt.Errorf("邮件服务未启用，请配置 email.enabled 与 email.contact_to")
	}

	subject := "【FinTrack】联系表单"
	if strings.TrimSpace(msg.Subject) != "" {
		subject += "：" + strings.TrimSpace(msg.Subject)
	}
	return s.sendEmail(s.cfg.ContactTo, msg.Email, subject, s.generateContactEmailBody(msg))
}

// generateContactEmailBody 生成联系表单邮件内容，用户输入全部转义
func (s *EmailService) generateContactEmailBody(msg *models.ContactMessage) string {
	message := strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>")
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #10b981, #059669); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .message { background: #f8f9fa; border-left: 4px solid #10b981; padding: 15px; border-radius: 4px; color: #333; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 FinTrack 联系表单</h1>
        </div>
        <div class="content">
            <p>姓名：<strong>%s</strong></p>
            <p>邮箱：%s</p>
            <p>主题：%s</p>
            <div class="message">%s</div>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，直接回复即可联系提交者</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(msg.Name), html.EscapeString(msg.Email), html.EscapeString(msg.Subject), message)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, replyTo, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	if replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
