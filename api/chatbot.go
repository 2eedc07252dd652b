package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"
	"fintrack/service"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// historyTurns 每次请求附带的历史轮数
const historyTurns = 5

// ChatProvider OpenAI 兼容的对话接口
type ChatProvider interface {
	Model() string
	Complete(ctx context.Context, messages []service.ChatTurn) (string, error)
	Stream(ctx context.Context, messages []service.ChatTurn, onDelta func(string) error) (string, error)
}

type sseChatFrame struct {
	Type    string `json:"type"`              // delta | done | error
	Content string `json:"content,omitempty"` // delta内容或错误信息
}

func writeSSEJSON(c *gin.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("data: " + string(b) + "\n\n")
	c.Writer.Flush()
}

// ChatbotHandler 理财助手处理器
type ChatbotHandler struct {
	provider ChatProvider
	now      func() time.Time
}

// NewChatbotHandler 创建理财助手处理器
func NewChatbotHandler(provider ChatProvider) *ChatbotHandler {
	return &ChatbotHandler{provider: provider, now: time.Now}
}

// ChatRequest 对话请求
type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000" example:"这个月我还能花多少？"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// buildMessages 组装 system prompt（当月收支）+ 最近几轮历史 + 本次输入
func (h *ChatbotHandler) buildMessages(userID uint, message string) ([]service.ChatTurn, error) {
	fig, err := service.MonthToDate(database.DB, userID, h.now())
	if err != nil {
		return nil, err
	}

	var history []models.ChatMessage
	if err := database.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(historyTurns).Find(&history).Error; err != nil {
		return nil, err
	}

	msgs := []service.ChatTurn{{Role: "system", Content: systemPrompt(fig)}}
	for i := len(history) - 1; i >= 0; i-- {
		msgs = append(msgs,
			service.ChatTurn{Role: "user", Content: history[i].UserText},
			service.ChatTurn{Role: "assistant", Content: history[i].AIText},
		)
	}
	return append(msgs, service.ChatTurn{Role: "user", Content: message}), nil
}

func systemPrompt(fig *service.MonthFigures) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant for a user in Pakistan. Amounts are in PKR. ")
	b.WriteString("Answer concisely and do not invent figures that are not given below.\n")
	fmt.Fprintf(&b, "Month-to-date (%s): income PKR %s, expenses PKR %s, net PKR %s.",
		fig.Month,
		humanize.CommafWithDigits(fig.Income, 2),
		humanize.CommafWithDigits(fig.Expense, 2),
		humanize.CommafWithDigits(fig.Net, 2),
	)
	return b.String()
}

func (h *ChatbotHandler) saveTurn(userID uint, userText, aiText string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		UserID:   userID,
		Model:    h.provider.Model(),
		UserText: userText,
		AIText:   aiText,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Chat 理财助手对话
// @Summary 理财助手对话
// @Description 结合当月收支数据回答问题，回复写入聊天记录
// @Tags 理财助手
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "对话内容"
// @Success 200 {object} Response{data=ChatResponse} "成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "AI 服务不可用"
// @Router /api/chatbot [post]
func (h *ChatbotHandler) Chat(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)

	msgs, err := h.buildMessages(userID, message)
	if err != nil {
		ServerError(c, err, "对话失败")
		return
	}
	reply, err := h.provider.Complete(c.Request.Context(), msgs)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("AI 对话失败")
		InternalError(c, "AI 服务暂不可用，请稍后再试")
		return
	}
	if _, err := h.saveTurn(userID, message, reply); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("保存聊天记录失败")
	}

	Success(c, ChatResponse{Reply: reply, Model: h.provider.Model()})
}

// ChatStream 理财助手对话（SSE 流式返回）
// @Summary 理财助手对话（流式）
// @Description SSE 流式返回 JSON 帧（delta/done/error），结束后保存聊天记录
// @Tags 理财助手
// @Accept json
// @Produce text/event-stream
// @Security BearerAuth
// @Param request body ChatRequest true "对话内容"
// @Success 200 {string} string "SSE流：data: {\"type\":\"delta\",\"content\":\"...\"}"
// @Router /api/chatbot/stream [post]
func (h *ChatbotHandler) ChatStream(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)

	msgs, err := h.buildMessages(userID, message)
	if err != nil {
		ServerError(c, err, "对话失败")
		return
	}

	// SSE响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	reply, err := h.provider.Stream(c.Request.Context(), msgs, func(delta string) error {
		writeSSEJSON(c, sseChatFrame{Type: "delta", Content: delta})
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("AI 流式对话失败")
		writeSSEJSON(c, sseChatFrame{Type: "error", Content: "AI 服务暂不可用，请稍后再试"})
		writeSSEJSON(c, sseChatFrame{Type: "done"})
		return
	}

	if reply != "" {
		if _, err := h.saveTurn(userID, message, reply); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("保存聊天记录失败")
		}
	}
	writeSSEJSON(c, sseChatFrame{Type: "done"})
}

// History 聊天记录
// @Summary 获取聊天记录
// @Description 按时间倒序分页返回（软删除不返回）
// @Tags 理财助手
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认1"
// @Param page_size query int false "每页条数，默认20，最大100"
// @Success 200 {object} Response{data=PageResponse} "获取成功"
// @Router /api/chatbot/history [get]
func (h *ChatbotHandler) History(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	page, pageSize := pageParams(intQuery(c, "page", 1, 0), intQuery(c, "page_size", 20, 100))

	query := database.DB.Model(&models.ChatMessage{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		ServerError(c, err, "查询失败")
		return
	}

	var list []models.ChatMessage
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		ServerError(c, err, "查询失败")
		return
	}
	Success(c, PageResponse{Total: total, Page: page, PageSize: pageSize, List: list})
}

// DeleteHistory 删除一条聊天记录
// @Summary 删除聊天记录
// @Tags 理财助手
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/chatbot/history/{id} [delete]
func (h *ChatbotHandler) DeleteHistory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	result := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.ChatMessage{})
	if result.Error != nil {
		ServerError(c, result.Error, "删除失败")
		return
	}
	if result.RowsAffected == 0 {
		NotFound(c, "记录不存在")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}
