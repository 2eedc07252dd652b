package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fintrack/config"
)

// ChatTurn OpenAI 兼容的对话消息
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient OpenAI 兼容 chat/completions 客户端
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewChatClient 创建 AI 客户端
func NewChatClient(cfg config.ProviderConfig) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// Model 使用的模型名称
func (c *ChatClient) Model() string {
	return c.model
}

func (c *ChatClient) newRequest(ctx context.Context, messages []ChatTurn, stream bool) (*http.Request, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: openai api_key", ErrNotConfigured)
	}
	body, err := json.Marshal(map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"stream":      stream,
		"temperature": 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// Complete 非流式对话，返回 choices[0].message.content
func (c *ChatClient) Complete(ctx context.Context, messages []ChatTurn) (string, error) {
	req, err := c.newRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}
	var resp struct {
		Choices []struct {
			Message ChatTurn `json:"message"`
		} `json:"choices"`
	}
	if err := doJSON(c.client, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: AI 未返回内容", ErrProviderUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Stream 流式对话，每收到一段内容调用 onDelta，返回完整回复。
// 收到 [DONE] 或 EOF 视为正常结束
func (c *ChatClient) Stream(ctx context.Context, messages []ChatTurn, onDelta func(string) error) (string, error) {
	req, err := c.newRequest(ctx, messages, true)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: AI 服务返回 %d %s", ErrProviderUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	reader := bufio.NewReader(resp.Body)
	var full strings.Builder
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return full.String(), fmt.Errorf("读取 AI 响应失败: %w", err)
		}

		content, done := parseStreamLine(line)
		if content != "" {
			full.WriteString(content)
			if cbErr := onDelta(content); cbErr != nil {
				return full.String(), cbErr
			}
		}
		if done || err == io.EOF {
			return full.String(), nil
		}
	}
}

// parseStreamLine 解析一行 SSE：data: {...choices[0].delta.content...} 或 data: [DONE]
func parseStreamLine(line []byte) (string, bool) {
	line = bytes.TrimSpace(line)
	if !bytes.HasPrefix(line, []byte("data:")) {
		return "", false
	}
	data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
	if string(data) == "[DONE]" {
		return "", true
	}

	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chunk); err != nil || len(chunk.Choices) == 0 {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, false
}
