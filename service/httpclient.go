package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doRequest 发送请求并读取响应体，非 2xx 状态视为外部服务不可用
func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s 返回 %d: %s", ErrProviderUnavailable, req.URL.Host, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func doJSON(client *http.Client, req *http.Request, out interface{}) error {
	data, err := doRequest(client, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
