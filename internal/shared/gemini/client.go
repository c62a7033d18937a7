package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Google Generative Language API基础地址
const baseURL = "https://generativelanguage.googleapis.com"

// ErrNoAPIKey API密钥未配置
var ErrNoAPIKey = errors.New("gemini api key is not configured")

// =============================================================================
// Client — Gemini API基础客户端
// 提供通用HTTP请求封装，供表单结构分析、信息提取、报告生成共用
// =============================================================================

// Client Gemini客户端
type Client struct {
	apiKey     string       // API密钥
	model      string       // 模型名（如 gemini-1.5-flash）
	httpClient *http.Client // HTTP客户端
}

// NewClient 创建Gemini客户端实例
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured 是否已配置API密钥
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GenerateContent 单轮文本生成，返回首个候选的文本
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}

	req := generateContentRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("gemini API错误[%d]: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini返回空候选结果")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// doRequest 执行Gemini API请求
// API密钥通过header传递，请求体JSON序列化，响应反序列化到result
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode >= 500 {
		return &TransientError{StatusCode: resp.StatusCode, Body: truncate(respBody, 512)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini HTTP %d: %s", resp.StatusCode, truncate(respBody, 512))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}
	return nil
}

// TransientError 服务端暂时性错误，可重试
type TransientError struct {
	StatusCode int
	Body       string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("gemini transient error HTTP %d: %s", e.StatusCode, e.Body)
}

// IsTransient 判断错误是否值得重试（5xx或网络层失败）
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	// 网络层错误（连接被拒、超时等）包在url.Error里
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
