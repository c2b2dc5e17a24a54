/*
 * @module service/schema/llm
 * @description 语言模型能力接口与OpenAI兼容实现,用于字段讲解生成
 * @architecture 能力注入 - 单方法接口,调用方显式检查能力是否配置
 * @documentReference dev_docs/requirements.md
 * @stateFlow 提示词 -> chat/completions请求 -> 取首个choice的内容
 * @rules 兼容任何OpenAI风格的推理网关,地址/模型/温度均可配置
 * @dependencies net/http, encoding/json
 * @refs service/schema/explainer.go, service/init.go
 */

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LLMProvider 语言模型能力接口
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLMConfig 语言模型配置
type LLMConfig struct {
	BaseURL     string        `json:"base_url"`    // OpenAI兼容网关地址
	APIKey      string        `json:"api_key"`     // API密钥
	Model       string        `json:"model"`       // 模型名称
	Temperature float64       `json:"temperature"` // 采样温度
	Timeout     time.Duration `json:"timeout"`     // HTTP超时时间
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAIProvider OpenAI兼容的语言模型实现
type OpenAIProvider struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIProvider 创建OpenAI兼容的语言模型实现
func NewOpenAIProvider(config *LLMConfig) *OpenAIProvider {
	if config == nil {
		config = &LLMConfig{}
	}
	provider := &OpenAIProvider{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		model:       config.Model,
		temperature: config.Temperature,
	}
	if provider.baseURL == "" {
		provider.baseURL = "https://api.openai.com/v1"
	}
	if provider.model == "" {
		provider.model = "gpt-4o-mini"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	provider.httpClient = &http.Client{Timeout: timeout}
	return provider
}

// Generate 调用chat/completions生成文本
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   1024,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求体失败: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("语言模型请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("语言模型服务返回状态 %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("解析语言模型响应失败: %v", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("语言模型返回了空内容")
	}
	return parsed.Choices[0].Message.Content, nil
}
