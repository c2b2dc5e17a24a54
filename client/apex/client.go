/*
 * @module client/apex/client
 * @description 任务服务HTTP客户端,提供任务、文档、数据集与分析触发操作
 * @architecture 适配器模式 - 封装任务服务REST API,单次请求不重试
 * @documentReference dev_docs/requirements.md
 * @stateFlow 会话惰性建立 -> 单次请求/错误分类 -> 显式Close仅释放自有会话
 * @rules 任务与文档载荷以通用映射透传,标识符由调用方按需提取;
 *        注入的HTTP客户端由调用方负责生命周期,本客户端不关闭
 * @dependencies net/http, encoding/json
 * @refs client/apex/errors.go, service/ingestion
 */

package apex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"nexuscore-service/service/meta"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second
)

// Config 任务服务客户端配置
type Config struct {
	BaseURL string        `json:"base_url"` // 任务服务地址
	APIKey  string        `json:"api_key"`  // API密钥,为空则不携带认证头
	Timeout time.Duration `json:"timeout"`  // HTTP超时时间
	// HTTPClient 外部注入的HTTP客户端;注入后会话归调用方所有,Close不会关闭它
	HTTPClient *http.Client `json:"-"`
}

// Client 任务服务客户端
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration

	httpClient  *http.Client
	ownsSession bool
	sessionMu   sync.Mutex
}

// NewClient 创建任务服务客户端,注入HTTP客户端时会话为借用模式
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	client := &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		timeout: config.Timeout,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}

	if config.HTTPClient != nil {
		client.httpClient = config.HTTPClient
		client.ownsSession = false
	}
	return client
}

// Connect 建立HTTP会话,幂等
func (c *Client) Connect() error {
	c.session()
	return nil
}

// Close 关闭自有会话;借用的会话不做任何处理
func (c *Client) Close() {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.ownsSession && c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
		c.ownsSession = false
	}
}

func (c *Client) session() *http.Client {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
		c.ownsSession = true
	}
	return c.httpClient
}

// request 请求核心:单次请求,按状态码分类错误,返回原始响应体
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, jsonBody interface{}) ([]byte, error) {
	var reader io.Reader
	if jsonBody != nil {
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	fullURL := c.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.session().Do(req)
	if err != nil {
		return nil, &APIError{
			Kind:       ErrKindConnection,
			Message:    fmt.Sprintf("请求失败: %v", err),
			StatusCode: 0,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %v", err)
	}

	if resp.StatusCode >= 400 {
		return nil, classifyError(resp.StatusCode, body)
	}
	return body, nil
}

// classifyError 按状态码分类错误响应
func classifyError(statusCode int, body []byte) *APIError {
	details := make(map[string]interface{})
	if len(body) > 0 {
		if err := json.Unmarshal(body, &details); err != nil {
			details = map[string]interface{}{"detail": strings.TrimSpace(string(body))}
		}
	} else {
		details = map[string]interface{}{"detail": "未知错误"}
	}

	detail := func(fallback string) string {
		if msg, ok := details["detail"].(string); ok && msg != "" {
			return msg
		}
		return fallback
	}

	switch {
	case statusCode == http.StatusNotFound:
		return &APIError{Kind: ErrKindNotFound, Message: detail("资源不存在"), StatusCode: statusCode, Details: details}
	case statusCode == http.StatusUnprocessableEntity:
		return &APIError{Kind: ErrKindValidation, Message: "请求校验失败", StatusCode: statusCode, Details: details}
	case statusCode >= 500 && statusCode < 600:
		return &APIError{Kind: ErrKindServer, Message: detail("服务端错误"), StatusCode: statusCode, Details: details}
	default:
		return &APIError{Kind: ErrKindAPI, Message: detail("API请求失败"), StatusCode: statusCode, Details: details}
	}
}

// CreateMission 创建任务,description为空时以null透传
func (c *Client) CreateMission(ctx context.Context, name, description string) (map[string]interface{}, error) {
	payload := map[string]interface{}{"name": name, "description": nil}
	if description != "" {
		payload["description"] = description
	}
	body, err := c.request(ctx, http.MethodPost, "/missions", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// GetMission 按ID获取任务
func (c *Client) GetMission(ctx context.Context, missionID int) (map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/missions/"+strconv.Itoa(missionID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// ListMissions 列出所有任务
func (c *Client) ListMissions(ctx context.Context) ([]map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/missions", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// DeleteMission 删除任务
func (c *Client) DeleteMission(ctx context.Context, missionID int) error {
	_, err := c.request(ctx, http.MethodDelete, "/missions/"+strconv.Itoa(missionID), nil, nil)
	return err
}

// AddDocument 向任务添加文档,title为空时以null透传
func (c *Client) AddDocument(ctx context.Context, missionID int, content, title string, includeInAnalysis bool) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"title":               nil,
		"content":             content,
		"include_in_analysis": includeInAnalysis,
	}
	if title != "" {
		payload["title"] = title
	}
	body, err := c.request(ctx, http.MethodPost, "/missions/"+strconv.Itoa(missionID)+"/documents", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// ListDocuments 列出任务下的所有文档
func (c *Client) ListDocuments(ctx context.Context, missionID int) ([]map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/missions/"+strconv.Itoa(missionID)+"/documents", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// AnalyzeMission 触发任务分析,profile为空时使用默认分析视角
func (c *Client) AnalyzeMission(ctx context.Context, missionID int, profile string) (map[string]interface{}, error) {
	if profile == "" {
		profile = meta.DefaultAnalysisProfile
	}
	query := url.Values{}
	query.Set("profile", profile)
	body, err := c.request(ctx, http.MethodPost, "/missions/"+strconv.Itoa(missionID)+"/analyze", query, nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// GetAnalysisRuns 获取任务的分析运行列表
func (c *Client) GetAnalysisRuns(ctx context.Context, missionID int) ([]map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/missions/"+strconv.Itoa(missionID)+"/agent_runs", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(body)
}

// GetAnalysisRun 按ID获取分析运行
func (c *Client) GetAnalysisRun(ctx context.Context, runID int) (map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/agent_runs/"+strconv.Itoa(runID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// CreateMissionDataset 在任务下注册数据集,profile为nil时载荷中省略
func (c *Client) CreateMissionDataset(ctx context.Context, missionID int, name string, sources []map[string]interface{}, profile map[string]interface{}) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"name":    name,
		"sources": sources,
	}
	if profile != nil {
		payload["profile"] = profile
	}
	body, err := c.request(ctx, http.MethodPost, "/missions/"+strconv.Itoa(missionID)+"/datasets", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

func decodeMap(body []byte) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if len(body) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}
	return result, nil
}

func decodeList(body []byte) ([]map[string]interface{}, error) {
	result := []map[string]interface{}{}
	if len(body) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}
	return result, nil
}
