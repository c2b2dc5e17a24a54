/*
 * @module client/aggregator/client
 * @description 聚合服务HTTP客户端,提供数据源管理、分页取数、流式读取、文件上传与重试机制
 * @architecture 适配器模式 - 封装聚合服务REST API,统一错误分类与重试策略
 * @documentReference dev_docs/requirements.md
 * @stateFlow 会话惰性建立 -> 请求/分类/重试 -> 显式Close仅释放自有会话
 * @rules 可重试状态码{429,500,502,503,504};429按Retry-After提示等待,其余指数退避封顶30秒;
 *        注入的HTTP客户端由调用方负责生命周期,本客户端不关闭
 * @dependencies net/http, encoding/json, github.com/spf13/cast
 * @refs client/aggregator/models.go, client/aggregator/errors.go, service/meta
 */

package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"nexuscore-service/service/meta"
)

const (
	defaultBaseURL    = "http://localhost:8080"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultChunkSize  = 1000
	maxBackoffDelay   = 30 * time.Second
)

// Config 聚合服务客户端配置
type Config struct {
	BaseURL    string        `json:"base_url"`    // 聚合服务地址
	APIKey     string        `json:"api_key"`     // API密钥,为空则不携带认证头
	Timeout    time.Duration `json:"timeout"`     // HTTP超时时间
	MaxRetries int           `json:"max_retries"` // 最大重试次数
	RetryDelay time.Duration `json:"retry_delay"` // 基础重试间隔
	// HTTPClient 外部注入的HTTP客户端;注入后会话归调用方所有,Close不会关闭它
	HTTPClient *http.Client `json:"-"`
}

// ClientStats 客户端统计信息
type ClientStats struct {
	RequestCount    int64     `json:"request_count"`     // 请求总数
	SuccessCount    int64     `json:"success_count"`     // 成功请求数
	ErrorCount      int64     `json:"error_count"`       // 错误请求数
	RetryCount      int64     `json:"retry_count"`       // 重试次数
	LastRequestTime time.Time `json:"last_request_time"` // 最后请求时间
	mutex           sync.RWMutex
}

func (s *ClientStats) record(success bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RequestCount++
	if success {
		s.SuccessCount++
	} else {
		s.ErrorCount++
	}
	s.LastRequestTime = time.Now()
}

func (s *ClientStats) recordRetry() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RetryCount++
}

// Client 聚合服务客户端
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration

	httpClient  *http.Client
	ownsSession bool
	sessionMu   sync.Mutex

	stats *ClientStats
}

// NewClient 创建聚合服务客户端,注入HTTP客户端时会话为借用模式
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	client := &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		stats:      &ClientStats{},
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	if client.maxRetries <= 0 {
		client.maxRetries = defaultMaxRetries
	}
	if client.retryDelay <= 0 {
		client.retryDelay = defaultRetryDelay
	}

	if config.HTTPClient != nil {
		client.httpClient = config.HTTPClient
		client.ownsSession = false
	}
	return client
}

// Connect 建立HTTP会话,幂等,已有会话时不做任何事
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

// session 惰性获取HTTP会话,首次使用时创建自有会话
func (c *Client) session() *http.Client {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
		c.ownsSession = true
	}
	return c.httpClient
}

// GetStatistics 获取客户端统计信息
func (c *Client) GetStatistics() map[string]interface{} {
	c.stats.mutex.RLock()
	defer c.stats.mutex.RUnlock()
	return map[string]interface{}{
		"request_count":     c.stats.RequestCount,
		"success_count":     c.stats.SuccessCount,
		"error_count":       c.stats.ErrorCount,
		"retry_count":       c.stats.RetryCount,
		"last_request_time": c.stats.LastRequestTime,
	}
}

// requestOptions 单次请求的可选参数
type requestOptions struct {
	query       url.Values
	jsonBody    interface{}
	rawBody     []byte
	contentType string
}

// request 请求核心:构造请求、分类错误并按策略重试,返回原始响应体
func (c *Client) request(ctx context.Context, method, endpoint string, opts *requestOptions) ([]byte, error) {
	if opts == nil {
		opts = &requestOptions{}
	}

	bodyBytes := opts.rawBody
	contentType := opts.contentType
	if opts.jsonBody != nil {
		data, err := json.Marshal(opts.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %v", err)
		}
		bodyBytes = data
		contentType = "application/json"
	}

	fullURL := c.baseURL + endpoint
	if len(opts.query) > 0 {
		fullURL += "?" + opts.query.Encode()
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if len(bodyBytes) > 0 {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("创建HTTP请求失败: %v", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.session().Do(req)
		if err != nil {
			c.stats.record(false)
			slog.Warn("聚合服务请求失败", "method", method, "endpoint", endpoint,
				"attempt", attempt+1, "total", c.maxRetries+1, "error", err)
			if attempt >= c.maxRetries {
				return nil, &APIError{
					Kind:       ErrKindConnection,
					Message:    fmt.Sprintf("无法连接到 %s: %v", c.baseURL, err),
					StatusCode: 0,
				}
			}
			c.stats.recordRetry()
			if serr := c.sleep(ctx, c.backoffDelay(attempt)); serr != nil {
				return nil, serr
			}
			continue
		}

		if resp.StatusCode < 400 {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				c.stats.record(false)
				return nil, fmt.Errorf("读取响应体失败: %v", readErr)
			}
			c.stats.record(true)
			if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
				return nil, nil
			}
			return body, nil
		}

		apiErr := c.classifyError(resp, endpoint)
		c.stats.record(false)

		if meta.IsRetryableStatusCode(resp.StatusCode) && attempt < c.maxRetries {
			delay := c.backoffDelay(attempt)
			if resp.StatusCode == http.StatusTooManyRequests {
				// 429按服务端提示等待,无提示时退回基础间隔
				delay = c.retryDelay
				if apiErr.RetryAfter > 0 {
					delay = apiErr.RetryAfter
				}
			}
			slog.Warn("聚合服务返回可重试状态码", "status", resp.StatusCode,
				"endpoint", endpoint, "attempt", attempt+1, "delay", delay.String())
			c.stats.recordRetry()
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}
			continue
		}
		return nil, apiErr
	}

	return nil, &APIError{
		Kind:       ErrKindConnection,
		Message:    fmt.Sprintf("请求在 %d 次尝试后仍然失败", c.maxRetries+1),
		StatusCode: 0,
	}
}

// classifyError 按状态码分类错误,读取并关闭响应体
func (c *Client) classifyError(resp *http.Response, endpoint string) *APIError {
	details := parseErrorDetail(resp.Body)
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &APIError{Kind: ErrKindAuthentication, Message: "认证失败, 请检查API密钥", StatusCode: resp.StatusCode, Details: details}
	case resp.StatusCode == http.StatusForbidden:
		return &APIError{Kind: ErrKindAuthentication, Message: "权限不足, 请检查API密钥及其权限", StatusCode: resp.StatusCode, Details: details}
	case resp.StatusCode == http.StatusNotFound:
		return &APIError{Kind: ErrKindNotFound, Message: fmt.Sprintf("资源不存在: %s", endpoint), StatusCode: resp.StatusCode, Details: details}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp)
		if details == nil {
			details = map[string]interface{}{}
		}
		details["retry_after"] = int(retryAfter / time.Second)
		return &APIError{Kind: ErrKindRateLimit, Message: "请求频率超限", StatusCode: resp.StatusCode, Details: details, RetryAfter: retryAfter}
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &APIError{Kind: ErrKindValidation, Message: fmt.Sprintf("请求校验失败: %s", detailMessage(details)), StatusCode: resp.StatusCode, Details: details}
	case resp.StatusCode >= 500:
		return &APIError{Kind: ErrKindServer, Message: fmt.Sprintf("服务端错误: %s", detailMessage(details)), StatusCode: resp.StatusCode, Details: details}
	default:
		return &APIError{Kind: ErrKindAPI, Message: fmt.Sprintf("API请求失败: %s", detailMessage(details)), StatusCode: resp.StatusCode, Details: details}
	}
}

// parseErrorDetail 解析错误响应体,非JSON时以detail字段包装原文
func parseErrorDetail(body io.Reader) map[string]interface{} {
	raw, err := io.ReadAll(body)
	if err != nil || len(raw) == 0 {
		return map[string]interface{}{"detail": "未知错误"}
	}
	details := make(map[string]interface{})
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]interface{}{"detail": strings.TrimSpace(string(raw))}
	}
	return details
}

func detailMessage(details map[string]interface{}) string {
	if msg := cast.ToString(details["detail"]); msg != "" {
		return msg
	}
	return "未知错误"
}

// parseRetryAfter 解析Retry-After头(秒),不可解析时返回0
func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// backoffDelay 指数退避延迟,封顶30秒
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryDelay * time.Duration(1<<uint(attempt))
	if delay > maxBackoffDelay {
		delay = maxBackoffDelay
	}
	return delay
}

// sleep 可取消的重试等待
func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("等待重试时请求被取消: %w", ctx.Err())
	case <-time.After(delay):
		return nil
	}
}

// ListSources 列出所有已注册的数据源
func (c *Client) ListSources(ctx context.Context) ([]SourceConfig, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v1/sources", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Sources []SourceConfig `json:"sources"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("解析数据源列表失败: %v", err)
	}
	return payload.Sources, nil
}

// GetSource 获取指定数据源的配置
func (c *Client) GetSource(ctx context.Context, name string) (*SourceConfig, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v1/sources/"+name, nil)
	if err != nil {
		return nil, err
	}
	var config SourceConfig
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, fmt.Errorf("解析数据源配置失败: %v", err)
	}
	return &config, nil
}

// CreateSource 注册新数据源
func (c *Client) CreateSource(ctx context.Context, config *SourceConfig) (*SourceConfig, error) {
	body, err := c.request(ctx, http.MethodPost, "/api/v1/sources", &requestOptions{jsonBody: config})
	if err != nil {
		return nil, err
	}
	var created SourceConfig
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("解析数据源配置失败: %v", err)
	}
	return &created, nil
}

// UpdateSource 更新已注册的数据源
func (c *Client) UpdateSource(ctx context.Context, name string, config *SourceConfig) (*SourceConfig, error) {
	body, err := c.request(ctx, http.MethodPut, "/api/v1/sources/"+name, &requestOptions{jsonBody: config})
	if err != nil {
		return nil, err
	}
	var updated SourceConfig
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("解析数据源配置失败: %v", err)
	}
	return &updated, nil
}

// DeleteSource 删除数据源
func (c *Client) DeleteSource(ctx context.Context, name string) error {
	_, err := c.request(ctx, http.MethodDelete, "/api/v1/sources/"+name, nil)
	return err
}

// GetSourceHealth 获取数据源健康状态快照
func (c *Client) GetSourceHealth(ctx context.Context, name string) (*SourceHealth, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v1/sources/"+name+"/health", nil)
	if err != nil {
		return nil, err
	}
	var health SourceHealth
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("解析健康状态失败: %v", err)
	}
	return &health, nil
}

// FetchData 从数据源取一页数据,空页是合法结果
func (c *Client) FetchData(ctx context.Context, sourceName string, opts *FetchOptions) (*DataChunk, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}
	format := opts.Format
	if format == "" {
		format = meta.FileFormatJSON
	}

	query := url.Values{}
	query.Set("offset", strconv.Itoa(opts.Offset))
	query.Set("format", format)
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(opts.Filters) > 0 {
		filterJSON, err := json.Marshal(opts.Filters)
		if err != nil {
			return nil, fmt.Errorf("序列化过滤条件失败: %v", err)
		}
		query.Set("filter", string(filterJSON))
	}
	if len(opts.Sort) > 0 {
		sortJSON, err := json.Marshal(opts.Sort)
		if err != nil {
			return nil, fmt.Errorf("序列化排序条件失败: %v", err)
		}
		query.Set("sort", string(sortJSON))
	}

	body, err := c.request(ctx, http.MethodGet, "/api/v1/sources/"+sourceName+"/data", &requestOptions{query: query})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data     []map[string]interface{} `json:"data"`
		Metadata map[string]interface{}   `json:"metadata"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("解析数据块失败: %v", err)
		}
	}
	if payload.Data == nil {
		payload.Data = []map[string]interface{}{}
	}
	if payload.Metadata == nil {
		payload.Metadata = map[string]interface{}{}
	}
	return &DataChunk{SourceName: sourceName, Data: payload.Data, Metadata: payload.Metadata}, nil
}

// StreamData 创建流式读取迭代器,按chunkSize逐页拉取
func (c *Client) StreamData(sourceName string, opts *StreamOptions) *DataStream {
	if opts == nil {
		opts = &StreamOptions{}
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &DataStream{
		client:    c,
		source:    sourceName,
		chunkSize: chunkSize,
		filters:   opts.Filters,
		sort:      opts.Sort,
	}
}

// DataStream 数据流迭代器。终止条件:空页、短页(返回数不足chunkSize)、
// 或累计偏移达到元数据total,三者取先到者
type DataStream struct {
	client    *Client
	source    string
	chunkSize int
	filters   map[string]interface{}
	sort      []map[string]string

	offset  int
	current *DataChunk
	err     error
	done    bool
}

// Next 拉取下一个数据块,返回false表示流结束或出错
func (s *DataStream) Next(ctx context.Context) bool {
	if s.done || s.err != nil {
		return false
	}

	chunk, err := s.client.FetchData(ctx, s.source, &FetchOptions{
		Limit:   s.chunkSize,
		Offset:  s.offset,
		Filters: s.filters,
		Sort:    s.sort,
	})
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if chunk.IsEmpty() {
		s.done = true
		return false
	}

	s.current = chunk
	count := chunk.RecordCount()
	s.offset += count
	if count < s.chunkSize {
		s.done = true
	}
	if total, ok := chunk.Metadata["total"]; ok {
		if s.offset >= cast.ToInt(total) {
			s.done = true
		}
	}
	return true
}

// Chunk 返回当前数据块
func (s *DataStream) Chunk() *DataChunk {
	return s.current
}

// Err 返回迭代过程中遇到的错误,正常结束时为nil
func (s *DataStream) Err() error {
	return s.err
}

// ProfileSource 请求聚合服务对已注册数据源执行摄取并剖析,返回剖析载荷
func (c *Client) ProfileSource(ctx context.Context, sourceKey string) (map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodPost, "/api/v1/sources/"+sourceKey+"/profile", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// UploadFile 上传文件并注册为数据源。format为空时按扩展名自动识别,
// 无法识别时报错并列出支持的格式;extras以字符串形式附加到表单
func (c *Client) UploadFile(ctx context.Context, filePath, sourceName, format string, extras map[string]interface{}) (map[string]interface{}, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("文件不存在: %s", filePath)
	}

	if format == "" {
		format = meta.FileFormatFromExtension(filepath.Ext(filePath))
		if format == "" {
			return nil, fmt.Errorf("无法从文件扩展名识别格式, 请显式指定。支持的格式: %s",
				strings.Join(meta.GetAllFileFormats(), ", "))
		}
	} else if !meta.IsValidFileFormat(format) {
		return nil, fmt.Errorf("不支持的文件格式: %s, 支持的格式: %s",
			format, strings.Join(meta.GetAllFileFormats(), ", "))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %v", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(filePath)))
	header.Set("Content-Type", meta.GetFileFormatContentType(format))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("构造上传表单失败: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %v", err)
	}

	writer.WriteField("name", sourceName)
	writer.WriteField("format", format)
	for key, value := range extras {
		if value != nil {
			writer.WriteField(key, cast.ToString(value))
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("构造上传表单失败: %v", err)
	}

	body, err := c.request(ctx, http.MethodPost, "/api/v1/upload", &requestOptions{
		rawBody:     buf.Bytes(),
		contentType: writer.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// TransformData 请求聚合服务对源数据执行服务端转换
func (c *Client) TransformData(ctx context.Context, sourceName string, transformSpec map[string]interface{}, outputName string) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"source":    sourceName,
		"transform": transformSpec,
	}
	if outputName != "" {
		payload["output_name"] = outputName
	}
	body, err := c.request(ctx, http.MethodPost, "/api/v1/transform", &requestOptions{jsonBody: payload})
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// TestConnection 测试与聚合服务的连通性。健康检查端点返回404视为服务可达
// (可能是不带健康检查端点的旧版本服务)
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, "/api/v1/health", nil)
	if err == nil {
		return nil
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// GetSystemInfo 获取聚合服务系统信息
func (c *Client) GetSystemInfo(ctx context.Context) (map[string]interface{}, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/v1/system/info", nil)
	if err != nil {
		return nil, err
	}
	return decodeMap(body)
}

// decodeMap 将响应体解析为通用映射,空响应返回空映射
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
