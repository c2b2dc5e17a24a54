/*
 * @module client/aggregator/errors
 * @description 聚合服务客户端错误分类体系,按HTTP状态码划分错误类别
 * @architecture 错误分类 - 单一APIError结构携带类别常量
 * @documentReference dev_docs/requirements.md
 * @stateFlow 请求核心按状态码分类 -> 调用方通过errors.As与类别谓词判断
 * @rules 传输层失败类别为connection且StatusCode为0,与"服务可达但报错"区分
 * @dependencies errors, fmt, time
 * @refs client/aggregator/client.go
 */

package aggregator

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind 错误类别
type ErrorKind string

const (
	ErrKindAuthentication ErrorKind = "authentication" // 401/403 认证或权限错误
	ErrKindNotFound       ErrorKind = "not_found"      // 404 资源不存在
	ErrKindRateLimit      ErrorKind = "rate_limit"     // 429 频率限制
	ErrKindServer         ErrorKind = "server"         // 5xx 服务端错误
	ErrKindConnection     ErrorKind = "connection"     // 传输层失败,无状态码
	ErrKindValidation     ErrorKind = "validation"     // 422 校验错误
	ErrKindAPI            ErrorKind = "api"            // 其他API错误
)

// APIError 聚合服务API错误,携带类别、状态码与结构化错误详情
type APIError struct {
	Kind       ErrorKind              `json:"kind"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RetryAfter time.Duration          `json:"-"`
}

// Error 实现error接口,格式为 "状态码: 消息",传输层错误无状态码前缀
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// AsAPIError 从错误链中提取APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func kindIs(err error, kind ErrorKind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}

// IsAuthenticationError 判断是否为认证错误
func IsAuthenticationError(err error) bool { return kindIs(err, ErrKindAuthentication) }

// IsNotFoundError 判断是否为资源不存在错误
func IsNotFoundError(err error) bool { return kindIs(err, ErrKindNotFound) }

// IsRateLimitError 判断是否为频率限制错误
func IsRateLimitError(err error) bool { return kindIs(err, ErrKindRateLimit) }

// IsServerError 判断是否为服务端错误
func IsServerError(err error) bool { return kindIs(err, ErrKindServer) }

// IsConnectionError 判断是否为连接失败错误
func IsConnectionError(err error) bool { return kindIs(err, ErrKindConnection) }
