/*
 * @module api/middleware/push_rate_limit
 * @description 推送接口限流中间件,超限请求返回429并携带重试信息
 * @architecture 中间件模式 - HTTP请求拦截
 * @documentReference dev_docs/requirements.md
 * @stateFlow 提取数据源标识 -> 限流检查 -> 放行或拒绝
 * @rules 限流器不可用时放行请求,限流不能成为推送链路的单点故障
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/rate_limiter/push_rate_limiter.go, api/routes.go
 */

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nexuscore-service/service/rate_limiter"
)

// PushLimiter 推送限流检查接口
type PushLimiter interface {
	CheckPush(ctx context.Context, sourceKey string) (*rate_limiter.RateLimitResult, error)
}

// PushRateLimitMiddleware 推送接口限流中间件
type PushRateLimitMiddleware struct {
	limiter PushLimiter
}

// NewPushRateLimitMiddleware 创建推送限流中间件,limiter为nil时中间件直接放行
func NewPushRateLimitMiddleware(limiter PushLimiter) *PushRateLimitMiddleware {
	return &PushRateLimitMiddleware{limiter: limiter}
}

// Middleware 限流中间件处理函数,要求路由携带source_key路径参数
func (m *PushRateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		sourceKey := chi.URLParam(r, "source_key")

		result, err := m.limiter.CheckPush(r.Context(), sourceKey)
		if err != nil {
			// 限流检查失败时放行,只记录日志
			slog.Warn("推送限流检查失败,放行请求", "source_key", sourceKey, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !result.Allowed {
			m.respondLimited(w, r, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// respondLimited 返回429限流响应,携带限额与重置时间
func (m *PushRateLimitMiddleware) respondLimited(w http.ResponseWriter, r *http.Request, result *rate_limiter.RateLimitResult) {
	retryAfter := result.ResetAt - time.Now().Unix()
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.WriteHeader(http.StatusTooManyRequests)
	render.JSON(w, r, map[string]interface{}{
		"status":     http.StatusTooManyRequests,
		"message":    result.Message,
		"error":      http.StatusText(http.StatusTooManyRequests),
		"limit_type": result.RateLimitType,
		"limit":      result.Limit,
		"remaining":  result.Remaining,
		"reset_at":   result.ResetAt,
	})
}
