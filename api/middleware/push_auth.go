/*
 * @module api/middleware/push_auth
 * @description 推送接口鉴权中间件,校验数据源推送令牌的有效性
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @documentReference dev_docs/requirements.md
 * @stateFlow 令牌提取 -> 凭证校验 -> 上下文注入 -> 下一个处理器
 * @rules 令牌按数据源签发,bcrypt校验结果短时缓存以降低推送路径开销
 * @dependencies net/http, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/ingestion/credentials.go, api/routes.go
 */

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nexuscore-service/service/ingestion"
)

// PushContextKey 推送上下文键类型
type PushContextKey string

// PushSourceKey 校验通过的数据源标识在上下文中的键
const PushSourceKey PushContextKey = "push_source_key"

// PushAuthMiddleware 推送接口鉴权中间件
type PushAuthMiddleware struct {
	credentials *ingestion.CredentialService
	// bcrypt校验结果缓存,避免高频推送每次都做哈希比较
	cache      map[string]time.Time
	cacheMutex sync.RWMutex
	cacheTTL   time.Duration
}

// NewPushAuthMiddleware 创建推送鉴权中间件实例
func NewPushAuthMiddleware(credentials *ingestion.CredentialService) *PushAuthMiddleware {
	return &PushAuthMiddleware{
		credentials: credentials,
		cache:       make(map[string]time.Time),
		cacheTTL:    5 * time.Minute,
	}
}

// Middleware 鉴权中间件处理函数,要求路由携带source_key路径参数
func (m *PushAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceKey := chi.URLParam(r, "source_key")
		if sourceKey == "" {
			m.respondError(w, r, http.StatusBadRequest, "缺少数据源标识")
			return
		}

		token := extractPushToken(r)
		if token == "" {
			m.respondError(w, r, http.StatusUnauthorized, "缺少推送令牌,请通过Authorization头或X-Push-Token头携带")
			return
		}

		// 先检查缓存,命中则跳过bcrypt比较
		if m.isCached(sourceKey, token) {
			next.ServeHTTP(w, r.WithContext(m.withSourceKey(r.Context(), sourceKey)))
			return
		}

		if err := m.credentials.Verify(sourceKey, token); err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, ingestion.ErrCredentialDisabled) {
				status = http.StatusForbidden
			}
			m.respondError(w, r, status, err.Error())
			return
		}

		m.saveToCache(sourceKey, token)
		next.ServeHTTP(w, r.WithContext(m.withSourceKey(r.Context(), sourceKey)))
	})
}

// extractPushToken 从Authorization Bearer头或X-Push-Token头提取令牌
func extractPushToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-Push-Token")
}

func (m *PushAuthMiddleware) withSourceKey(ctx context.Context, sourceKey string) context.Context {
	return context.WithValue(ctx, PushSourceKey, sourceKey)
}

// cacheKey 缓存键,数据源与令牌共同构成
func cacheKey(sourceKey, token string) string {
	return sourceKey + "\x00" + token
}

// isCached 检查校验结果缓存
func (m *PushAuthMiddleware) isCached(sourceKey, token string) bool {
	m.cacheMutex.RLock()
	defer m.cacheMutex.RUnlock()

	expiresAt, exists := m.cache[cacheKey(sourceKey, token)]
	if !exists {
		return false
	}
	if time.Now().After(expiresAt) {
		go m.removeFromCache(sourceKey, token)
		return false
	}
	return true
}

// saveToCache 记录校验通过的令牌
func (m *PushAuthMiddleware) saveToCache(sourceKey, token string) {
	m.cacheMutex.Lock()
	defer m.cacheMutex.Unlock()
	m.cache[cacheKey(sourceKey, token)] = time.Now().Add(m.cacheTTL)
}

// removeFromCache 删除缓存条目
func (m *PushAuthMiddleware) removeFromCache(sourceKey, token string) {
	m.cacheMutex.Lock()
	defer m.cacheMutex.Unlock()
	delete(m.cache, cacheKey(sourceKey, token))
}

// InvalidateSource 清除指定数据源的全部缓存条目,
// 凭证轮换或停用后调用使旧令牌立即失效
func (m *PushAuthMiddleware) InvalidateSource(sourceKey string) {
	m.cacheMutex.Lock()
	defer m.cacheMutex.Unlock()

	prefix := sourceKey + "\x00"
	for key := range m.cache {
		if strings.HasPrefix(key, prefix) {
			delete(m.cache, key)
		}
	}
}

// respondError 返回JSON格式的鉴权错误响应
func (m *PushAuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	render.JSON(w, r, map[string]interface{}{
		"status":  status,
		"message": message,
		"error":   http.StatusText(status),
	})
}

// GetPushSourceKey 从上下文中获取校验通过的数据源标识
func GetPushSourceKey(ctx context.Context) (string, bool) {
	sourceKey, ok := ctx.Value(PushSourceKey).(string)
	return sourceKey, ok
}
