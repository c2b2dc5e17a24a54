/*
 * @module api/middleware/push_auth_test
 * @description 推送鉴权中间件单元测试 - 令牌提取、凭证校验、缓存与失效
 * @architecture 测试层 - chi路由挂载中间件,内存SQLite承载凭证
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 凭证签发 -> 请求鉴权 -> 缓存与失效行为断言
 * @rules 轮换或停用凭证后旧令牌必须在缓存失效后立即被拒绝
 * @dependencies testing, net/http/httptest, stretchr/testify, nexuscore-service/testutil
 * @refs push_auth.go
 */

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexuscore-service/service/ingestion"
	"nexuscore-service/testutil"
)

// pushAuthEnv 推送鉴权测试环境
type pushAuthEnv struct {
	middleware  *PushAuthMiddleware
	credentials *ingestion.CredentialService
	router      *chi.Mux
	token       string
	// 鉴权通过时处理器从上下文读到的数据源标识
	seenSourceKey string
}

// newPushAuthEnv 签发sensor_stream的推送凭证并挂载鉴权路由
func newPushAuthEnv(t *testing.T) *pushAuthEnv {
	t.Helper()
	testDB := testutil.NewTestDB()
	t.Cleanup(testDB.Close)

	credentials := ingestion.NewCredentialService(testDB.DB)
	_, token, err := credentials.IssueCredential("sensor_stream", "测试凭证", "tester")
	require.NoError(t, err)

	env := &pushAuthEnv{
		middleware:  NewPushAuthMiddleware(credentials),
		credentials: credentials,
		token:       token,
	}

	router := chi.NewRouter()
	router.Route("/ingestion/push/{source_key}", func(r chi.Router) {
		r.Use(env.middleware.Middleware)
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			sourceKey, ok := GetPushSourceKey(r.Context())
			require.True(t, ok)
			env.seenSourceKey = sourceKey
			w.WriteHeader(http.StatusOK)
		})
	})
	env.router = router
	return env
}

// pushRequest 发送推送请求,headers附加到请求头
func (env *pushAuthEnv) pushRequest(sourceKey string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ingestion/push/"+sourceKey,
		bytes.NewBufferString(`[{"temp": 36.5}]`))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// decodeAuthError 解析鉴权错误响应
func decodeAuthError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

// TestPushAuth_BearerToken Authorization Bearer头携带令牌
func TestPushAuth_BearerToken(t *testing.T) {
	env := newPushAuthEnv(t)

	w := env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + env.token,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sensor_stream", env.seenSourceKey)
}

// TestPushAuth_XPushTokenHeader X-Push-Token头携带令牌
func TestPushAuth_XPushTokenHeader(t *testing.T) {
	env := newPushAuthEnv(t)

	w := env.pushRequest("sensor_stream", map[string]string{
		"X-Push-Token": env.token,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sensor_stream", env.seenSourceKey)
}

// TestPushAuth_MissingToken 未携带令牌返回401
func TestPushAuth_MissingToken(t *testing.T) {
	env := newPushAuthEnv(t)

	w := env.pushRequest("sensor_stream", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeAuthError(t, w)
	assert.Contains(t, body["message"], "缺少推送令牌")
	assert.Equal(t, http.StatusText(http.StatusUnauthorized), body["error"])
}

// TestPushAuth_WrongToken 令牌不匹配返回401
func TestPushAuth_WrongToken(t *testing.T) {
	env := newPushAuthEnv(t)

	w := env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer wrong-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPushAuth_UnknownSource 未签发凭证的数据源返回401
func TestPushAuth_UnknownSource(t *testing.T) {
	env := newPushAuthEnv(t)

	w := env.pushRequest("unknown_source", map[string]string{
		"Authorization": "Bearer " + env.token,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPushAuth_DisabledCredential 凭证停用后返回403
func TestPushAuth_DisabledCredential(t *testing.T) {
	env := newPushAuthEnv(t)
	require.NoError(t, env.credentials.SetEnabled("sensor_stream", false))

	w := env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + env.token,
	})

	assert.Equal(t, http.StatusForbidden, w.Code)

	body := decodeAuthError(t, w)
	assert.NotEmpty(t, body["message"])
}

// TestPushAuth_CacheInvalidation 校验结果缓存与失效
func TestPushAuth_CacheInvalidation(t *testing.T) {
	env := newPushAuthEnv(t)

	// 首次请求通过校验并写入缓存
	w := env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + env.token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 轮换后旧令牌已不在库中,但命中缓存仍然放行
	newToken, err := env.credentials.RotateCredential("sensor_stream")
	require.NoError(t, err)

	w = env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + env.token,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// 缓存失效后旧令牌被拒绝,新令牌可用
	env.middleware.InvalidateSource("sensor_stream")

	w = env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + env.token,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.pushRequest("sensor_stream", map[string]string{
		"Authorization": "Bearer " + newToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
