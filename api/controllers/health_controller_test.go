/*
 * @module api/controllers/health_controller_test
 * @description 健康检查控制器单元测试
 * @architecture 测试层
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 就绪检查在数据库不可用时返回503
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs health_controller.go
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexuscore-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHealth 测试健康检查接口
func TestHealth(t *testing.T) {
	controller := NewHealthController(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	controller.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "nexuscore-service", response.Service)
	assert.False(t, response.Timestamp.IsZero())
}

// TestReady_WithDatabase 数据库可用时就绪检查返回200
func TestReady_WithDatabase(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()

	controller := NewHealthController(testDB.DB)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	controller.Ready(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ready", response.Status)
}

// TestReady_DatabaseClosed 数据库连接关闭后就绪检查返回503
func TestReady_DatabaseClosed(t *testing.T) {
	testDB := testutil.NewTestDB()
	testDB.Close()

	controller := NewHealthController(testDB.DB)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	controller.Ready(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response HealthResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "unavailable", response.Status)
}
