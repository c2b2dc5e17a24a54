/*
 * @module service/rate_limiter/push_rate_limiter_test
 * @description 推送限流器单元测试 - 规则构造、优先级排序与结果组装
 * @architecture 测试层 - 验证不依赖Redis的纯计算逻辑
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 构造配置 -> 生成规则 -> 断言规则与结果
 * @rules 数据源层规则优先于全局层
 * @dependencies testing, testify
 * @refs push_rate_limiter.go
 */

package rate_limiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPushRules 按配置生成数据源与全局两层规则
func TestPushRules(t *testing.T) {
	limiter := &PushRateLimiter{config: &RateLimitConfig{
		SourceLimit:   100,
		GlobalLimit:   1000,
		WindowSeconds: 60,
	}}

	rules := limiter.pushRules("sensor_stream")
	require.Len(t, rules, 2)

	assert.Equal(t, RateLimitTypeSource, rules[0].Type)
	assert.Equal(t, "sensor_stream", rules[0].TargetID)
	assert.Equal(t, 100, rules[0].MaxRequests)
	assert.Equal(t, 60, rules[0].TimeWindow)

	assert.Equal(t, RateLimitTypeGlobal, rules[1].Type)
	assert.Empty(t, rules[1].TargetID)
	assert.Equal(t, 1000, rules[1].MaxRequests)
}

// TestPushRulesPartialConfig 未配置的层级不生成规则
func TestPushRulesPartialConfig(t *testing.T) {
	sourceOnly := &PushRateLimiter{config: &RateLimitConfig{SourceLimit: 50, WindowSeconds: 60}}
	rules := sourceOnly.pushRules("sensor_stream")
	require.Len(t, rules, 1)
	assert.Equal(t, RateLimitTypeSource, rules[0].Type)

	unlimited := &PushRateLimiter{config: &RateLimitConfig{WindowSeconds: 60}}
	assert.Empty(t, unlimited.pushRules("sensor_stream"))
}

// TestSortRulesByPriority 数据源规则排在全局规则之前
func TestSortRulesByPriority(t *testing.T) {
	rules := []RateLimitRule{
		{Type: RateLimitTypeGlobal, MaxRequests: 1000},
		{Type: RateLimitTypeSource, TargetID: "sensor_stream", MaxRequests: 100},
	}

	sorted := sortRulesByPriority(rules)
	require.Len(t, sorted, 2)
	assert.Equal(t, RateLimitTypeSource, sorted[0].Type)
	assert.Equal(t, RateLimitTypeGlobal, sorted[1].Type)

	// 原切片不被修改
	assert.Equal(t, RateLimitTypeGlobal, rules[0].Type)
}

// TestBuildRateLimitKey 键按层级与窗口序号构造
func TestBuildRateLimitKey(t *testing.T) {
	window := 60
	currentWindow := time.Now().Unix() / int64(window)

	sourceKey := buildRateLimitKey(RateLimitTypeSource, "sensor_stream", window)
	assert.Equal(t, fmt.Sprintf("push_rate:source:sensor_stream:%d", currentWindow), sourceKey)

	globalKey := buildRateLimitKey(RateLimitTypeGlobal, "", window)
	assert.Equal(t, fmt.Sprintf("push_rate:global:%d", currentWindow), globalKey)
}

// TestBuildResult 超限结果携带层级提示信息
func TestBuildResult(t *testing.T) {
	denied := buildResult(RateLimitTypeSource, false, 100, 100, 30)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 100, denied.Limit)
	assert.Equal(t, 0, denied.Remaining)
	assert.Contains(t, denied.Message, "数据源")
	assert.Greater(t, denied.ResetAt, time.Now().Unix())

	allowed := buildResult(RateLimitTypeGlobal, true, 10, 1000, 55)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 990, allowed.Remaining)
	assert.Equal(t, "允许请求", allowed.Message)
}
