/*
 * @module service/rate_limiter/push_rate_limiter
 * @description 基于Redis的推送接口限流服务,支持数据源、全局两层限流
 * @architecture 工具层 - 提供分布式限流能力
 * @documentReference dev_docs/requirements.md
 * @stateFlow 检查限流规则 -> Redis计数 -> 判断是否超限
 * @rules 使用Redis INCR和EXPIRE实现固定窗口限流,数据源层优先于全局层
 * @dependencies github.com/go-redis/redis/v8
 * @refs api/middleware/push_rate_limit.go, service/init.go
 */

package rate_limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// 限流层级
const (
	RateLimitTypeSource = "source"
	RateLimitTypeGlobal = "global"
)

// DefaultWindowSeconds 默认限流窗口
const DefaultWindowSeconds = 60

// RateLimitResult 限流检查结果
type RateLimitResult struct {
	Allowed       bool   `json:"allowed"`    // 是否允许请求
	Limit         int    `json:"limit"`      // 限制数量
	Remaining     int    `json:"remaining"`  // 剩余数量
	ResetAt       int64  `json:"reset_at"`   // 重置时间(Unix时间戳)
	RateLimitType string `json:"limit_type"` // 限流类型:source/global
	Message       string `json:"message"`    // 提示信息
}

// RateLimitRule 限流规则
type RateLimitRule struct {
	Type        string // source/global
	TargetID    string // 数据源标识,全局规则时为空
	TimeWindow  int    // 时间窗口(秒)
	MaxRequests int    // 最大请求数
}

// RateLimitConfig 推送限流配置
type RateLimitConfig struct {
	Address       string // Redis地址,如 localhost:6379
	Password      string
	Database      int
	SourceLimit   int // 单数据源窗口内最大推送次数,0表示不限
	GlobalLimit   int // 全局窗口内最大推送次数,0表示不限
	WindowSeconds int // 限流窗口秒数
}

// PushRateLimiter Redis推送限流器
type PushRateLimiter struct {
	client *redis.Client
	config *RateLimitConfig
}

// NewPushRateLimiter 创建推送限流器,连接失败时返回错误
func NewPushRateLimiter(config *RateLimitConfig) (*PushRateLimiter, error) {
	if config == nil {
		config = &RateLimitConfig{}
	}
	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.WindowSeconds <= 0 {
		config.WindowSeconds = DefaultWindowSeconds
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Password:     config.Password,
		DB:           config.Database,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	slog.Info("推送限流器初始化成功",
		"redis_addr", config.Address,
		"source_limit", config.SourceLimit,
		"global_limit", config.GlobalLimit,
		"window_seconds", config.WindowSeconds)

	return &PushRateLimiter{
		client: client,
		config: config,
	}, nil
}

// CheckPush 检查指定数据源的推送是否超限
func (r *PushRateLimiter) CheckPush(ctx context.Context, sourceKey string) (*RateLimitResult, error) {
	return r.CheckRateLimit(ctx, r.pushRules(sourceKey))
}

// pushRules 由配置构造数据源与全局限流规则
func (r *PushRateLimiter) pushRules(sourceKey string) []RateLimitRule {
	var rules []RateLimitRule

	if r.config.SourceLimit > 0 {
		rules = append(rules, RateLimitRule{
			Type:        RateLimitTypeSource,
			TargetID:    sourceKey,
			TimeWindow:  r.config.WindowSeconds,
			MaxRequests: r.config.SourceLimit,
		})
	}
	if r.config.GlobalLimit > 0 {
		rules = append(rules, RateLimitRule{
			Type:        RateLimitTypeGlobal,
			TimeWindow:  r.config.WindowSeconds,
			MaxRequests: r.config.GlobalLimit,
		})
	}

	return rules
}

// CheckRateLimit 检查是否超过限流,按优先级检查:数据源 -> 全局
func (r *PushRateLimiter) CheckRateLimit(ctx context.Context, rules []RateLimitRule) (*RateLimitResult, error) {
	sortedRules := sortRulesByPriority(rules)

	for _, rule := range sortedRules {
		result, err := r.checkSingleRule(ctx, rule)
		if err != nil {
			return nil, err
		}

		// 任何一层超限直接返回
		if !result.Allowed {
			return result, nil
		}
	}

	if len(sortedRules) > 0 {
		lastRule := sortedRules[len(sortedRules)-1]
		return r.currentUsage(ctx, lastRule)
	}

	// 没有限流规则,允许通过
	return &RateLimitResult{
		Allowed:       true,
		Limit:         -1,
		Remaining:     -1,
		RateLimitType: "none",
		Message:       "无限流规则",
	}, nil
}

// checkSingleRule 检查单个限流规则并计数
func (r *PushRateLimiter) checkSingleRule(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	key := buildRateLimitKey(rule.Type, rule.TargetID, rule.TimeWindow)

	// Lua脚本保证计数与过期设置的原子性
	script := `
		local key = KEYS[1]
		local max_requests = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])

		local current = redis.call('GET', key)
		if current == false then
			current = 0
		else
			current = tonumber(current)
		end

		if current >= max_requests then
			local ttl = redis.call('TTL', key)
			if ttl == -1 then
				ttl = window
			end
			return {0, current, max_requests, ttl}
		end

		local new_count = redis.call('INCR', key)

		if new_count == 1 then
			redis.call('EXPIRE', key, window)
		end

		local ttl = redis.call('TTL', key)
		if ttl == -1 then
			ttl = window
		end

		return {1, new_count, max_requests, ttl}
	`

	result, err := r.client.Eval(ctx, script, []string{key}, rule.MaxRequests, rule.TimeWindow).Result()
	if err != nil {
		return nil, fmt.Errorf("限流检查失败: %w", err)
	}

	results := result.([]interface{})
	allowed := results[0].(int64) == 1
	currentCount := int(results[1].(int64))
	maxRequests := int(results[2].(int64))
	ttl := int(results[3].(int64))

	return buildResult(rule.Type, allowed, currentCount, maxRequests, ttl), nil
}

// currentUsage 查询规则当前用量,不增加计数
func (r *PushRateLimiter) currentUsage(ctx context.Context, rule RateLimitRule) (*RateLimitResult, error) {
	key := buildRateLimitKey(rule.Type, rule.TargetID, rule.TimeWindow)

	current, err := r.client.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("查询限流用量失败: %w", err)
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("查询限流窗口失败: %w", err)
	}
	if ttl < 0 {
		ttl = time.Duration(rule.TimeWindow) * time.Second
	}

	return buildResult(rule.Type, true, current, rule.MaxRequests, int(ttl.Seconds())), nil
}

// buildResult 构造限流检查结果
func buildResult(limitType string, allowed bool, currentCount, maxRequests, ttlSeconds int) *RateLimitResult {
	remaining := maxRequests - currentCount
	if remaining < 0 {
		remaining = 0
	}

	message := "允许请求"
	if !allowed {
		message = fmt.Sprintf("超过%s限流限制", rateLimitTypeName(limitType))
	}

	return &RateLimitResult{
		Allowed:       allowed,
		Limit:         maxRequests,
		Remaining:     remaining,
		ResetAt:       time.Now().Add(time.Duration(ttlSeconds) * time.Second).Unix(),
		RateLimitType: limitType,
		Message:       message,
	}
}

// buildRateLimitKey 构造限流Key,窗口序号保证时间窗口对齐
func buildRateLimitKey(limitType, targetID string, window int) string {
	currentWindow := time.Now().Unix() / int64(window)

	if limitType == RateLimitTypeGlobal {
		return fmt.Sprintf("push_rate:%s:%d", limitType, currentWindow)
	}
	return fmt.Sprintf("push_rate:%s:%s:%d", limitType, targetID, currentWindow)
}

// sortRulesByPriority 按优先级排序规则:source > global
func sortRulesByPriority(rules []RateLimitRule) []RateLimitRule {
	priorityMap := map[string]int{
		RateLimitTypeSource: 2,
		RateLimitTypeGlobal: 1,
	}

	sorted := make([]RateLimitRule, len(rules))
	copy(sorted, rules)

	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if priorityMap[sorted[j].Type] < priorityMap[sorted[j+1].Type] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return sorted
}

// rateLimitTypeName 获取限流类型名称
func rateLimitTypeName(limitType string) string {
	switch limitType {
	case RateLimitTypeGlobal:
		return "全局"
	case RateLimitTypeSource:
		return "数据源"
	default:
		return "未知"
	}
}

// GetStats 获取限流统计信息
func (r *PushRateLimiter) GetStats(ctx context.Context, rule RateLimitRule) (map[string]interface{}, error) {
	key := buildRateLimitKey(rule.Type, rule.TargetID, rule.TimeWindow)

	current, err := r.client.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	remaining := rule.MaxRequests - current
	if remaining < 0 {
		remaining = 0
	}

	return map[string]interface{}{
		"type":        rule.Type,
		"target_id":   rule.TargetID,
		"current":     current,
		"limit":       rule.MaxRequests,
		"remaining":   remaining,
		"window":      rule.TimeWindow,
		"ttl_seconds": int(ttl.Seconds()),
		"reset_at":    time.Now().Add(ttl).Unix(),
	}, nil
}

// ResetRateLimit 重置限流计数,仅用于测试或管理
func (r *PushRateLimiter) ResetRateLimit(ctx context.Context, rule RateLimitRule) error {
	key := buildRateLimitKey(rule.Type, rule.TargetID, rule.TimeWindow)
	return r.client.Del(ctx, key).Err()
}

// Close 关闭Redis客户端
func (r *PushRateLimiter) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
