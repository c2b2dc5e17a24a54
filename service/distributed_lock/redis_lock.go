/*
 * @module service/distributed_lock/redis_lock
 * @description Redis分布式锁实现,用于多实例环境下的摄取调度防重
 * @architecture 工具层 - 提供分布式锁能力
 * @documentReference ai_docs/ingestion_workflow.md
 * @stateFlow 获取锁 -> 执行摄取 -> 释放锁/自动过期
 * @rules 使用Redis SET NX实现,支持锁续期和自动过期
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/scheduler/scheduler_service.go, service/init.go
 */

package distributed_lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// lockKeyPrefix 调度锁键前缀
const lockKeyPrefix = "ingestion_scheduler:lock:"

// DistributedLock 分布式锁接口
type DistributedLock interface {
	// TryLock 尝试获取锁
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock 释放锁
	Unlock(ctx context.Context, key string) error
	// Refresh 刷新锁的过期时间
	Refresh(ctx context.Context, key string, ttl time.Duration) error
	// IsLocked 检查锁是否存在
	IsLocked(ctx context.Context, key string) (bool, error)
}

// LockConfig Redis分布式锁配置
type LockConfig struct {
	Address  string // Redis地址,如 localhost:6379
	Password string
	Database int
}

// RedisLock Redis分布式锁实现
type RedisLock struct {
	client     *redis.Client
	instanceID string // 锁持有者标识
}

// NewRedisLock 创建Redis分布式锁,连接失败时返回错误
func NewRedisLock(config *LockConfig) (*RedisLock, error) {
	if config == nil {
		config = &LockConfig{}
	}
	if config.Address == "" {
		config.Address = "localhost:6379"
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
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	// 实例ID使用主机名+进程ID标识锁持有者
	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s:%d", hostname, os.Getpid())

	slog.Info("Redis分布式锁初始化成功",
		"instance_id", instanceID,
		"redis_addr", config.Address)

	return &RedisLock{
		client:     client,
		instanceID: instanceID,
	}, nil
}

// TryLock 尝试获取锁
// 使用SET NX命令,只有当key不存在时才会设置成功
func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := lockKeyPrefix + key

	result, err := r.client.SetNX(ctx, lockKey, r.instanceID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取锁失败: %w", err)
	}

	if result {
		slog.Debug("分布式锁: 成功获取锁",
			"key", key,
			"ttl", ttl,
			"instance", r.instanceID)
	}

	return result, nil
}

// Unlock 释放锁
// 使用Lua脚本确保只有锁的持有者才能释放锁
func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	lockKey := lockKeyPrefix + key

	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{lockKey}, r.instanceID).Result()
	if err != nil {
		return fmt.Errorf("释放锁失败: %w", err)
	}

	if result.(int64) == 1 {
		slog.Debug("分布式锁: 成功释放锁",
			"key", key,
			"instance", r.instanceID)
	} else {
		slog.Warn("分布式锁: 锁不存在或已被其他实例持有",
			"key", key,
			"instance", r.instanceID)
	}

	return nil
}

// Refresh 刷新锁的过期时间
// 用于长时间运行的摄取任务,防止锁过期
func (r *RedisLock) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	lockKey := lockKeyPrefix + key

	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("expire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{lockKey}, r.instanceID, int(ttl.Seconds())).Result()
	if err != nil {
		return fmt.Errorf("刷新锁失败: %w", err)
	}

	if result.(int64) == 1 {
		slog.Debug("分布式锁: 成功刷新锁",
			"key", key,
			"ttl", ttl,
			"instance", r.instanceID)
		return nil
	}

	return fmt.Errorf("锁不存在或已被其他实例持有")
}

// IsLocked 检查锁是否存在
func (r *RedisLock) IsLocked(ctx context.Context, key string) (bool, error) {
	lockKey := lockKeyPrefix + key

	exists, err := r.client.Exists(ctx, lockKey).Result()
	if err != nil {
		return false, fmt.Errorf("检查锁状态失败: %w", err)
	}

	return exists > 0, nil
}

// Close 关闭Redis客户端
func (r *RedisLock) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// LockExecutor 带锁执行器,简化锁的使用
type LockExecutor struct {
	lock DistributedLock
}

// NewLockExecutor 创建带锁执行器
func NewLockExecutor(lock DistributedLock) *LockExecutor {
	return &LockExecutor{lock: lock}
}

// ExecuteWithLock 在锁保护下执行函数,锁被其他实例持有时跳过执行
func (e *LockExecutor) ExecuteWithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("获取锁失败: %w", err)
	}

	if !locked {
		slog.Debug("分布式锁: 锁已被其他实例持有,跳过执行", "key", key)
		return nil
	}

	defer func() {
		if unlockErr := e.lock.Unlock(ctx, key); unlockErr != nil {
			slog.Error("分布式锁: 释放锁失败", "key", key, "error", unlockErr)
		}
	}()

	return fn()
}

// ExecuteWithLockAndRefresh 在锁保护下执行函数并自动续期,适用于执行时长不可预估的摄取
func (e *LockExecutor) ExecuteWithLockAndRefresh(ctx context.Context, key string, ttl time.Duration, refreshInterval time.Duration, fn func() error) error {
	locked, err := e.lock.TryLock(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("获取锁失败: %w", err)
	}

	if !locked {
		slog.Debug("分布式锁: 锁已被其他实例持有,跳过执行", "key", key)
		return nil
	}

	// 续期协程随执行结束停止
	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if refreshErr := e.lock.Refresh(ctx, key, ttl); refreshErr != nil {
					slog.Error("分布式锁: 续期失败", "key", key, "error", refreshErr)
				}
			}
		}
	}()

	defer func() {
		if unlockErr := e.lock.Unlock(ctx, key); unlockErr != nil {
			slog.Error("分布式锁: 释放锁失败", "key", key, "error", unlockErr)
		}
	}()

	return fn()
}
