/*
 * @module client/connectors/redis_connector
 * @description Redis接入连接器，订阅发布频道并将记录投递到摄取缓冲
 * @architecture 适配器模式 - 封装go-redis发布订阅，统一投递回调
 * @documentReference dev_docs/requirements.md
 * @stateFlow 连接建立 -> 频道订阅 -> 记录解码 -> 投递摄取缓冲 -> 连接断开
 * @rules 订阅通道由go-redis维护重连，解码失败丢弃消息并计数
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/ingestion/intake.go
 */
package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisIntakeConfig Redis接入配置
type RedisIntakeConfig struct {
	Address     string            `json:"address"`      // Redis地址
	Password    string            `json:"password"`     // 密码
	Database    int               `json:"database"`     // 数据库编号
	PoolSize    int               `json:"pool_size"`    // 连接池大小
	DialTimeout time.Duration     `json:"dial_timeout"` // 连接超时
	Channels    map[string]string `json:"channels"`     // 频道 -> 数据源标识
}

// RedisConnector Redis接入连接器
type RedisConnector struct {
	config      *RedisIntakeConfig
	handler     RecordHandler
	client      *redis.Client
	pubsub      *redis.PubSub
	mutex       sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	isConnected bool
	stats       *intakeStats
}

// NewRedisConnector 创建Redis接入连接器
func NewRedisConnector(config *RedisIntakeConfig, handler RecordHandler) *RedisConnector {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisConnector{
		config:  config,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		stats:   &intakeStats{},
	}
}

// Name 连接器名称
func (rc *RedisConnector) Name() string {
	return "redis"
}

// Connect 建立连接并订阅配置的频道
func (rc *RedisConnector) Connect() error {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if rc.isConnected {
		return nil
	}
	if rc.config.Address == "" {
		return fmt.Errorf("未配置Redis地址")
	}
	if len(rc.config.Channels) == 0 {
		return fmt.Errorf("未配置Redis频道映射")
	}

	rc.client = redis.NewClient(&redis.Options{
		Addr:        rc.config.Address,
		Password:    rc.config.Password,
		DB:          rc.config.Database,
		PoolSize:    rc.config.PoolSize,
		DialTimeout: rc.config.DialTimeout,
	})

	if _, err := rc.client.Ping(rc.ctx).Result(); err != nil {
		rc.stats.recordError(err)
		rc.client.Close()
		rc.client = nil
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	channels := make([]string, 0, len(rc.config.Channels))
	for channel := range rc.config.Channels {
		channels = append(channels, channel)
	}
	rc.pubsub = rc.client.Subscribe(rc.ctx, channels...)

	rc.wg.Add(1)
	go rc.receiveLoop()

	rc.isConnected = true
	rc.stats.markConnected()
	slog.Info("Redis连接器已连接", "address", rc.config.Address, "channels", channels)
	return nil
}

// Disconnect 关闭订阅与客户端
func (rc *RedisConnector) Disconnect() error {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if !rc.isConnected {
		return nil
	}

	rc.cancel()
	if rc.pubsub != nil {
		if err := rc.pubsub.Close(); err != nil {
			slog.Warn("关闭Redis订阅失败", "error", err)
		}
		rc.pubsub = nil
	}
	rc.wg.Wait()

	if rc.client != nil {
		if err := rc.client.Close(); err != nil {
			slog.Warn("关闭Redis客户端失败", "error", err)
		}
		rc.client = nil
	}

	rc.isConnected = false
	slog.Info("Redis连接器已断开")
	return nil
}

// receiveLoop 订阅消息接收循环
func (rc *RedisConnector) receiveLoop() {
	defer rc.wg.Done()
	ch := rc.pubsub.Channel()

	for {
		select {
		case <-rc.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			rc.handleMessage(msg)
		}
	}
}

// handleMessage 按频道路由数据源并投递记录
func (rc *RedisConnector) handleMessage(msg *redis.Message) {
	sourceKey, exists := rc.config.Channels[msg.Channel]
	if !exists {
		slog.Warn("收到未映射频道的消息", "channel", msg.Channel)
		return
	}

	records, err := decodeRecords([]byte(msg.Payload))
	if err != nil {
		rc.stats.recordDecodeFailure(err)
		slog.Warn("Redis消息解码失败", "channel", msg.Channel, "error", err)
		return
	}

	buffered := rc.handler(sourceKey, records)
	rc.stats.recordDelivery(len(records))
	slog.Debug("Redis记录已投递", "channel", msg.Channel, "source", sourceKey,
		"count", len(records), "buffered", buffered)
}

// IsConnected 检查连接状态
func (rc *RedisConnector) IsConnected() bool {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return rc.isConnected
}

// Statistics 返回连接器运行统计
func (rc *RedisConnector) Statistics() map[string]interface{} {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	stats := rc.stats.snapshot()
	stats["connected"] = rc.isConnected
	stats["address"] = rc.config.Address
	stats["database"] = rc.config.Database
	stats["channel_count"] = len(rc.config.Channels)
	return stats
}
