/*
 * @module client/connectors/kafka_connector
 * @description Kafka接入连接器，按topic订阅记录流并投递到摄取缓冲
 * @architecture 适配器模式 - 封装kafka-go消费者，统一投递回调
 * @documentReference dev_docs/requirements.md
 * @stateFlow 连接建立 -> 按topic消费 -> 记录解码 -> 投递摄取缓冲 -> 连接断开
 * @rules 消费失败退避重试，解码失败丢弃消息并计数
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/ingestion/intake.go
 */
package connectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaIntakeConfig Kafka接入配置
type KafkaIntakeConfig struct {
	Brokers        []string          `json:"brokers"`         // broker地址列表
	GroupID        string            `json:"group_id"`        // 消费组ID
	Topics         map[string]string `json:"topics"`          // topic -> 数据源标识
	MinBytes       int               `json:"min_bytes"`       // 单次拉取最小字节数
	MaxBytes       int               `json:"max_bytes"`       // 单次拉取最大字节数
	MaxWait        time.Duration     `json:"max_wait"`        // 拉取等待上限
	CommitInterval time.Duration     `json:"commit_interval"` // 位点提交间隔
}

// KafkaConnector Kafka接入连接器
type KafkaConnector struct {
	config      *KafkaIntakeConfig
	handler     RecordHandler
	readers     map[string]*kafka.Reader
	mutex       sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	isConnected bool
	stats       *intakeStats
}

// NewKafkaConnector 创建Kafka接入连接器
func NewKafkaConnector(config *KafkaIntakeConfig, handler RecordHandler) *KafkaConnector {
	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaConnector{
		config:  config,
		handler: handler,
		readers: make(map[string]*kafka.Reader),
		ctx:     ctx,
		cancel:  cancel,
		stats:   &intakeStats{},
	}
}

// Name 连接器名称
func (kc *KafkaConnector) Name() string {
	return "kafka"
}

// Connect 建立消费者并启动各topic的消费循环
func (kc *KafkaConnector) Connect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if kc.isConnected {
		return nil
	}
	if len(kc.config.Brokers) == 0 {
		return fmt.Errorf("未配置Kafka broker地址")
	}
	if len(kc.config.Topics) == 0 {
		return fmt.Errorf("未配置Kafka topic映射")
	}

	for topic, sourceKey := range kc.config.Topics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:        kc.config.Brokers,
			Topic:          topic,
			GroupID:        kc.config.GroupID,
			MinBytes:       kc.config.MinBytes,
			MaxBytes:       kc.config.MaxBytes,
			MaxWait:        kc.config.MaxWait,
			CommitInterval: kc.config.CommitInterval,
		})
		kc.readers[topic] = reader

		kc.wg.Add(1)
		go kc.consumeLoop(reader, topic, sourceKey)
	}

	kc.isConnected = true
	kc.stats.markConnected()
	slog.Info("Kafka连接器已连接", "brokers", kc.config.Brokers, "topics", len(kc.config.Topics))
	return nil
}

// Disconnect 停止消费并关闭所有消费者
func (kc *KafkaConnector) Disconnect() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()

	if !kc.isConnected {
		return nil
	}

	kc.cancel()
	for topic, reader := range kc.readers {
		if err := reader.Close(); err != nil {
			slog.Warn("关闭Kafka消费者失败", "topic", topic, "error", err)
		}
	}
	kc.wg.Wait()

	kc.readers = make(map[string]*kafka.Reader)
	kc.isConnected = false
	slog.Info("Kafka连接器已断开")
	return nil
}

// consumeLoop 单topic消费循环，读到的消息解码后投递到摄取缓冲
func (kc *KafkaConnector) consumeLoop(reader *kafka.Reader, topic, sourceKey string) {
	defer kc.wg.Done()

	for {
		msg, err := reader.ReadMessage(kc.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			kc.stats.recordError(err)
			slog.Warn("读取Kafka消息失败", "topic", topic, "error", err)

			select {
			case <-kc.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		records, err := decodeRecords(msg.Value)
		if err != nil {
			kc.stats.recordDecodeFailure(err)
			slog.Warn("Kafka消息解码失败", "topic", topic, "offset", msg.Offset, "error", err)
			continue
		}

		buffered := kc.handler(sourceKey, records)
		kc.stats.recordDelivery(len(records))
		slog.Debug("Kafka记录已投递", "topic", topic, "source", sourceKey,
			"count", len(records), "buffered", buffered)
	}
}

// IsConnected 检查连接状态
func (kc *KafkaConnector) IsConnected() bool {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()
	return kc.isConnected
}

// Statistics 返回连接器运行统计
func (kc *KafkaConnector) Statistics() map[string]interface{} {
	kc.mutex.RLock()
	defer kc.mutex.RUnlock()

	stats := kc.stats.snapshot()
	stats["connected"] = kc.isConnected
	stats["brokers"] = kc.config.Brokers
	stats["group_id"] = kc.config.GroupID
	stats["topic_count"] = len(kc.config.Topics)
	return stats
}
