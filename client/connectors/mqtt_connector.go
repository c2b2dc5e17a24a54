/*
 * @module client/connectors/mqtt_connector
 * @description MQTT接入连接器，订阅主题过滤器并将记录投递到摄取缓冲
 * @architecture 适配器模式 - 封装paho客户端，断线自动重连并恢复订阅
 * @documentReference dev_docs/requirements.md
 * @stateFlow 连接建立 -> 主题订阅 -> 记录解码 -> 投递摄取缓冲 -> 连接断开
 * @rules 订阅在OnConnect回调中建立，重连后自动恢复；解码失败丢弃消息并计数
 * @dependencies github.com/eclipse/paho.mqtt.golang
 * @refs service/ingestion/intake.go
 */
package connectors

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTIntakeConfig MQTT接入配置
type MQTTIntakeConfig struct {
	Broker       string            `json:"broker"`        // broker地址，如tcp://host:1883
	ClientID     string            `json:"client_id"`     // 客户端标识
	Username     string            `json:"username"`      // 用户名
	Password     string            `json:"password"`      // 密码
	Topics       map[string]string `json:"topics"`        // 主题过滤器 -> 数据源标识
	QoS          byte              `json:"qos"`           // 订阅QoS等级
	KeepAlive    time.Duration     `json:"keep_alive"`    // 心跳间隔
	CleanSession bool              `json:"clean_session"` // 是否清理会话
}

// MQTTConnector MQTT接入连接器
type MQTTConnector struct {
	config      *MQTTIntakeConfig
	handler     RecordHandler
	client      mqtt.Client
	mutex       sync.RWMutex
	isConnected bool
	stats       *intakeStats
}

// NewMQTTConnector 创建MQTT接入连接器
func NewMQTTConnector(config *MQTTIntakeConfig, handler RecordHandler) *MQTTConnector {
	connector := &MQTTConnector{
		config:  config,
		handler: handler,
		stats:   &intakeStats{},
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	if config.KeepAlive > 0 {
		opts.SetKeepAlive(config.KeepAlive)
	}
	opts.SetCleanSession(config.CleanSession)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(connector.onConnected)
	opts.SetConnectionLostHandler(connector.onConnectionLost)

	connector.client = mqtt.NewClient(opts)
	return connector
}

// Name 连接器名称
func (mc *MQTTConnector) Name() string {
	return "mqtt"
}

// Connect 连接broker，订阅在OnConnect回调中建立
func (mc *MQTTConnector) Connect() error {
	mc.mutex.Lock()
	if mc.isConnected {
		mc.mutex.Unlock()
		return nil
	}
	mc.mutex.Unlock()

	if mc.config.Broker == "" {
		return fmt.Errorf("未配置MQTT broker地址")
	}
	if len(mc.config.Topics) == 0 {
		return fmt.Errorf("未配置MQTT主题映射")
	}

	if token := mc.client.Connect(); token.Wait() && token.Error() != nil {
		mc.stats.recordError(token.Error())
		return fmt.Errorf("MQTT连接失败: %w", token.Error())
	}
	return nil
}

// Disconnect 取消订阅并断开连接
func (mc *MQTTConnector) Disconnect() error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if !mc.isConnected {
		return nil
	}

	for filter := range mc.config.Topics {
		if token := mc.client.Unsubscribe(filter); token.Wait() && token.Error() != nil {
			slog.Warn("取消MQTT订阅失败", "topic", filter, "error", token.Error())
		}
	}
	mc.client.Disconnect(250)
	mc.isConnected = false
	slog.Info("MQTT连接器已断开")
	return nil
}

// onConnected 首次连接与重连后建立全部订阅
func (mc *MQTTConnector) onConnected(client mqtt.Client) {
	mc.mutex.Lock()
	mc.isConnected = true
	mc.mutex.Unlock()
	mc.stats.markConnected()
	slog.Info("MQTT连接器已连接", "broker", mc.config.Broker)

	for filter, sourceKey := range mc.config.Topics {
		key := sourceKey
		token := client.Subscribe(filter, mc.config.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			mc.handleMessage(key, msg)
		})
		if token.Wait() && token.Error() != nil {
			mc.stats.recordError(token.Error())
			slog.Error("订阅MQTT主题失败", "topic", filter, "error", token.Error())
			continue
		}
		slog.Info("已订阅MQTT主题", "topic", filter, "source", key, "qos", mc.config.QoS)
	}
}

// onConnectionLost 连接丢失，等待paho自动重连
func (mc *MQTTConnector) onConnectionLost(_ mqtt.Client, err error) {
	mc.mutex.Lock()
	mc.isConnected = false
	mc.mutex.Unlock()
	mc.stats.recordError(err)
	slog.Warn("MQTT连接丢失，等待自动重连", "broker", mc.config.Broker, "error", err)
}

// handleMessage 解码消息并投递到摄取缓冲
func (mc *MQTTConnector) handleMessage(sourceKey string, msg mqtt.Message) {
	records, err := decodeRecords(msg.Payload())
	if err != nil {
		mc.stats.recordDecodeFailure(err)
		slog.Warn("MQTT消息解码失败", "topic", msg.Topic(), "error", err)
		return
	}

	buffered := mc.handler(sourceKey, records)
	mc.stats.recordDelivery(len(records))
	slog.Debug("MQTT记录已投递", "topic", msg.Topic(), "source", sourceKey,
		"count", len(records), "buffered", buffered)
}

// IsConnected 检查连接状态
func (mc *MQTTConnector) IsConnected() bool {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.isConnected
}

// Statistics 返回连接器运行统计
func (mc *MQTTConnector) Statistics() map[string]interface{} {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	stats := mc.stats.snapshot()
	stats["connected"] = mc.isConnected
	stats["broker"] = mc.config.Broker
	stats["client_id"] = mc.config.ClientID
	stats["topic_count"] = len(mc.config.Topics)
	return stats
}
