/*
 * @module client/connectors
 * @description 流式接入连接器公共定义，统一记录解码、投递回调与连接器生命周期管理
 * @architecture 适配器模式 - 各连接器订阅自身传输层，解码后统一投递到摄取缓冲
 * @documentReference dev_docs/requirements.md
 * @stateFlow 连接建立 -> 消息订阅 -> 记录解码 -> 投递摄取缓冲 -> 连接断开
 * @rules
 *   - 消息载荷必须是JSON对象或对象数组，其余载荷计入解码失败后丢弃
 *   - 单个连接器故障不阻断其它连接器
 * @dependencies encoding/json, log/slog
 * @refs
 *   - service/ingestion/intake.go: 记录投递目标
 */
package connectors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RecordHandler 接收解码后的记录批次，返回该数据源当前缓冲的记录数。
// 签名与摄取缓冲的Push保持一致，可直接挂接。
type RecordHandler func(sourceKey string, records []map[string]interface{}) int

// IntakeConnector 流式接入连接器的统一生命周期接口
type IntakeConnector interface {
	Name() string
	Connect() error
	Disconnect() error
	IsConnected() bool
	Statistics() map[string]interface{}
}

// decodeRecords 将消息载荷解码为记录批次。
// 支持单个JSON对象或JSON对象数组，其余形式报错。
func decodeRecords(payload []byte) ([]map[string]interface{}, error) {
	var record map[string]interface{}
	if err := json.Unmarshal(payload, &record); err == nil {
		return []map[string]interface{}{record}, nil
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(payload, &records); err == nil {
		return records, nil
	}

	return nil, fmt.Errorf("消息载荷必须是JSON对象或对象数组")
}

// intakeStats 连接器运行统计
type intakeStats struct {
	mutex            sync.RWMutex
	connectedAt      time.Time
	messagesReceived int64
	recordsDelivered int64
	decodeFailures   int64
	lastError        string
}

func (s *intakeStats) markConnected() {
	s.mutex.Lock()
	s.connectedAt = time.Now()
	s.mutex.Unlock()
}

func (s *intakeStats) recordDelivery(recordCount int) {
	s.mutex.Lock()
	s.messagesReceived++
	s.recordsDelivered += int64(recordCount)
	s.mutex.Unlock()
}

func (s *intakeStats) recordDecodeFailure(err error) {
	s.mutex.Lock()
	s.messagesReceived++
	s.decodeFailures++
	s.lastError = err.Error()
	s.mutex.Unlock()
}

func (s *intakeStats) recordError(err error) {
	s.mutex.Lock()
	s.lastError = err.Error()
	s.mutex.Unlock()
}

func (s *intakeStats) snapshot() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return map[string]interface{}{
		"connected_at":      s.connectedAt,
		"messages_received": s.messagesReceived,
		"records_delivered": s.recordsDelivered,
		"decode_failures":   s.decodeFailures,
		"last_error":        s.lastError,
	}
}

// Manager 统一管理已注册连接器的启停
type Manager struct {
	mutex      sync.RWMutex
	connectors []IntakeConnector
}

// NewManager 创建连接器管理器
func NewManager() *Manager {
	return &Manager{}
}

// Register 注册连接器
func (m *Manager) Register(connector IntakeConnector) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.connectors = append(m.connectors, connector)
}

// ConnectAll 启动所有连接器，单个失败不阻断其它连接器
func (m *Manager) ConnectAll() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, connector := range m.connectors {
		if err := connector.Connect(); err != nil {
			slog.Error("连接器启动失败", "connector", connector.Name(), "error", err)
			continue
		}
		slog.Info("连接器已启动", "connector", connector.Name())
	}
}

// DisconnectAll 停止所有连接器
func (m *Manager) DisconnectAll() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, connector := range m.connectors {
		if err := connector.Disconnect(); err != nil {
			slog.Error("连接器停止失败", "connector", connector.Name(), "error", err)
		}
	}
}

// Statistics 汇总所有连接器的运行统计
func (m *Manager) Statistics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := make(map[string]interface{}, len(m.connectors))
	for _, connector := range m.connectors {
		stats[connector.Name()] = connector.Statistics()
	}
	return stats
}
