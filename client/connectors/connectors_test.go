/*
 * @module client/connectors/connectors_test
 * @description 接入连接器单元测试，覆盖记录解码、配置校验与管理器启停
 * @architecture 测试层 - 纯函数与假连接器测试，不依赖真实broker
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 构造输入 -> 调用连接器 -> 验证投递与统计
 * @rules 不建立真实网络连接
 * @dependencies testing, testify
 * @refs connectors.go, kafka_connector.go, mqtt_connector.go, redis_connector.go
 */
package connectors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected int
		wantErr  bool
	}{
		{
			name:     "单个JSON对象",
			payload:  `{"device":"d1","temp":23.5}`,
			expected: 1,
		},
		{
			name:     "JSON对象数组",
			payload:  `[{"id":1},{"id":2},{"id":3}]`,
			expected: 3,
		},
		{
			name:     "空数组",
			payload:  `[]`,
			expected: 0,
		},
		{
			name:    "标量载荷",
			payload: `42`,
			wantErr: true,
		},
		{
			name:    "字符串载荷",
			payload: `"hello"`,
			wantErr: true,
		},
		{
			name:    "非JSON载荷",
			payload: `not json at all`,
			wantErr: true,
		},
		{
			name:    "混入标量的数组",
			payload: `[{"id":1}, 2]`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := decodeRecords([]byte(tc.payload))
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "JSON对象")
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tc.expected)
		})
	}
}

func TestDecodeRecordsPreservesFields(t *testing.T) {
	records, err := decodeRecords([]byte(`{"name":"传感器A","value":12.5,"ok":true}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "传感器A", records[0]["name"])
	assert.Equal(t, 12.5, records[0]["value"])
	assert.Equal(t, true, records[0]["ok"])
}

func TestIntakeStats(t *testing.T) {
	stats := &intakeStats{}

	stats.markConnected()
	stats.recordDelivery(3)
	stats.recordDelivery(2)
	stats.recordDecodeFailure(errors.New("坏载荷"))

	snapshot := stats.snapshot()
	assert.Equal(t, int64(3), snapshot["messages_received"])
	assert.Equal(t, int64(5), snapshot["records_delivered"])
	assert.Equal(t, int64(1), snapshot["decode_failures"])
	assert.Equal(t, "坏载荷", snapshot["last_error"])
	assert.NotZero(t, snapshot["connected_at"])
}

func TestKafkaConnectorConfigValidation(t *testing.T) {
	handler := func(string, []map[string]interface{}) int { return 0 }

	t.Run("缺少broker地址", func(t *testing.T) {
		kc := NewKafkaConnector(&KafkaIntakeConfig{
			Topics: map[string]string{"t1": "s1"},
		}, handler)
		err := kc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker")
		assert.False(t, kc.IsConnected())
	})

	t.Run("缺少topic映射", func(t *testing.T) {
		kc := NewKafkaConnector(&KafkaIntakeConfig{
			Brokers: []string{"localhost:9092"},
		}, handler)
		err := kc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "topic")
	})
}

func TestMQTTConnectorConfigValidation(t *testing.T) {
	handler := func(string, []map[string]interface{}) int { return 0 }

	t.Run("缺少broker地址", func(t *testing.T) {
		mc := NewMQTTConnector(&MQTTIntakeConfig{
			Topics: map[string]string{"sensors/#": "telemetry"},
		}, handler)
		err := mc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker")
	})

	t.Run("缺少主题映射", func(t *testing.T) {
		mc := NewMQTTConnector(&MQTTIntakeConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "test-client",
		}, handler)
		err := mc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "主题")
	})
}

func TestRedisConnectorConfigValidation(t *testing.T) {
	handler := func(string, []map[string]interface{}) int { return 0 }

	t.Run("缺少地址", func(t *testing.T) {
		rc := NewRedisConnector(&RedisIntakeConfig{
			Channels: map[string]string{"ch1": "s1"},
		}, handler)
		err := rc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "地址")
	})

	t.Run("缺少频道映射", func(t *testing.T) {
		rc := NewRedisConnector(&RedisIntakeConfig{
			Address: "localhost:6379",
		}, handler)
		err := rc.Connect()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "频道")
	})
}

// fakeConnector 管理器测试用的假连接器
type fakeConnector struct {
	name          string
	connectErr    error
	connected     bool
	disconnected  bool
	connectCalled bool
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Connect() error {
	f.connectCalled = true
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConnector) Disconnect() error {
	f.connected = false
	f.disconnected = true
	return nil
}

func (f *fakeConnector) IsConnected() bool { return f.connected }

func (f *fakeConnector) Statistics() map[string]interface{} {
	return map[string]interface{}{"connected": f.connected}
}

func TestManagerConnectAll(t *testing.T) {
	failing := &fakeConnector{name: "kafka", connectErr: errors.New("broker不可达")}
	healthy := &fakeConnector{name: "redis"}

	manager := NewManager()
	manager.Register(failing)
	manager.Register(healthy)

	manager.ConnectAll()

	assert.True(t, failing.connectCalled)
	assert.False(t, failing.connected)
	assert.True(t, healthy.connected, "单个连接器失败不应阻断其它连接器")

	manager.DisconnectAll()
	assert.True(t, healthy.disconnected)
}

func TestManagerStatistics(t *testing.T) {
	manager := NewManager()
	manager.Register(&fakeConnector{name: "mqtt", connected: true})
	manager.Register(&fakeConnector{name: "redis"})

	stats := manager.Statistics()
	require.Len(t, stats, 2)

	mqttStats, ok := stats["mqtt"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, mqttStats["connected"])

	redisStats, ok := stats["redis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, redisStats["connected"])
}
