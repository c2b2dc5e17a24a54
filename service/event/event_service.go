/*
 * @module service/event_service
 * @description 事件管理服务,提供SSE事件推送、摄取运行通知与数据库变更监听功能
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 事件监听 -> 事件处理 -> 事件分发 -> 客户端推送
 * @rules 事件先落库再分发;通道满时跳过该连接不阻塞分发;运行通知为尽力而为
 * @dependencies nexuscore-service/service/models, gorm.io/gorm, github.com/lib/pq
 * @refs service/ingestion/run_recorder.go, api/controllers/event_controller.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"nexuscore-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// notifyChannel 数据库变更通知通道名
const notifyChannel = "nexuscore_changes"

// 摄取运行生命周期事件类型
const (
	EventTypeRunStarted  = "ingestion_run_started"
	EventTypeRunFinished = "ingestion_run_finished"
)

// getEnvWithDefault 获取环境变量,不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EventService 事件管理服务
type EventService struct {
	db              *gorm.DB
	connections     map[string]map[string]*SSEClient // userName -> connectionID -> client
	mu              sync.RWMutex
	processors      map[string]models.DBEventProcessor
	dbListener      *pq.Listener
	ctx             context.Context
	cancel          context.CancelFunc
	functionCreated bool // 通知函数是否已创建
}

// SSEClient SSE客户端连接
type SSEClient struct {
	ID       string
	UserName string
	Channel  chan *models.SSEEvent
	Done     chan bool
	ClientIP string
}

// NewEventService 创建事件服务实例,监听循环由Start启动
func NewEventService(db *gorm.DB) *EventService {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventService{
		db:          db,
		connections: make(map[string]map[string]*SSEClient),
		processors:  make(map[string]models.DBEventProcessor),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动数据库监听与连接清理循环
func (s *EventService) Start() {
	go s.startDBListener()
	go s.runConnectionCleaner()
	slog.Info("事件服务已启动")
}

// Stop 停止事件服务
func (s *EventService) Stop() {
	s.cancel()

	if s.dbListener != nil {
		s.dbListener.Close()
	}

	// 关闭所有SSE连接
	s.mu.Lock()
	for _, userConnections := range s.connections {
		for _, client := range userConnections {
			close(client.Done)
		}
	}
	s.connections = make(map[string]map[string]*SSEClient)
	s.mu.Unlock()

	slog.Info("事件服务已停止")
}

// === SSE连接管理 ===

// AddSSEConnection 添加SSE连接
func (s *EventService) AddSSEConnection(userName, connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[userName] == nil {
		s.connections[userName] = make(map[string]*SSEClient)
	}

	client := &SSEClient{
		ID:       connectionID,
		UserName: userName,
		Channel:  make(chan *models.SSEEvent, 100), // 缓冲100个事件
		Done:     make(chan bool),
		ClientIP: clientIP,
	}

	s.connections[userName][connectionID] = client

	// 记录连接到数据库
	connection := &models.SSEConnection{
		UserName:     userName,
		ConnectionID: connectionID,
		ClientIP:     clientIP,
		ConnectedAt:  time.Now(),
		LastPingAt:   time.Now(),
		IsActive:     true,
	}
	if err := s.db.Create(connection).Error; err != nil {
		slog.Error("记录SSE连接失败", "connection_id", connectionID, "error", err)
	}

	slog.Info("SSE连接已建立", "user", userName, "connection_id", connectionID, "ip", clientIP)
	return client
}

// RemoveSSEConnection 移除SSE连接
func (s *EventService) RemoveSSEConnection(userName, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userConnections, exists := s.connections[userName]
	if !exists {
		return
	}
	client, exists := userConnections[connectionID]
	if !exists {
		return
	}

	close(client.Done)
	delete(userConnections, connectionID)
	if len(userConnections) == 0 {
		delete(s.connections, userName)
	}

	// 更新数据库连接状态
	s.db.Model(&models.SSEConnection{}).
		Where("connection_id = ?", connectionID).
		Update("is_active", false)

	slog.Info("SSE连接已断开", "user", userName, "connection_id", connectionID)
}

// SendEventToUser 向指定用户发送事件
func (s *EventService) SendEventToUser(userName string, event *models.SSEEvent) error {
	event.UserName = userName

	// 保存事件到数据库
	if err := s.db.Create(event).Error; err != nil {
		slog.Error("保存SSE事件失败", "error", err)
		return err
	}

	s.mu.RLock()
	userConnections, exists := s.connections[userName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("用户 %s 没有活跃的SSE连接", userName)
	}

	delivered := 0
	for _, client := range userConnections {
		select {
		case client.Channel <- event:
			delivered++
		default:
			slog.Warn("连接事件队列已满,跳过发送", "user", userName, "connection_id", client.ID)
		}
	}

	if delivered > 0 {
		s.markSent(event.ID)
	}
	return nil
}

// BroadcastEvent 广播事件给所有用户,无活跃连接时仅留存历史
func (s *EventService) BroadcastEvent(event *models.SSEEvent) error {
	// 保存事件到数据库
	if err := s.db.Create(event).Error; err != nil {
		slog.Error("保存广播事件失败", "error", err)
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for userName, userConnections := range s.connections {
		for _, client := range userConnections {
			eventCopy := *event
			eventCopy.UserName = userName

			select {
			case client.Channel <- &eventCopy:
				delivered++
			default:
				slog.Warn("连接事件队列已满,跳过广播", "user", userName, "connection_id", client.ID)
			}
		}
	}

	if delivered > 0 {
		s.markSent(event.ID)
	}
	return nil
}

// markSent 标记事件已分发
func (s *EventService) markSent(eventID string) {
	now := time.Now()
	if err := s.db.Model(&models.SSEEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{"sent": true, "sent_at": now}).Error; err != nil {
		slog.Error("标记事件已发送失败", "event_id", eventID, "error", err)
	}
}

// MarkEventRead 标记事件已读
func (s *EventService) MarkEventRead(eventID string) error {
	result := s.db.Model(&models.SSEEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{"read": true, "read_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// === 摄取运行通知 ===

// NotifyRunEvent 广播摄取运行生命周期事件,失败只记录日志
func (s *EventService) NotifyRunEvent(eventType string, run *models.IngestionRun) {
	if run == nil {
		return
	}

	event := &models.SSEEvent{
		EventType: eventType,
		Data: models.JSONB{
			"run_id":      run.ID,
			"source_key":  run.SourceKey,
			"status":      run.Status,
			"trigger":     run.Trigger,
			"mission_id":  run.MissionID,
			"row_count":   run.RowCount,
			"message":     run.Message,
			"duration_ms": run.DurationMs,
		},
	}

	if err := s.BroadcastEvent(event); err != nil {
		slog.Error("广播摄取运行事件失败", "event_type", eventType, "run_id", run.ID, "error", err)
	}
}

// === 数据库变更监听 ===

// RegisterDBEventProcessor 注册数据库变更事件处理器
func (s *EventService) RegisterDBEventProcessor(processor models.DBEventProcessor) error {
	s.mu.Lock()
	s.processors[processor.TableName()] = processor
	s.mu.Unlock()

	slog.Info("数据库事件处理器已注册", "table", processor.TableName())

	if err := s.ensureTableTrigger(processor.TableName()); err != nil {
		// 触发器缺失只影响变更推送,不影响处理器注册
		slog.Warn("确保变更触发器失败", "table", processor.TableName(), "error", err)
	}
	return nil
}

// startDBListener 启动数据库通知监听器
func (s *EventService) startDBListener() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "nexuscore2024")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	s.dbListener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("PostgreSQL监听器事件", "event", ev, "error", err)
		}
	})

	if err := s.dbListener.Listen(notifyChannel); err != nil {
		slog.Error("监听数据库通知失败", "channel", notifyChannel, "error", err)
		return
	}

	slog.Info("数据库监听器已启动", "channel", notifyChannel)

	for {
		select {
		case notification := <-s.dbListener.Notify:
			if notification != nil {
				s.handleDBNotification(notification)
			}
		case <-s.ctx.Done():
			slog.Info("数据库监听器已停止")
			return
		}
	}
}

// handleDBNotification 处理数据库通知并分发到对应处理器
func (s *EventService) handleDBNotification(notification *pq.Notification) {
	var changeData map[string]interface{}
	if err := json.Unmarshal([]byte(notification.Extra), &changeData); err != nil {
		slog.Error("解析数据库通知失败", "error", err)
		return
	}

	tableName, _ := changeData["table"].(string)
	eventType, _ := changeData["type"].(string)

	slog.Debug("收到数据库变更通知", "table", tableName, "type", eventType)

	s.mu.RLock()
	processor, ok := s.processors[tableName]
	s.mu.RUnlock()
	if !ok {
		return
	}

	if err := processor.ProcessDBChangeEvent(changeData); err != nil {
		slog.Error("处理数据库变更事件失败", "table", tableName, "error", err)
	}
}

// runConnectionCleaner 周期清理已断开的连接
func (s *EventService) runConnectionCleaner() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupInactiveConnections()
		case <-s.ctx.Done():
			return
		}
	}
}

// cleanupInactiveConnections 清理不活跃的连接
func (s *EventService) cleanupInactiveConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userName, userConnections := range s.connections {
		for connectionID, client := range userConnections {
			select {
			case <-client.Done:
				delete(userConnections, connectionID)
				slog.Info("清理已断开的连接", "user", userName, "connection_id", connectionID)
			default:
				// 连接仍然活跃
			}
		}

		if len(userConnections) == 0 {
			delete(s.connections, userName)
		}
	}
}

// === 触发器管理 ===

// ensureTableTrigger 确保表的变更通知触发器存在
func (s *EventService) ensureTableTrigger(tableName string) error {
	if err := s.createNotifyFunction(); err != nil {
		return fmt.Errorf("创建通知函数失败: %w", err)
	}

	triggerName := tableName + "_notify"
	createTriggerSQL := fmt.Sprintf(`
		CREATE OR REPLACE TRIGGER %s
		BEFORE INSERT OR UPDATE OR DELETE ON %s
		FOR EACH ROW
		EXECUTE FUNCTION notify_nexuscore_changes();
	`, triggerName, tableName)

	if err := s.db.Exec(createTriggerSQL).Error; err != nil {
		return fmt.Errorf("创建触发器失败: %w", err)
	}

	slog.Info("变更触发器已就绪", "table", tableName, "trigger", triggerName)
	return nil
}

// createNotifyFunction 创建数据库通知函数
func (s *EventService) createNotifyFunction() error {
	if s.functionCreated {
		return nil
	}

	createFunctionSQL := `
CREATE OR REPLACE FUNCTION notify_nexuscore_changes()
RETURNS TRIGGER AS $$
DECLARE
    record_id TEXT;
    payload JSON;
BEGIN
    IF TG_OP = 'DELETE' THEN
        record_id := OLD.id;
        payload := json_build_object(
            'table', TG_TABLE_NAME,
            'type', TG_OP,
            'record_id', record_id,
            'old_data', row_to_json(OLD),
            'timestamp', extract(epoch from now())
        );
    ELSIF TG_OP = 'INSERT' THEN
        record_id := NEW.id;
        payload := json_build_object(
            'table', TG_TABLE_NAME,
            'type', TG_OP,
            'record_id', record_id,
            'new_data', row_to_json(NEW),
            'timestamp', extract(epoch from now())
        );
    ELSE
        record_id := NEW.id;
        payload := json_build_object(
            'table', TG_TABLE_NAME,
            'type', TG_OP,
            'record_id', record_id,
            'old_data', row_to_json(OLD),
            'new_data', row_to_json(NEW),
            'timestamp', extract(epoch from now())
        );
    END IF;

    PERFORM pg_notify('nexuscore_changes', payload::text);

    IF TG_OP = 'DELETE' THEN
        RETURN OLD;
    ELSE
        RETURN NEW;
    END IF;
END;
$$ LANGUAGE plpgsql;`

	if err := s.db.Exec(createFunctionSQL).Error; err != nil {
		return fmt.Errorf("执行创建函数SQL失败: %w", err)
	}

	slog.Info("数据库通知函数已创建", "function", "notify_nexuscore_changes")
	s.functionCreated = true
	return nil
}

// === 历史查询 ===

// GetSSEConnectionList 获取SSE连接列表
func (s *EventService) GetSSEConnectionList(page, pageSize int, userName, clientIP string, isActive *bool) ([]models.SSEConnection, int64, error) {
	var connections []models.SSEConnection
	var total int64

	query := s.db.Model(&models.SSEConnection{})
	if userName != "" {
		query = query.Where("user_name = ?", userName)
	}
	if clientIP != "" {
		query = query.Where("client_ip = ?", clientIP)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("connected_at DESC").
		Offset(offset).Limit(pageSize).Find(&connections).Error

	return connections, total, err
}

// GetEventHistoryList 获取事件历史列表
func (s *EventService) GetEventHistoryList(page, pageSize int, userName, eventType string, sent, read *bool) ([]models.SSEEvent, int64, error) {
	var events []models.SSEEvent
	var total int64

	query := s.db.Model(&models.SSEEvent{})
	if userName != "" {
		query = query.Where("user_name = ?", userName)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if sent != nil {
		query = query.Where("sent = ?", *sent)
	}
	if read != nil {
		query = query.Where("read = ?", *read)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").
		Offset(offset).Limit(pageSize).Find(&events).Error

	return events, total, err
}
