/*
 * @module service/models/event
 * @description 事件推送相关模型定义,包括SSE事件、SSE连接与数据库变更处理接口
 * @architecture 事件驱动架构 - 数据模型层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 事件生产 -> 持久化 -> 连接分发 -> 客户端消费
 * @rules 事件先落库再分发;user_name为空表示广播事件
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/event/event_service.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SSEEvent SSE事件模型
type SSEEvent struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventType string     `gorm:"not null;size:50;index" json:"event_type" example:"ingestion_run_finished"`
	UserName  string     `gorm:"size:100;index" json:"user_name"`
	Data      JSONB      `gorm:"type:jsonb" json:"data"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy string     `gorm:"not null;size:100;default:'system'" json:"created_by"`
	Sent      bool       `gorm:"not null;default:false" json:"sent"`
	SentAt    *time.Time `json:"sent_at"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	ReadAt    *time.Time `json:"read_at"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (s *SSEEvent) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "system"
	}
	return nil
}

// SSEConnection SSE连接管理模型
type SSEConnection struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserName     string    `gorm:"not null;size:100;index" json:"user_name"`
	ConnectionID string    `gorm:"not null;unique;size:100" json:"connection_id"`
	ClientIP     string    `gorm:"not null;size:45" json:"client_ip"`
	UserAgent    string    `gorm:"size:500" json:"user_agent"`
	ConnectedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"connected_at"`
	LastPingAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_ping_at"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy    string    `gorm:"not null;size:100;default:'system'" json:"created_by"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (s *SSEConnection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "system"
	}
	return nil
}

// EventListener 事件监听注册接口
type EventListener interface {
	RegisterDBEventProcessor(processor DBEventProcessor) error
}

// DBEventProcessor 数据库变更事件处理接口,按表名路由
type DBEventProcessor interface {
	ProcessDBChangeEvent(changeData map[string]interface{}) error
	TableName() string
}
