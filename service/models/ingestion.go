/*
 * @module service/models/ingestion
 * @description 摄取域数据模型,包含摄取运行记录、摄取调度、数据字典字段定义与推送凭证
 * @architecture 数据访问层 - 领域模型
 * @documentReference dev_docs/model.md
 * @stateFlow 摄取运行: running -> success/failed; 调度: 创建 -> 启用/停用 -> 删除
 * @rules 主键使用UUID字符串,创建时自动生成;时间戳由数据库默认值填充
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/ingestion, service/scheduler, service/dictionary
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestionRun 摄取运行记录,对应一次完整的编排流程
type IngestionRun struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	SourceKey        string     `json:"source_key" gorm:"not null;size:100;index" example:"sales_2024"`
	DatasetID        string     `json:"dataset_id" gorm:"size:100" example:"ds_2024_sales"`
	MissionID        int        `json:"mission_id" example:"42"`
	Trigger          string     `json:"trigger" gorm:"not null;size:20;default:manual" example:"manual"`
	Status           string     `json:"status" gorm:"not null;size:20;default:running" example:"running"`
	Message          string     `json:"message" gorm:"size:500" example:"摄取完成"`
	RowCount         int        `json:"row_count" example:"1000"`
	ColumnCount      int        `json:"column_count" example:"8"`
	TransformApplied bool       `json:"transform_applied" example:"true"`
	TransformSummary JSONB      `json:"transform_summary" gorm:"type:jsonb"`
	SchemaSnapshot   JSONB      `json:"schema_snapshot" gorm:"type:jsonb"`
	StartedAt        time.Time  `json:"started_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	FinishedAt       *time.Time `json:"finished_at"`
	DurationMs       int64      `json:"duration_ms" example:"1532"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedBy        string     `json:"created_by" gorm:"not null;size:100" example:"system"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (r *IngestionRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedBy == "" {
		r.CreatedBy = "system"
	}
	return nil
}

// IngestionSchedule 摄取调度配置,支持cron表达式与固定间隔两种触发方式
type IngestionSchedule struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name            string     `json:"name" gorm:"not null;size:100" example:"销售数据每日摄取"`
	SourceKey       string     `json:"source_key" gorm:"not null;size:100;index" example:"sales_2024"`
	DatasetID       string     `json:"dataset_id" gorm:"size:100" example:"ds_2024_sales"`
	MissionID       int        `json:"mission_id" example:"42"`
	MissionName     string     `json:"mission_name" gorm:"size:200" example:"销售数据分析任务"`
	RunAnalysis     bool       `json:"run_analysis" example:"false"`
	AnalysisProfile string     `json:"analysis_profile" gorm:"size:50" example:"humint"`
	ScheduleType    string     `json:"schedule_type" gorm:"not null;size:20" example:"cron"`
	CronExpression  string     `json:"cron_expression" gorm:"size:100" example:"0 0 2 * * ?"`
	IntervalExpr    string     `json:"interval_expr" gorm:"size:50" example:"1d"`
	TransformSpec   JSONBArray `json:"transform_spec" gorm:"type:jsonb"`
	ChunkSize       int        `json:"chunk_size" gorm:"default:1000" example:"1000"`
	MaxRecords      int        `json:"max_records" example:"10000"`
	Enabled         bool       `json:"enabled" gorm:"default:true" example:"true"`
	LastRunAt       *time.Time `json:"last_run_at"`
	LastRunStatus   string     `json:"last_run_status" gorm:"size:20" example:"success"`
	CreatedAt       time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedBy       string     `json:"created_by" gorm:"not null;size:100" example:"admin"`
	UpdatedBy       string     `json:"updated_by" gorm:"size:100" example:"admin"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (s *IngestionSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedBy == "" {
		s.CreatedBy = "system"
	}
	return nil
}

// FieldDefinition 数据字典字段定义,按数据源键组织
type FieldDefinition struct {
	ID          string           `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440002"`
	SourceKey   string           `json:"source_key" gorm:"not null;size:100;uniqueIndex:idx_field_def_source_name" example:"sales_2024"`
	Name        string           `json:"name" gorm:"not null;size:100;uniqueIndex:idx_field_def_source_name" example:"amount"`
	DisplayName string           `json:"display_name" gorm:"size:100" example:"销售金额"`
	Description string           `json:"description" gorm:"size:500" example:"单笔订单的销售金额,单位为元"`
	DataType    string           `json:"data_type" gorm:"size:50" example:"float64"`
	Example     string           `json:"example" gorm:"size:200" example:"199.50"`
	Required    bool             `json:"required" example:"true"`
	Sensitive   bool             `json:"sensitive" example:"false"`
	Categories  JSONBStringArray `json:"categories" gorm:"type:jsonb"`
	CreatedAt   time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time        `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedBy   string           `json:"created_by" gorm:"not null;size:100" example:"admin"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (f *FieldDefinition) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedBy == "" {
		f.CreatedBy = "system"
	}
	return nil
}

// SourcePushCredential 数据源推送凭证,推送接口通过bcrypt校验令牌
type SourcePushCredential struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440003"`
	SourceKey   string     `json:"source_key" gorm:"not null;size:100;uniqueIndex" example:"sales_2024"`
	TokenHash   string     `json:"-" gorm:"not null;size:100"`
	Description string     `json:"description" gorm:"size:200" example:"销售系统推送凭证"`
	Enabled     bool       `json:"enabled" gorm:"default:true" example:"true"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	CreatedBy   string     `json:"created_by" gorm:"not null;size:100" example:"admin"`
}

// BeforeCreate GORM钩子:创建前生成UUID
func (c *SourcePushCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedBy == "" {
		c.CreatedBy = "system"
	}
	return nil
}
