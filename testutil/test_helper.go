/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nexuscore-service/service/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.IngestionRun{},
		&models.IngestionSchedule{},
		&models.FieldDefinition{},
		&models.SourcePushCredential{},
		&models.SSEEvent{},
		&models.SSEConnection{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"ingestion_runs",
		"ingestion_schedules",
		"field_definitions",
		"source_push_credentials",
		"sse_events",
		"sse_connections",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// IngestionRunOption 摄取运行记录选项函数类型
type IngestionRunOption func(*models.IngestionRun)

// WithRunStartedAt 指定运行开始时间
func WithRunStartedAt(startedAt time.Time) IngestionRunOption {
	return func(run *models.IngestionRun) {
		run.StartedAt = startedAt
	}
}

// WithRunStatus 指定运行终态与消息
func WithRunStatus(status, message string) IngestionRunOption {
	return func(run *models.IngestionRun) {
		run.Status = status
		run.Message = message
	}
}

// WithRunTrigger 指定运行触发方式
func WithRunTrigger(trigger string) IngestionRunOption {
	return func(run *models.IngestionRun) {
		run.Trigger = trigger
	}
}

// CreateIngestionRun 创建测试摄取运行记录
func (f *TestDataFactory) CreateIngestionRun(sourceKey string, opts ...IngestionRunOption) *models.IngestionRun {
	now := time.Now()
	run := &models.IngestionRun{
		SourceKey:   sourceKey,
		MissionID:   1,
		Trigger:     "manual",
		Status:      "success",
		Message:     "摄取完成",
		RowCount:    100,
		ColumnCount: 5,
		StartedAt:   now.Add(-time.Second),
		FinishedAt:  &now,
		DurationMs:  1000,
		CreatedBy:   "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(run)
	}

	err := f.DB.Create(run).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test ingestion run: %v", err))
	}

	return run
}

// IngestionScheduleOption 摄取调度选项函数类型
type IngestionScheduleOption func(*models.IngestionSchedule)

// WithScheduleEnabled 指定调度启用状态
func WithScheduleEnabled(enabled bool) IngestionScheduleOption {
	return func(schedule *models.IngestionSchedule) {
		schedule.Enabled = enabled
	}
}

// WithScheduleInterval 切换为固定间隔调度
func WithScheduleInterval(interval string) IngestionScheduleOption {
	return func(schedule *models.IngestionSchedule) {
		schedule.ScheduleType = "interval"
		schedule.CronExpression = ""
		schedule.IntervalExpr = interval
	}
}

// CreateIngestionSchedule 创建测试摄取调度
func (f *TestDataFactory) CreateIngestionSchedule(sourceKey string, opts ...IngestionScheduleOption) *models.IngestionSchedule {
	schedule := &models.IngestionSchedule{
		Name:           "测试摄取调度_" + generateSuffix(),
		SourceKey:      sourceKey,
		MissionName:    "测试分析任务",
		ScheduleType:   "cron",
		CronExpression: "0 0 2 * * *",
		ChunkSize:      1000,
		Enabled:        true,
		CreatedBy:      "test",
		UpdatedBy:      "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(schedule)
	}

	err := f.DB.Create(schedule).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test ingestion schedule: %v", err))
	}

	return schedule
}

// FieldDefinitionOption 字段定义选项函数类型
type FieldDefinitionOption func(*models.FieldDefinition)

// CreateFieldDefinition 创建测试字段定义
func (f *TestDataFactory) CreateFieldDefinition(sourceKey, name string, opts ...FieldDefinitionOption) *models.FieldDefinition {
	field := &models.FieldDefinition{
		SourceKey:   sourceKey,
		Name:        name,
		DisplayName: "测试字段",
		Description: "这是一个测试字段定义",
		DataType:    "string",
		CreatedBy:   "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(field)
	}

	err := f.DB.Create(field).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test field definition: %v", err))
	}

	return field
}

// SourcePushCredentialOption 推送凭证选项函数类型
type SourcePushCredentialOption func(*models.SourcePushCredential)

// CreateSourcePushCredential 创建测试推送凭证
func (f *TestDataFactory) CreateSourcePushCredential(sourceKey, tokenHash string, opts ...SourcePushCredentialOption) *models.SourcePushCredential {
	credential := &models.SourcePushCredential{
		SourceKey:   sourceKey,
		TokenHash:   tokenHash,
		Description: "测试推送凭证",
		Enabled:     true,
		CreatedBy:   "test",
	}

	// 应用选项
	for _, opt := range opts {
		opt(credential)
	}

	err := f.DB.Create(credential).Error
	if err != nil {
		panic(fmt.Sprintf("failed to create test push credential: %v", err))
	}

	return credential
}

// 辅助函数
func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%100000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
