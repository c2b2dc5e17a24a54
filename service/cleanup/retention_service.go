/*
 * @module service/cleanup/retention_service
 * @description 历史数据保留服务,定期清理过期的摄取运行记录、SSE事件与失活连接记录
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/ingestion_workflow.md
 * @stateFlow 定时触发 -> 计算截止时间 -> 执行清理 -> 记录结果
 * @rules 清理按保留天数计算截止时间;清理失败不影响系统正常运行
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3
 * @refs service/ingestion/run_recorder.go, service/event/event_service.go
 */

package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nexuscore-service/service/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	// DefaultRunRetentionDays 摄取运行记录默认保留天数
	DefaultRunRetentionDays = 90
	// DefaultEventRetentionDays SSE事件默认保留天数
	DefaultEventRetentionDays = 30
	// DefaultCleanupCron 默认每天凌晨3点执行清理
	DefaultCleanupCron = "0 0 3 * * *"
)

// RetentionConfig 保留策略配置
type RetentionConfig struct {
	RunRetentionDays   int    // 摄取运行记录保留天数
	EventRetentionDays int    // SSE事件与失活连接保留天数
	CleanupCron        string // 清理任务Cron表达式(秒 分 时 日 月 周)
}

// RetentionService 历史数据保留服务
type RetentionService struct {
	db      *gorm.DB
	config  *RetentionConfig
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewRetentionService 创建保留服务实例,配置为空或非法时使用默认值
func NewRetentionService(db *gorm.DB, config *RetentionConfig) *RetentionService {
	if config == nil {
		config = &RetentionConfig{}
	}
	if config.RunRetentionDays <= 0 {
		config.RunRetentionDays = DefaultRunRetentionDays
	}
	if config.EventRetentionDays <= 0 {
		config.EventRetentionDays = DefaultEventRetentionDays
	}
	if config.CleanupCron == "" {
		config.CleanupCron = DefaultCleanupCron
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RetentionService{
		db:     db,
		config: config,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// CleanupExpired 清理所有过期历史数据
func (s *RetentionService) CleanupExpired(ctx context.Context) error {
	slog.Info("开始清理过期历史数据",
		"run_retention_days", s.config.RunRetentionDays,
		"event_retention_days", s.config.EventRetentionDays)
	startTime := time.Now()

	runsDeleted, err := s.CleanupIngestionRuns(ctx, s.config.RunRetentionDays)
	if err != nil {
		slog.Error("清理摄取运行记录失败", "error", err)
	} else {
		slog.Info("清理摄取运行记录完成", "deleted_count", runsDeleted, "retention_days", s.config.RunRetentionDays)
	}

	eventsDeleted, err := s.CleanupEvents(ctx, s.config.EventRetentionDays)
	if err != nil {
		slog.Error("清理SSE事件失败", "error", err)
	} else {
		slog.Info("清理SSE事件完成", "deleted_count", eventsDeleted, "retention_days", s.config.EventRetentionDays)
	}

	connectionsDeleted, err := s.CleanupInactiveConnections(ctx, s.config.EventRetentionDays)
	if err != nil {
		slog.Error("清理失活连接记录失败", "error", err)
	} else {
		slog.Info("清理失活连接记录完成", "deleted_count", connectionsDeleted)
	}

	duration := time.Since(startTime)
	slog.Info("历史数据清理完成",
		"runs_deleted", runsDeleted,
		"events_deleted", eventsDeleted,
		"connections_deleted", connectionsDeleted,
		"duration_ms", duration.Milliseconds())

	return nil
}

// CleanupIngestionRuns 清理开始时间早于截止时间的摄取运行记录
func (s *RetentionService) CleanupIngestionRuns(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	slog.Debug("清理摄取运行记录", "cutoff_date", cutoffDate.Format("2006-01-02 15:04:05"), "retention_days", retentionDays)

	result := s.db.WithContext(ctx).Where("started_at < ?", cutoffDate).Delete(&models.IngestionRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除摄取运行记录失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupEvents 清理创建时间早于截止时间的SSE事件
func (s *RetentionService) CleanupEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	slog.Debug("清理SSE事件", "cutoff_date", cutoffDate.Format("2006-01-02 15:04:05"), "retention_days", retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffDate).Delete(&models.SSEEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除SSE事件失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupInactiveConnections 清理已失活且长期未心跳的SSE连接记录
func (s *RetentionService) CleanupInactiveConnections(ctx context.Context, retentionDays int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).
		Where("is_active = ? AND last_ping_at < ?", false, cutoffDate).
		Delete(&models.SSEConnection{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除失活连接记录失败: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// StartScheduledCleanup 启动定时清理任务
func (s *RetentionService) StartScheduledCleanup() error {
	if s.started {
		return fmt.Errorf("历史数据清理调度器已经启动")
	}

	slog.Info("启动历史数据清理调度器", "cron", s.config.CleanupCron)

	_, err := s.cron.AddFunc(s.config.CleanupCron, func() {
		slog.Info("开始执行定时历史数据清理任务")

		if err := s.CleanupExpired(s.ctx); err != nil {
			slog.Error("定时历史数据清理任务失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时清理任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true

	slog.Info("历史数据清理调度器启动成功")

	// 启动时立即执行一次清理
	go func() {
		slog.Info("执行首次历史数据清理")
		if err := s.CleanupExpired(s.ctx); err != nil {
			slog.Error("首次历史数据清理失败", "error", err)
		}
	}()

	return nil
}

// StopScheduledCleanup 停止定时清理任务
func (s *RetentionService) StopScheduledCleanup() {
	if !s.started {
		return
	}

	slog.Info("停止历史数据清理调度器")

	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}

	s.started = false

	slog.Info("历史数据清理调度器已停止")
}
