/*
 * @module service/ingestion/run_recorder
 * @description 摄取运行记录器 - 持久化每次摄取的生命周期,并向事件通道广播状态变化
 * @architecture 分层架构 - 观测支撑层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 运行开始建档 -> 编排过程中回填事实 -> 结束时落库并广播
 * @rules 记录失败不阻断摄取流程,仅记录日志;消息超长截断到500字符
 * @dependencies nexuscore-service/service/models, gorm.io/gorm
 * @refs service/event/event_service.go, service/ingestion/ingestion_service.go
 */

package ingestion

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"nexuscore-service/service/metrics"
	"nexuscore-service/service/models"
)

const maxRunMessageLen = 500

// RunNotifier 运行事件通知接口,由事件服务实现
type RunNotifier interface {
	NotifyRunEvent(eventType string, run *models.IngestionRun)
}

// RunRecorder 摄取运行记录器
type RunRecorder struct {
	db       *gorm.DB
	notifier RunNotifier
}

// NewRunRecorder 创建运行记录器,notifier可为nil
func NewRunRecorder(db *gorm.DB, notifier RunNotifier) *RunRecorder {
	return &RunRecorder{db: db, notifier: notifier}
}

// Start 建立一条running状态的运行记录
func (r *RunRecorder) Start(sourceKey, trigger string) *models.IngestionRun {
	if trigger == "" {
		trigger = "manual"
	}
	run := &models.IngestionRun{
		SourceKey: sourceKey,
		Trigger:   trigger,
		Status:    "running",
		StartedAt: time.Now(),
	}

	if err := r.db.Create(run).Error; err != nil {
		slog.Error("创建摄取运行记录失败", "source", sourceKey, "error", err)
	}

	metrics.RecordRunStarted(run.Trigger)
	if r.notifier != nil {
		r.notifier.NotifyRunEvent("ingestion_run_started", run)
	}
	return run
}

// Finish 结束运行记录:落库最终状态并广播事件
func (r *RunRecorder) Finish(run *models.IngestionRun, runErr error) {
	if run == nil {
		return
	}

	now := time.Now()
	run.FinishedAt = &now
	run.DurationMs = now.Sub(run.StartedAt).Milliseconds()
	if runErr != nil {
		run.Status = "failed"
		run.Message = truncateMessage(runErr.Error())
	} else {
		run.Status = "success"
		run.Message = "摄取完成"
	}

	if err := r.db.Save(run).Error; err != nil {
		slog.Error("更新摄取运行记录失败", "run_id", run.ID, "error", err)
	}

	metrics.RecordRunFinished(run.Status, run.Trigger, float64(run.DurationMs)/1000, run.RowCount)
	if r.notifier != nil {
		r.notifier.NotifyRunEvent("ingestion_run_finished", run)
	}
}

// GetRun 查询单条运行记录
func (r *RunRecorder) GetRun(id string) (*models.IngestionRun, error) {
	var run models.IngestionRun
	if err := r.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns 查询运行记录,按开始时间倒序。sourceKey为空时不过滤
func (r *RunRecorder) ListRuns(sourceKey string, limit int) ([]models.IngestionRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.Model(&models.IngestionRun{}).Order("started_at DESC").Limit(limit)
	if sourceKey != "" {
		query = query.Where("source_key = ?", sourceKey)
	}

	var runs []models.IngestionRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func truncateMessage(msg string) string {
	if len(msg) <= maxRunMessageLen {
		return msg
	}
	cut := msg[:maxRunMessageLen]
	// 截断点落在多字节字符中间时回退到合法边界
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
