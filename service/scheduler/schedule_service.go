/*
 * @module service/scheduler/schedule_service
 * @description 摄取调度配置管理,负责调度的增删改查、启停与表达式校验
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/ingestion_workflow.md
 * @stateFlow 配置校验 -> 持久化 -> 调度器重载生效
 * @rules cron表达式为六段带秒格式;间隔表达式支持1d、12h等人读时长;
 *        表达式相关字段更新前先合并校验,校验失败不落库
 * @dependencies gorm.io/gorm, github.com/robfig/cron/v3, github.com/prometheus/common/model
 * @refs service/models/ingestion.go, scheduler_service.go
 */

package scheduler

import (
	"errors"
	"fmt"
	"time"

	"nexuscore-service/service/meta"
	"nexuscore-service/service/models"

	promodel "github.com/prometheus/common/model"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser 与运行时调度器一致的六段带秒解析器
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ScheduleService 摄取调度配置服务
type ScheduleService struct {
	db *gorm.DB
}

// NewScheduleService 创建摄取调度配置服务
func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// CreateSchedule 创建调度配置
func (s *ScheduleService) CreateSchedule(schedule *models.IngestionSchedule) error {
	if schedule.Name == "" {
		return errors.New("调度名称不能为空")
	}
	if schedule.SourceKey == "" {
		return errors.New("数据源标识不能为空")
	}
	if schedule.MissionID == 0 && schedule.MissionName == "" {
		return errors.New("必须指定mission_id或mission_name")
	}
	if err := validateScheduleSpec(schedule); err != nil {
		return err
	}
	return s.db.Create(schedule).Error
}

// UpdateSchedule 更新调度配置
func (s *ScheduleService) UpdateSchedule(id string, updates map[string]interface{}) (*models.IngestionSchedule, error) {
	schedule, err := s.GetSchedule(id)
	if err != nil {
		return nil, err
	}

	// 不可修改的字段
	delete(updates, "id")
	delete(updates, "created_at")
	delete(updates, "created_by")

	merged := *schedule
	if v, ok := updates["schedule_type"].(string); ok {
		merged.ScheduleType = v
	}
	if v, ok := updates["cron_expression"].(string); ok {
		merged.CronExpression = v
	}
	if v, ok := updates["interval_expr"].(string); ok {
		merged.IntervalExpr = v
	}
	if err := validateScheduleSpec(&merged); err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.IngestionSchedule{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新调度配置失败: %w", err)
	}
	return s.GetSchedule(id)
}

// DeleteSchedule 删除调度配置
func (s *ScheduleService) DeleteSchedule(id string) error {
	result := s.db.Delete(&models.IngestionSchedule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetSchedule 按ID获取调度配置
func (s *ScheduleService) GetSchedule(id string) (*models.IngestionSchedule, error) {
	var schedule models.IngestionSchedule
	if err := s.db.First(&schedule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListSchedules 列出调度配置,enabledOnly为真时仅返回启用的调度
func (s *ScheduleService) ListSchedules(enabledOnly bool) ([]models.IngestionSchedule, error) {
	var schedules []models.IngestionSchedule
	query := s.db.Order("created_at DESC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// SetEnabled 启用或停用调度
func (s *ScheduleService) SetEnabled(id string, enabled bool) error {
	result := s.db.Model(&models.IngestionSchedule{}).Where("id = ?", id).Update("enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRun 记录调度的最近一次运行结果
func (s *ScheduleService) MarkRun(id, status string) error {
	return s.db.Model(&models.IngestionSchedule{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_at":     time.Now(),
			"last_run_status": status,
		}).Error
}

// validateScheduleSpec 校验调度类型与对应表达式
func validateScheduleSpec(schedule *models.IngestionSchedule) error {
	switch schedule.ScheduleType {
	case meta.ScheduleTypeCron:
		if schedule.CronExpression == "" {
			return errors.New("cron调度缺少cron_expression")
		}
		if _, err := cronParser.Parse(schedule.CronExpression); err != nil {
			return fmt.Errorf("cron表达式无效: %w", err)
		}
	case meta.ScheduleTypeInterval:
		if schedule.IntervalExpr == "" {
			return errors.New("间隔调度缺少interval_expr")
		}
		if _, err := promodel.ParseDuration(schedule.IntervalExpr); err != nil {
			return fmt.Errorf("间隔表达式无效: %w", err)
		}
	default:
		return fmt.Errorf("不支持的调度类型: %s", schedule.ScheduleType)
	}
	return nil
}

// IntervalOf 解析调度的间隔表达式
func IntervalOf(schedule *models.IngestionSchedule) (time.Duration, error) {
	d, err := promodel.ParseDuration(schedule.IntervalExpr)
	if err != nil {
		return 0, fmt.Errorf("间隔表达式无效: %w", err)
	}
	return time.Duration(d), nil
}

// ShouldRunNow 判断间隔调度是否到期
func ShouldRunNow(schedule *models.IngestionSchedule, now time.Time) bool {
	if schedule.ScheduleType != meta.ScheduleTypeInterval || !schedule.Enabled {
		return false
	}
	interval, err := IntervalOf(schedule)
	if err != nil {
		return false
	}
	if schedule.LastRunAt == nil {
		return true
	}
	return now.Sub(*schedule.LastRunAt) >= interval
}
