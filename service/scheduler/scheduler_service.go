/*
 * @module service/scheduler/scheduler_service
 * @description 摄取调度器服务,负责按cron表达式与固定间隔定时触发数据源摄取
 * @architecture 基于Go协程和定时器的调度器模式
 * @documentReference ai_docs/ingestion_workflow.md
 * @stateFlow 加载调度 -> 定时触发 -> 提交摄取 -> 更新运行状态
 * @rules 支持Cron表达式和间隔调度;同一调度不并发重入,总执行并发数受工作池限制;
 *        配置分布式锁后同一调度跨实例也不重复执行
 * @dependencies gorm, ingestion服务, cron库, service/distributed_lock
 * @refs service/models/ingestion.go, service/ingestion/ingestion_service.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nexuscore-service/service/distributed_lock"
	"nexuscore-service/service/ingestion"
	"nexuscore-service/service/meta"
	"nexuscore-service/service/models"
	"nexuscore-service/service/transform"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// defaultMaxConcurrentRuns 调度触发的摄取并发上限
const defaultMaxConcurrentRuns = 4

// 分布式锁的过期时间与续期间隔,摄取时长不可预估,由续期协程保活
const (
	scheduleLockTTL     = 2 * time.Minute
	scheduleLockRefresh = 30 * time.Second
)

// SchedulerService 摄取调度器服务
type SchedulerService struct {
	db               *gorm.DB
	scheduleService  *ScheduleService
	ingestionService *ingestion.IngestionService
	cron             *cron.Cron
	intervalTicker   *time.Ticker
	workerPool       chan struct{}
	runningMutex     sync.Mutex
	running          map[string]bool
	lock             distributed_lock.DistributedLock
	lockExecutor     *distributed_lock.LockExecutor
	ctx              context.Context
	cancel           context.CancelFunc
}

// NewSchedulerService 创建摄取调度器服务
func NewSchedulerService(db *gorm.DB, scheduleService *ScheduleService, ingestionService *ingestion.IngestionService) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	// 创建带秒级精度的cron调度器
	c := cron.New(cron.WithSeconds())

	return &SchedulerService{
		db:               db,
		scheduleService:  scheduleService,
		ingestionService: ingestionService,
		cron:             c,
		workerPool:       make(chan struct{}, defaultMaxConcurrentRuns),
		running:          make(map[string]bool),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// SetDistributedLock 设置分布式锁,未设置时仅做进程内防重
func (s *SchedulerService) SetDistributedLock(lock distributed_lock.DistributedLock) {
	s.lock = lock
	s.lockExecutor = distributed_lock.NewLockExecutor(lock)
}

// Start 启动调度器
func (s *SchedulerService) Start() error {
	slog.Info("启动摄取调度器")

	s.cron.Start()

	// 启动间隔调度检查器(每分钟检查一次)
	s.intervalTicker = time.NewTicker(1 * time.Minute)
	go s.runIntervalChecker()

	if err := s.loadSchedules(); err != nil {
		slog.Error("加载调度配置失败", "error", err)
		return err
	}

	slog.Info("摄取调度器启动完成")
	return nil
}

// Stop 停止调度器
func (s *SchedulerService) Stop() {
	slog.Info("停止摄取调度器")

	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.intervalTicker != nil {
		s.intervalTicker.Stop()
	}

	slog.Info("摄取调度器已停止")
}

// loadSchedules 加载启用的cron调度并注册到调度器
func (s *SchedulerService) loadSchedules() error {
	schedules, err := s.scheduleService.ListSchedules(true)
	if err != nil {
		return fmt.Errorf("获取调度配置失败: %w", err)
	}

	count := 0
	for i := range schedules {
		schedule := &schedules[i]
		if schedule.ScheduleType != meta.ScheduleTypeCron {
			// 间隔调度由intervalChecker处理
			continue
		}
		if err := s.addCronSchedule(schedule); err != nil {
			slog.Error("注册cron调度失败", "schedule_id", schedule.ID, "error", err)
			continue
		}
		count++
	}

	slog.Info("加载cron调度完成", "count", count)
	return nil
}

// addCronSchedule 注册单个cron调度
func (s *SchedulerService) addCronSchedule(schedule *models.IngestionSchedule) error {
	scheduleID := schedule.ID
	_, err := s.cron.AddFunc(schedule.CronExpression, func() {
		s.triggerSchedule(scheduleID)
	})
	if err != nil {
		return fmt.Errorf("注册cron调度失败: %w", err)
	}

	slog.Info("注册cron调度", "schedule_id", scheduleID, "cron", schedule.CronExpression)
	return nil
}

// runIntervalChecker 间隔调度检查循环
func (s *SchedulerService) runIntervalChecker() {
	for {
		select {
		case <-s.intervalTicker.C:
			s.checkIntervalSchedules()
		case <-s.ctx.Done():
			return
		}
	}
}

// checkIntervalSchedules 检查并触发到期的间隔调度
func (s *SchedulerService) checkIntervalSchedules() {
	schedules, err := s.scheduleService.ListSchedules(true)
	if err != nil {
		slog.Error("获取间隔调度失败", "error", err)
		return
	}

	now := time.Now()
	for i := range schedules {
		if ShouldRunNow(&schedules[i], now) {
			go s.triggerSchedule(schedules[i].ID)
		}
	}
}

// triggerSchedule 触发一次调度执行,同一调度仍在执行时跳过本次触发
func (s *SchedulerService) triggerSchedule(scheduleID string) {
	s.runningMutex.Lock()
	if s.running[scheduleID] {
		s.runningMutex.Unlock()
		slog.Warn("调度仍在执行,跳过本次触发", "schedule_id", scheduleID)
		return
	}
	s.running[scheduleID] = true
	s.runningMutex.Unlock()

	defer func() {
		s.runningMutex.Lock()
		delete(s.running, scheduleID)
		s.runningMutex.Unlock()
	}()

	// 获取工作者槽位
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-s.ctx.Done():
		return
	}

	// 配置了分布式锁时跨实例防重,锁被其他实例持有则跳过本次触发
	if s.lockExecutor != nil {
		err := s.lockExecutor.ExecuteWithLockAndRefresh(s.ctx, scheduleID,
			scheduleLockTTL, scheduleLockRefresh, func() error {
				s.executeSchedule(scheduleID)
				return nil
			})
		if err != nil {
			slog.Error("调度执行的锁操作失败", "schedule_id", scheduleID, "error", err)
		}
		return
	}

	s.executeSchedule(scheduleID)
}

// executeSchedule 执行调度摄取并更新调度运行状态
func (s *SchedulerService) executeSchedule(scheduleID string) {
	schedule, err := s.scheduleService.GetSchedule(scheduleID)
	if err != nil {
		slog.Error("获取调度配置失败", "schedule_id", scheduleID, "error", err)
		return
	}

	if !schedule.Enabled {
		slog.Info("调度已停用,跳过执行", "schedule_id", scheduleID)
		return
	}

	slog.Info("执行调度摄取", "schedule_id", scheduleID, "source_key", schedule.SourceKey)

	opts, err := optionsFromSchedule(schedule)
	if err != nil {
		slog.Error("解析调度配置失败", "schedule_id", scheduleID, "error", err)
		s.markRun(scheduleID, meta.IngestRunStatusFailed)
		return
	}

	if _, err := s.ingestionService.IngestSource(s.ctx, schedule.SourceKey, opts); err != nil {
		slog.Error("调度摄取失败", "schedule_id", scheduleID, "error", err)
		s.markRun(scheduleID, meta.IngestRunStatusFailed)
		return
	}

	s.markRun(scheduleID, meta.IngestRunStatusSuccess)
	slog.Info("调度摄取完成", "schedule_id", scheduleID)
}

// markRun 更新调度的最近运行状态
func (s *SchedulerService) markRun(scheduleID, status string) {
	if err := s.scheduleService.MarkRun(scheduleID, status); err != nil {
		slog.Error("更新调度运行状态失败", "schedule_id", scheduleID, "error", err)
	}
}

// TriggerNow 同步执行一次调度摄取,停用的调度也可手动触发。
// 调度正在执行时返回错误而不是排队
func (s *SchedulerService) TriggerNow(scheduleID string) (*ingestion.IngestionReport, error) {
	s.runningMutex.Lock()
	if s.running[scheduleID] {
		s.runningMutex.Unlock()
		return nil, fmt.Errorf("调度 %s 正在执行中", scheduleID)
	}
	s.running[scheduleID] = true
	s.runningMutex.Unlock()

	defer func() {
		s.runningMutex.Lock()
		delete(s.running, scheduleID)
		s.runningMutex.Unlock()
	}()

	// 手动触发与定时触发争用同一把锁
	if s.lock != nil {
		locked, err := s.lock.TryLock(s.ctx, scheduleID, scheduleLockTTL)
		if err != nil {
			return nil, fmt.Errorf("获取调度锁失败: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("调度 %s 正在其他实例执行中", scheduleID)
		}
		defer func() {
			if unlockErr := s.lock.Unlock(s.ctx, scheduleID); unlockErr != nil {
				slog.Error("释放调度锁失败", "schedule_id", scheduleID, "error", unlockErr)
			}
		}()
	}

	schedule, err := s.scheduleService.GetSchedule(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("获取调度配置失败: %w", err)
	}

	opts, err := optionsFromSchedule(schedule)
	if err != nil {
		return nil, err
	}
	opts.Trigger = meta.IngestTriggerManual

	slog.Info("手动触发调度摄取", "schedule_id", scheduleID, "source_key", schedule.SourceKey)

	report, err := s.ingestionService.IngestSource(s.ctx, schedule.SourceKey, opts)
	if err != nil {
		s.markRun(scheduleID, meta.IngestRunStatusFailed)
		return nil, err
	}

	s.markRun(scheduleID, meta.IngestRunStatusSuccess)
	return report, nil
}

// optionsFromSchedule 由调度配置构造摄取选项
func optionsFromSchedule(schedule *models.IngestionSchedule) (*ingestion.IngestOptions, error) {
	opts := &ingestion.IngestOptions{
		MissionID:       schedule.MissionID,
		MissionName:     schedule.MissionName,
		AutoAnalyze:     schedule.RunAnalysis,
		AnalysisProfile: schedule.AnalysisProfile,
		FetchLimit:      schedule.MaxRecords,
		Trigger:         meta.IngestTriggerSchedule,
	}

	if len(schedule.TransformSpec) > 0 {
		spec, err := transform.SpecFromMaps(schedule.TransformSpec)
		if err != nil {
			return nil, fmt.Errorf("调度的转换规格无效: %w", err)
		}
		opts.TransformSpec = spec
	}

	return opts, nil
}

// AddSchedule 注册新建的调度,间隔调度由检查器接管无需注册
func (s *SchedulerService) AddSchedule(schedule *models.IngestionSchedule) error {
	if schedule.ScheduleType != meta.ScheduleTypeCron || !schedule.Enabled {
		return nil
	}
	return s.addCronSchedule(schedule)
}

// ReloadSchedules 重建cron调度
func (s *SchedulerService) ReloadSchedules() error {
	s.cron.Stop()
	s.cron = cron.New(cron.WithSeconds())
	s.cron.Start()

	return s.loadSchedules()
}
