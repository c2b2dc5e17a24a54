/*
 * @module service/ingestion/intake
 * @description 推送摄取缓冲区 - 外部连接器与推送接口写入的记录按数据源
 *              聚集,达到条数阈值或周期后批量进入摄取流程
 * @architecture 缓冲聚合 - 内存缓冲 + 周期/阈值双触发下发
 * @documentReference dev_docs/requirements.md
 * @stateFlow 记录推送入缓冲 -> 阈值触发或定时触发 -> 批量摄取 -> 缓冲清空
 * @rules 下发失败的记录不回灌缓冲,仅记录日志;停止时下发剩余缓冲
 * @dependencies nexuscore-service/service/ingestion, sync, time
 * @refs client/connectors, api/controllers/ingestion_controller.go
 */

package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nexuscore-service/service/metrics"
)

const (
	defaultFlushSize     = 500
	defaultFlushInterval = 30 * time.Second
)

// IntakeConfig 推送缓冲配置
type IntakeConfig struct {
	FlushSize     int           // 单数据源触发立即下发的缓冲条数,默认500
	FlushInterval time.Duration // 周期性下发间隔,默认30秒
}

// Intake 推送摄取缓冲区
type Intake struct {
	service       *IngestionService
	flushSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	buffers map[string][]map[string]interface{}
	options map[string]IngestOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIntake 创建推送缓冲区
func NewIntake(service *IngestionService, config *IntakeConfig) *Intake {
	flushSize := defaultFlushSize
	flushInterval := defaultFlushInterval
	if config != nil {
		if config.FlushSize > 0 {
			flushSize = config.FlushSize
		}
		if config.FlushInterval > 0 {
			flushInterval = config.FlushInterval
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Intake{
		service:       service,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		buffers:       make(map[string][]map[string]interface{}),
		options:       make(map[string]IngestOptions),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Configure 设置数据源的摄取选项,该数据源的缓冲记录下发时使用。
// 未配置的数据源按任务名等于数据源标识处理
func (in *Intake) Configure(sourceKey string, opts IngestOptions) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.options[sourceKey] = opts
}

// Push 追加记录到数据源缓冲,达到阈值时异步触发下发。
// 返回追加后的缓冲条数
func (in *Intake) Push(sourceKey string, records []map[string]interface{}) int {
	if sourceKey == "" || len(records) == 0 {
		return in.BufferedCount(sourceKey)
	}

	in.mu.Lock()
	in.buffers[sourceKey] = append(in.buffers[sourceKey], records...)
	size := len(in.buffers[sourceKey])
	in.mu.Unlock()

	metrics.RecordPushBuffered(sourceKey, len(records))

	if size >= in.flushSize {
		in.wg.Add(1)
		go func() {
			defer in.wg.Done()
			in.FlushSource(sourceKey)
		}()
	}
	return size
}

// BufferedCount 返回指定数据源当前缓冲条数
func (in *Intake) BufferedCount(sourceKey string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.buffers[sourceKey])
}

// BufferedCounts 返回全部数据源的缓冲条数快照
func (in *Intake) BufferedCounts() map[string]int {
	in.mu.Lock()
	defer in.mu.Unlock()
	counts := make(map[string]int, len(in.buffers))
	for key, records := range in.buffers {
		counts[key] = len(records)
	}
	return counts
}

// FlushSource 立即下发指定数据源的缓冲记录
func (in *Intake) FlushSource(sourceKey string) {
	in.mu.Lock()
	records := in.buffers[sourceKey]
	delete(in.buffers, sourceKey)
	opts, configured := in.options[sourceKey]
	in.mu.Unlock()

	if len(records) == 0 {
		return
	}
	if !configured {
		opts = IngestOptions{MissionName: sourceKey}
	}
	in.dispatch(sourceKey, records, opts)
}

// FlushAll 下发全部数据源的缓冲记录
func (in *Intake) FlushAll() {
	in.mu.Lock()
	keys := make([]string, 0, len(in.buffers))
	for key := range in.buffers {
		keys = append(keys, key)
	}
	in.mu.Unlock()

	for _, key := range keys {
		in.FlushSource(key)
	}
}

// Start 启动周期性下发循环
func (in *Intake) Start() {
	in.wg.Add(1)
	go in.flushLoop()
}

// Stop 停止下发循环并下发剩余缓冲
func (in *Intake) Stop() {
	in.cancel()
	in.wg.Wait()
	in.FlushAll()
}

func (in *Intake) flushLoop() {
	defer in.wg.Done()
	ticker := time.NewTicker(in.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-in.ctx.Done():
			return
		case <-ticker.C:
			in.FlushAll()
		}
	}
}

// dispatch 将缓冲记录送入摄取流程。失败记录不回灌,避免反复阻塞缓冲
func (in *Intake) dispatch(sourceKey string, records []map[string]interface{}, opts IngestOptions) {
	report, err := in.service.IngestRecords(context.Background(), sourceKey, records, &opts)
	metrics.RecordPushFlush(sourceKey, err == nil)
	if err != nil {
		slog.Error("推送记录下发失败", "source", sourceKey, "count", len(records), "error", err)
		return
	}
	slog.Info("推送记录下发完成", "source", sourceKey, "count", len(records), "mission_id", report.MissionID)
}
