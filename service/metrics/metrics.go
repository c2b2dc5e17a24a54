/*
 * @module service/metrics
 * @description 摄取流水线Prometheus指标定义与记录辅助函数
 * @architecture 观测层 - 进程内单例注册,由运行记录器与推送缓冲调用
 * @documentReference dev_docs/requirements.md
 * @stateFlow 惰性注册 -> 业务调用记录 -> /metrics端点暴露
 * @rules 指标注册只发生一次;记录函数并发安全且不返回错误
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs service/ingestion/run_recorder.go, service/ingestion/intake.go, main.go
 */

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ingestMetrics 摄取子系统的Prometheus指标集
type ingestMetrics struct {
	once sync.Once

	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	rowsIngested *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec

	pushBuffered *prometheus.CounterVec
	pushFlushes  *prometheus.CounterVec
}

var m ingestMetrics

func (im *ingestMetrics) init() {
	im.once.Do(func() {
		im.runsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexuscore_ingest_runs_started_total",
			Help: "启动的摄取运行总数",
		}, []string{"trigger"})
		im.runsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexuscore_ingest_runs_finished_total",
			Help: "结束的摄取运行总数,按终态与触发方式划分",
		}, []string{"status", "trigger"})
		im.rowsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexuscore_ingest_rows_total",
			Help: "成功摄取的记录行总数",
		}, []string{"trigger"})
		im.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexuscore_ingest_run_seconds",
			Help:    "摄取运行耗时",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"trigger"})

		im.pushBuffered = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexuscore_push_buffered_total",
			Help: "推送接入缓冲的记录总数",
		}, []string{"source"})
		im.pushFlushes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexuscore_push_flush_total",
			Help: "推送缓冲下发批次总数,按结果划分",
		}, []string{"source", "result"})

		prometheus.MustRegister(
			im.runsStarted, im.runsFinished, im.rowsIngested, im.runDuration,
			im.pushBuffered, im.pushFlushes,
		)
	})
}

// RecordRunStarted 记录一次摄取运行启动
func RecordRunStarted(trigger string) {
	m.init()
	m.runsStarted.WithLabelValues(trigger).Inc()
}

// RecordRunFinished 记录一次摄取运行结束
func RecordRunFinished(status, trigger string, durationSeconds float64, rowCount int) {
	m.init()
	m.runsFinished.WithLabelValues(status, trigger).Inc()
	m.runDuration.WithLabelValues(trigger).Observe(durationSeconds)
	if rowCount > 0 {
		m.rowsIngested.WithLabelValues(trigger).Add(float64(rowCount))
	}
}

// RecordPushBuffered 记录推送接入缓冲的记录数
func RecordPushBuffered(sourceKey string, count int) {
	m.init()
	m.pushBuffered.WithLabelValues(sourceKey).Add(float64(count))
}

// RecordPushFlush 记录一次推送缓冲下发
func RecordPushFlush(sourceKey string, success bool) {
	m.init()
	result := "success"
	if !success {
		result = "failed"
	}
	m.pushFlushes.WithLabelValues(sourceKey, result).Inc()
}
