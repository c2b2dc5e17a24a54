/*
 * @module service/meta/ingest_run
 * @description 摄取执行元数据定义,包括执行状态、触发方式、调度类型、重试策略等常量
 * @architecture 常量层 - 元数据定义
 * @documentReference ai_docs/ingestion_workflow.md
 * @stateFlow 常量定义 -> 验证函数 -> 摄取服务使用
 * @rules 统一管理摄取执行生命周期相关的常量
 * @dependencies 无外部依赖
 * @refs service/ingestion, service/scheduler
 */

package meta

// 摄取执行状态常量
const (
	IngestRunStatusRunning = "running"
	IngestRunStatusSuccess = "success"
	IngestRunStatusFailed  = "failed"
)

// IngestRunStatusDisplayNames 摄取执行状态显示名称映射
var IngestRunStatusDisplayNames = map[string]string{
	IngestRunStatusRunning: "执行中",
	IngestRunStatusSuccess: "成功",
	IngestRunStatusFailed:  "失败",
}

// 摄取触发方式常量
const (
	IngestTriggerManual   = "manual"
	IngestTriggerSchedule = "schedule"
	IngestTriggerPush     = "push"
)

// IngestTriggerDisplayNames 摄取触发方式显示名称映射
var IngestTriggerDisplayNames = map[string]string{
	IngestTriggerManual:   "手动触发",
	IngestTriggerSchedule: "定时调度",
	IngestTriggerPush:     "推送接入",
}

// 调度类型常量
const (
	ScheduleTypeCron     = "cron"
	ScheduleTypeInterval = "interval"
)

// IsValidScheduleType 验证调度类型是否有效
func IsValidScheduleType(scheduleType string) bool {
	switch scheduleType {
	case ScheduleTypeCron, ScheduleTypeInterval:
		return true
	default:
		return false
	}
}

// RetryableStatusCodes 允许重试的HTTP状态码集合
// 429 限流与 5xx 网关/服务端错误可以通过退避重试恢复
var RetryableStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsRetryableStatusCode 判断HTTP状态码是否可重试
func IsRetryableStatusCode(statusCode int) bool {
	return RetryableStatusCodes[statusCode]
}
