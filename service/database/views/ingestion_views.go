/*
 * @module service/database/views/ingestion_views
 * @description 摄取域相关视图定义，提供运行记录、数据源运行统计与调度执行概况的聚合查询视图
 * @architecture 数据库视图层 - 基于PostgreSQL视图实现数据聚合
 * @documentReference dev_docs/model.md
 * @stateFlow 摄取运行数据生命周期视图管理
 * @rules 遵循PostgreSQL视图设计规范，统计列使用FILTER聚合，确保数据完整性
 * @dependencies PostgreSQL JSONB支持, GORM模型定义
 * @refs service/models/ingestion.go
 */

package views

var IngestionViews = map[string]string{
	// 摄取运行详情视图 - 附带实时计算的执行时长
	"ingestion_runs_info": `
		DROP VIEW IF EXISTS ingestion_runs_info;
		CREATE VIEW ingestion_runs_info AS
		SELECT
			ir.id,
			ir.source_key,
			ir.dataset_id,
			ir.mission_id,
			ir."trigger",
			ir.status,
			ir.message,
			ir.row_count,
			ir.column_count,
			ir.transform_applied,
			ir.started_at,
			ir.finished_at,
			ir.duration_ms,
			-- 计算执行时长（秒），运行中的记录按当前时间估算
			CASE
				WHEN ir.finished_at IS NOT NULL
				THEN EXTRACT(EPOCH FROM (ir.finished_at - ir.started_at))
				WHEN ir.status = 'running'
				THEN EXTRACT(EPOCH FROM (NOW() - ir.started_at))
				ELSE NULL
			END as elapsed_seconds,
			ir.created_at,
			ir.created_by
		FROM ingestion_runs ir
		ORDER BY ir.started_at DESC;
	`,

	// 数据源运行统计视图 - 按数据源聚合运行次数、成功率与数据量
	"ingestion_source_stats": `
		DROP VIEW IF EXISTS ingestion_source_stats;
		CREATE VIEW ingestion_source_stats AS
		SELECT
			ir.source_key,
			COUNT(*) as total_runs,
			COUNT(*) FILTER (WHERE ir.status = 'success') as success_runs,
			COUNT(*) FILTER (WHERE ir.status = 'failed') as failed_runs,
			COUNT(*) FILTER (WHERE ir.status = 'running') as running_runs,
			COALESCE(SUM(ir.row_count), 0) as total_rows,
			-- 成功率（百分比），无已完成运行时为NULL
			CASE
				WHEN COUNT(*) FILTER (WHERE ir.status IN ('success', 'failed')) > 0
				THEN ROUND(
					COUNT(*) FILTER (WHERE ir.status = 'success')::numeric * 100
					/ COUNT(*) FILTER (WHERE ir.status IN ('success', 'failed')), 2)
				ELSE NULL
			END as success_rate,
			MAX(ir.started_at) as last_run_at,
			MAX(ir.finished_at) as last_finished_at
		FROM ingestion_runs ir
		GROUP BY ir.source_key;
	`,

	// 调度执行概况视图 - 调度配置关联其数据源的运行统计
	"ingestion_schedules_info": `
		DROP VIEW IF EXISTS ingestion_schedules_info;
		CREATE VIEW ingestion_schedules_info AS
		SELECT
			s.id,
			s.name,
			s.source_key,
			s.dataset_id,
			s.mission_id,
			s.mission_name,
			s.run_analysis,
			s.analysis_profile,
			s.schedule_type,
			s.cron_expression,
			s.interval_expr,
			s.chunk_size,
			s.max_records,
			s.enabled,
			s.last_run_at,
			s.last_run_status,
			-- 运行统计，来源：ingestion_runs表按source_key聚合
			COALESCE(r.total_runs, 0) as total_runs,
			COALESCE(r.success_runs, 0) as success_runs,
			COALESCE(r.failed_runs, 0) as failed_runs,
			r.last_started_at,
			s.created_at,
			s.created_by,
			s.updated_at,
			s.updated_by
		FROM ingestion_schedules s
		LEFT JOIN (
			SELECT
				source_key,
				COUNT(*) as total_runs,
				COUNT(*) FILTER (WHERE status = 'success') as success_runs,
				COUNT(*) FILTER (WHERE status = 'failed') as failed_runs,
				MAX(started_at) as last_started_at
			FROM ingestion_runs
			WHERE "trigger" = 'schedule'
			GROUP BY source_key
		) r ON r.source_key = s.source_key;
	`,
}
