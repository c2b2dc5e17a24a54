/*
 * @module service/database/views/dictionary_views
 * @description 数据字典相关视图定义，提供按数据源聚合的字段统计与字段清单视图
 * @architecture 数据库视图层 - 基于PostgreSQL视图实现数据聚合
 * @documentReference dev_docs/model.md
 * @stateFlow 字段定义数据生命周期视图管理
 * @rules 遵循PostgreSQL视图设计规范，使用json_agg聚合字段清单，确保数据完整性
 * @dependencies PostgreSQL JSONB支持, GORM模型定义
 * @refs service/models/ingestion.go
 */

package views

var DictionaryViews = map[string]string{
	// 数据源字段概况视图 - 按数据源聚合字段数量与字段清单
	"field_dictionary_info": `
		DROP VIEW IF EXISTS field_dictionary_info;
		CREATE VIEW field_dictionary_info AS
		SELECT
			fd.source_key,
			COUNT(*) as field_count,
			COUNT(*) FILTER (WHERE fd.required) as required_count,
			COUNT(*) FILTER (WHERE fd.sensitive) as sensitive_count,
			-- 字段清单JSON数组，来源：field_definitions表
			-- 包含字段：name, display_name, data_type, required, sensitive
			COALESCE(
				json_agg(
					jsonb_build_object(
						'name', fd.name,
						'display_name', fd.display_name,
						'data_type', fd.data_type,
						'required', fd.required,
						'sensitive', fd.sensitive
					) ORDER BY fd.name
				),
				'[]'::json
			) as fields,
			MAX(fd.updated_at) as last_updated_at
		FROM field_definitions fd
		GROUP BY fd.source_key;
	`,
}
