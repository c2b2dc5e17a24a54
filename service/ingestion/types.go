/*
 * @module service/ingestion/types
 * @description 摄取编排的选项与报告类型定义
 * @architecture 分层架构 - 业务服务层数据契约
 * @documentReference dev_docs/requirements.md
 * @stateFlow 摄取请求选项 -> 编排执行 -> 摄取报告
 * @rules 报告完整记录本次摄取的任务、文档、schema与转换元数据
 * @dependencies nexuscore-service/service/schema, nexuscore-service/service/transform
 * @refs service/ingestion/ingestion_service.go
 */

package ingestion

import (
	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"
)

// IngestOptions 摄取选项
type IngestOptions struct {
	MissionID          int                      `json:"mission_id,omitempty"`          // 已有任务ID,为0时按名称创建
	MissionName        string                   `json:"mission_name,omitempty"`        // 未指定任务ID时必填
	MissionDescription string                   `json:"mission_description,omitempty"` // 新建任务的描述
	TransformSpec      *transform.TransformSpec `json:"transform_spec,omitempty"`      // 可选的转换规格
	AutoAnalyze        bool                     `json:"auto_analyze"`                  // 摄取后是否触发分析
	AnalysisProfile    string                   `json:"analysis_profile,omitempty"`    // 分析画像,默认humint
	DocumentTitle      string                   `json:"document_title,omitempty"`      // 文档标题,默认按数据源生成
	FetchLimit         int                      `json:"fetch_limit,omitempty"`         // 拉取记录数上限,0表示服务端默认
	Trigger            string                   `json:"trigger,omitempty"`             // 触发方式: manual/schedule/push
}

// IngestedDocument 已创建文档的元数据
type IngestedDocument struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// IngestionReport 摄取流程的结果报告
type IngestionReport struct {
	RunID             string                 `json:"run_id,omitempty"`
	MissionID         int                    `json:"mission_id"`
	Documents         []IngestedDocument     `json:"documents"`
	AnalysisRun       map[string]interface{} `json:"analysis_run,omitempty"`
	SchemaSummary     *schema.SchemaProfile  `json:"schema_summary"`
	FieldExplanations map[string]string      `json:"field_explanations"`
	TransformMetadata map[string]interface{} `json:"transform_metadata"`
	RowCount          int                    `json:"row_count"`
	ColumnCount       int                    `json:"column_count"`
}
