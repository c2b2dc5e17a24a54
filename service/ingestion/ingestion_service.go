/*
 * @module service/ingestion/ingestion_service
 * @description 摄取编排服务 - 协调数据聚合拉取、schema推断、字段解释、
 *              转换执行、文档提交与分析触发的端到端流程
 * @architecture 分层架构 - 业务编排层,依赖注入的客户端接口
 * @documentReference dev_docs/requirements.md
 * @stateFlow 任务解析 -> 数据拉取 -> schema推断 -> 字段解释 -> 转换 ->
 *            文档组装提交 -> 可选分析触发 -> 运行记录落库
 * @rules 显式指定的任务ID校验失败时不回退创建新任务;转换失败不中止摄取,
 *        保留原始记录并在元数据中记录;字典登记与运行记录均为尽力而为
 * @dependencies nexuscore-service/client/aggregator, nexuscore-service/service/schema,
 *               nexuscore-service/service/transform, github.com/spf13/cast
 * @refs service/ingestion/run_recorder.go, service/ingestion/intake.go
 */

package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"

	"nexuscore-service/client/aggregator"
	"nexuscore-service/service/dictionary"
	"nexuscore-service/service/meta"
	"nexuscore-service/service/models"
	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"
)

// maxSampleRecords 文档样例记录数上限
const maxSampleRecords = 5

// IngestionConfig 摄取编排服务的依赖配置
type IngestionConfig struct {
	Aggregator     DataFetcher
	Apex           MissionClient
	Interpreter    *schema.Interpreter
	Transformer    *transform.Transformer
	Dictionary     *dictionary.DictionaryService // 可选,nil时跳过字典登记
	Recorder       *RunRecorder                  // 可选,nil时跳过运行记录
	DefaultProfile string                        // 默认分析画像,空值取humint
}

// IngestionService 摄取编排服务
type IngestionService struct {
	aggregator     DataFetcher
	apex           MissionClient
	interpreter    *schema.Interpreter
	transformer    *transform.Transformer
	dictionary     *dictionary.DictionaryService
	recorder       *RunRecorder
	defaultProfile string
}

// NewIngestionService 创建摄取编排服务实例
func NewIngestionService(config *IngestionConfig) *IngestionService {
	profile := config.DefaultProfile
	if profile == "" {
		profile = meta.DefaultAnalysisProfile
	}
	return &IngestionService{
		aggregator:     config.Aggregator,
		apex:           config.Apex,
		interpreter:    config.Interpreter,
		transformer:    config.Transformer,
		dictionary:     config.Dictionary,
		recorder:       config.Recorder,
		defaultProfile: profile,
	}
}

// IngestSource 对注册数据源执行端到端摄取流程
func (s *IngestionService) IngestSource(ctx context.Context, sourceName string, opts *IngestOptions) (*IngestionReport, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if sourceName == "" {
		return nil, errors.New("数据源名称不能为空")
	}
	if err := s.connectClients(); err != nil {
		return nil, err
	}

	run := s.startRun(sourceName, opts.Trigger)
	report, err := s.runIngestSource(ctx, sourceName, opts)
	s.finishRun(run, report, err)
	if err != nil {
		return nil, err
	}
	if run != nil {
		report.RunID = run.ID
	}
	return report, nil
}

func (s *IngestionService) runIngestSource(ctx context.Context, sourceName string, opts *IngestOptions) (*IngestionReport, error) {
	missionID, err := s.ensureMission(ctx, opts)
	if err != nil {
		return nil, err
	}

	fetchOpts := &aggregator.FetchOptions{}
	if opts.FetchLimit > 0 {
		fetchOpts.Limit = opts.FetchLimit
	}
	chunk, err := s.aggregator.FetchData(ctx, sourceName, fetchOpts)
	if err != nil {
		return nil, fmt.Errorf("拉取数据源 %s 失败: %w", sourceName, err)
	}

	return s.assembleAndSubmit(ctx, missionID, sourceName, chunk.Data, chunk.Metadata, opts)
}

// IngestRecords 摄取外部推送的记录批次,流程与数据源摄取一致但跳过拉取
func (s *IngestionService) IngestRecords(ctx context.Context, sourceKey string, records []map[string]interface{}, opts *IngestOptions) (*IngestionReport, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if sourceKey == "" {
		return nil, errors.New("数据源标识不能为空")
	}
	if len(records) == 0 {
		return nil, errors.New("记录列表不能为空")
	}
	if err := s.connectClients(); err != nil {
		return nil, err
	}

	trigger := opts.Trigger
	if trigger == "" {
		trigger = "push"
	}
	run := s.startRun(sourceKey, trigger)
	report, err := s.runIngestRecords(ctx, sourceKey, records, opts)
	s.finishRun(run, report, err)
	if err != nil {
		return nil, err
	}
	if run != nil {
		report.RunID = run.ID
	}
	return report, nil
}

func (s *IngestionService) runIngestRecords(ctx context.Context, sourceKey string, records []map[string]interface{}, opts *IngestOptions) (*IngestionReport, error) {
	missionID, err := s.ensureMission(ctx, opts)
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{
		"source":       sourceKey,
		"record_count": len(records),
		"ingest_mode":  "push",
	}
	return s.assembleAndSubmit(ctx, missionID, sourceKey, records, metadata, opts)
}

// IngestToMissionDataset 对数据源做画像并在任务下创建引用式数据集
func (s *IngestionService) IngestToMissionDataset(ctx context.Context, missionID int, sourceKey, datasetName string) (map[string]interface{}, error) {
	if sourceKey == "" {
		return nil, errors.New("数据源标识不能为空")
	}
	if err := s.connectClients(); err != nil {
		return nil, err
	}

	profile, err := s.aggregator.ProfileSource(ctx, sourceKey)
	if err != nil {
		return nil, fmt.Errorf("数据源 %s 画像失败: %w", sourceKey, err)
	}

	datasetID := firstNonEmpty(
		cast.ToString(profile["dataset_id"]),
		cast.ToString(profile["id"]),
		cast.ToString(profile["name"]),
		sourceKey,
	)

	sources := []map[string]interface{}{
		{
			"type":                  "aggregator_source",
			"source_key":            sourceKey,
			"aggregator_dataset_id": datasetID,
		},
	}

	name := datasetName
	if name == "" {
		name = sourceKey
	}

	dataset, err := s.apex.CreateMissionDataset(ctx, missionID, name, sources, profile)
	if err != nil {
		return nil, fmt.Errorf("创建任务数据集失败: %w", err)
	}
	return dataset, nil
}

// assembleAndSubmit 推断schema、生成解释、应用转换并提交文档,
// 按需触发分析。摄取与推送两条路径共用
func (s *IngestionService) assembleAndSubmit(ctx context.Context, missionID int, sourceName string, records []map[string]interface{}, metadata map[string]interface{}, opts *IngestOptions) (*IngestionReport, error) {
	profile := s.interpreter.InferSchema(records)

	explanations, err := s.buildFieldExplanations(ctx, profile)
	if err != nil {
		return nil, err
	}

	transformedRecords, transformMeta := s.applyTransformations(records, opts.TransformSpec)

	content, err := buildDocumentContent(sourceName, profile, explanations, transformedRecords, metadata)
	if err != nil {
		return nil, fmt.Errorf("构建文档内容失败: %w", err)
	}

	title := opts.DocumentTitle
	if title == "" {
		title = fmt.Sprintf("数据摄取 - %s", sourceName)
	}

	apexDoc, err := s.apex.AddDocument(ctx, missionID, content, title, true)
	if err != nil {
		return nil, fmt.Errorf("提交文档失败: %w", err)
	}

	var analysisRun map[string]interface{}
	if opts.AutoAnalyze {
		profileName := opts.AnalysisProfile
		if profileName == "" {
			profileName = s.defaultProfile
		}
		analysisRun, err = s.apex.AnalyzeMission(ctx, missionID, profileName)
		if err != nil {
			return nil, fmt.Errorf("触发任务分析失败: %w", err)
		}
	}

	s.registerFieldDefinitions(sourceName, profile)

	return &IngestionReport{
		MissionID: missionID,
		Documents: []IngestedDocument{
			{ID: cast.ToInt(apexDoc["id"]), Title: cast.ToString(apexDoc["title"])},
		},
		AnalysisRun:       analysisRun,
		SchemaSummary:     profile,
		FieldExplanations: explanations,
		TransformMetadata: transformMeta,
		RowCount:          len(transformedRecords),
		ColumnCount:       profile.Stats.ColumnCount,
	}, nil
}

// ensureMission 解析本次摄取的任务ID。显式指定的ID校验失败时不回退创建;
// 未指定ID时必须提供任务名称,该校验先于任何远端写操作
func (s *IngestionService) ensureMission(ctx context.Context, opts *IngestOptions) (int, error) {
	if opts.MissionID != 0 {
		if _, err := s.apex.GetMission(ctx, opts.MissionID); err != nil {
			slog.Warn("指定的任务不可用", "mission_id", opts.MissionID, "error", err)
			return 0, fmt.Errorf("指定的任务 %d 不可用: %w", opts.MissionID, err)
		}
		return opts.MissionID, nil
	}

	if opts.MissionName == "" {
		return 0, errors.New("未提供mission_id时必须指定mission_name")
	}

	mission, err := s.apex.CreateMission(ctx, opts.MissionName, opts.MissionDescription)
	if err != nil {
		return 0, fmt.Errorf("创建任务失败: %w", err)
	}
	missionID := cast.ToInt(mission["id"])
	if missionID == 0 {
		return 0, fmt.Errorf("任务服务返回的任务ID无效: %v", mission["id"])
	}
	return missionID, nil
}

// applyTransformations 对记录批次应用可选转换。转换失败不中止摄取,
// 保留原始记录并在元数据中记录失败信息
func (s *IngestionService) applyTransformations(records []map[string]interface{}, spec *transform.TransformSpec) ([]map[string]interface{}, map[string]interface{}) {
	metadata := make(map[string]interface{})
	if len(records) == 0 || spec == nil || len(spec.Steps) == 0 {
		return records, metadata
	}

	result := s.transformer.Apply(records, spec)
	metadata["transform_success"] = result.Success
	metadata["message"] = result.Message
	if result.Success {
		return result.TransformedData, metadata
	}

	slog.Warn("转换失败, 保留原始记录继续摄取", "message", result.Message)
	metadata["error"] = result.Message
	return records, metadata
}

// buildFieldExplanations 为schema中的每个字段生成解释
func (s *IngestionService) buildFieldExplanations(ctx context.Context, profile *schema.SchemaProfile) (map[string]string, error) {
	explanations := make(map[string]string, len(profile.Fields))
	for i := range profile.Fields {
		field := &profile.Fields[i]
		if field.Name == "" {
			continue
		}
		text, err := s.interpreter.ExplainField(ctx, field.Name, field)
		if err != nil {
			return nil, fmt.Errorf("生成字段 %s 的解释失败: %w", field.Name, err)
		}
		explanations[field.Name] = text
	}
	return explanations, nil
}

// registerFieldDefinitions 将推断出的字段登记到数据字典。
// 仅在数据源尚无字典时登记,已维护的字典不被覆盖;失败仅告警
func (s *IngestionService) registerFieldDefinitions(sourceName string, profile *schema.SchemaProfile) {
	if s.dictionary == nil || len(profile.Fields) == 0 {
		return
	}

	existing, err := s.dictionary.ListFields(sourceName)
	if err != nil || len(existing) > 0 {
		return
	}

	fields := make([]models.FieldDefinition, 0, len(profile.Fields))
	for _, field := range profile.Fields {
		def := models.FieldDefinition{
			Name:     field.Name,
			DataType: field.Type,
		}
		if len(field.SampleValues) > 0 {
			def.Example = cast.ToString(field.SampleValues[0])
		}
		fields = append(fields, def)
	}

	if err := s.dictionary.UpsertDictionary(sourceName, fields); err != nil {
		slog.Warn("登记数据字典失败", "source", sourceName, "error", err)
	}
}

// buildDocumentContent 组装提交到任务服务的文档内容,样例最多5条记录
func buildDocumentContent(sourceName string, profile *schema.SchemaProfile, explanations map[string]string, records []map[string]interface{}, metadata map[string]interface{}) (string, error) {
	sample := records
	if len(sample) > maxSampleRecords {
		sample = sample[:maxSampleRecords]
	}
	if sample == nil {
		sample = []map[string]interface{}{}
	}

	doc := struct {
		Source        string                   `json:"source"`
		Metadata      map[string]interface{}   `json:"metadata"`
		Schema        *schema.SchemaProfile    `json:"schema"`
		Explanations  map[string]string        `json:"explanations"`
		SampleRecords []map[string]interface{} `json:"sample_records"`
	}{sourceName, metadata, profile, explanations, sample}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *IngestionService) connectClients() error {
	if err := s.aggregator.Connect(); err != nil {
		return fmt.Errorf("连接聚合服务失败: %w", err)
	}
	if err := s.apex.Connect(); err != nil {
		return fmt.Errorf("连接任务服务失败: %w", err)
	}
	return nil
}

func (s *IngestionService) startRun(sourceKey, trigger string) *models.IngestionRun {
	if s.recorder == nil {
		return nil
	}
	return s.recorder.Start(sourceKey, trigger)
}

// finishRun 将报告中的事实回填到运行记录并落库
func (s *IngestionService) finishRun(run *models.IngestionRun, report *IngestionReport, err error) {
	if run == nil {
		return
	}
	if report != nil {
		run.MissionID = report.MissionID
		run.RowCount = report.RowCount
		run.ColumnCount = report.ColumnCount
		if report.SchemaSummary != nil {
			run.SchemaSnapshot = toJSONB(report.SchemaSummary)
		}
		if len(report.TransformMetadata) > 0 {
			run.TransformApplied = cast.ToBool(report.TransformMetadata["transform_success"])
			run.TransformSummary = models.JSONB(report.TransformMetadata)
		}
	}
	s.recorder.Finish(run, err)
}

// toJSONB 经JSON序列化往返转为jsonb映射
func toJSONB(v interface{}) models.JSONB {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("序列化运行快照失败", "error", err)
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return models.JSONB(m)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
