/*
 * @module service/meta/source
 * @description 数据源元数据定义,包括源类型、文件格式、源状态、分析剖面等常量
 * @architecture 常量层 - 元数据定义
 * @documentReference ai_docs/aggregator_api.md
 * @stateFlow 常量定义 -> 验证函数 -> 业务逻辑使用
 * @rules 统一管理聚合服务数据源相关的常量,确保类型安全
 * @dependencies 无外部依赖
 * @refs client/aggregator, service/ingestion
 */

package meta

import "strings"

// 数据源类型常量
const (
	SourceTypeAPI      = "api"
	SourceTypeDatabase = "database"
	SourceTypeFile     = "file"
	SourceTypeStream   = "stream"
	SourceTypeWebhook  = "webhook"
)

// 数据源类型显示名称映射
var SourceTypeDisplayNames = map[string]string{
	SourceTypeAPI:      "API接口",
	SourceTypeDatabase: "数据库",
	SourceTypeFile:     "文件",
	SourceTypeStream:   "数据流",
	SourceTypeWebhook:  "Webhook推送",
}

// IsValidSourceType 验证数据源类型是否有效
func IsValidSourceType(sourceType string) bool {
	_, exists := SourceTypeDisplayNames[sourceType]
	return exists
}

// GetAllSourceTypes 获取所有支持的数据源类型
func GetAllSourceTypes() []string {
	return []string{
		SourceTypeAPI,
		SourceTypeDatabase,
		SourceTypeFile,
		SourceTypeStream,
		SourceTypeWebhook,
	}
}

// 文件格式常量
const (
	FileFormatCSV     = "csv"
	FileFormatJSON    = "json"
	FileFormatXML     = "xml"
	FileFormatParquet = "parquet"
	FileFormatExcel   = "excel"
	FileFormatText    = "text"
)

// FileFormatContentTypes 文件格式对应的Content-Type映射
var FileFormatContentTypes = map[string]string{
	FileFormatCSV:     "text/csv",
	FileFormatJSON:    "application/json",
	FileFormatXML:     "application/xml",
	FileFormatParquet: "application/octet-stream",
	FileFormatExcel:   "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FileFormatText:    "text/plain",
}

// IsValidFileFormat 验证文件格式是否有效
func IsValidFileFormat(format string) bool {
	_, exists := FileFormatContentTypes[format]
	return exists
}

// GetAllFileFormats 获取所有支持的文件格式
func GetAllFileFormats() []string {
	return []string{
		FileFormatCSV,
		FileFormatJSON,
		FileFormatXML,
		FileFormatParquet,
		FileFormatExcel,
		FileFormatText,
	}
}

// GetFileFormatContentType 获取文件格式对应的Content-Type
func GetFileFormatContentType(format string) string {
	if contentType, exists := FileFormatContentTypes[format]; exists {
		return contentType
	}
	return "application/octet-stream"
}

// FileFormatFromExtension 根据文件扩展名推断文件格式
// 扩展名无法识别时返回空字符串,由调用方决定如何处理
func FileFormatFromExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if IsValidFileFormat(ext) {
		return ext
	}
	return ""
}

// 数据源状态常量
const (
	SourceStatusActive     = "active"
	SourceStatusInactive   = "inactive"
	SourceStatusError      = "error"
	SourceStatusRefreshing = "refreshing"
)

// SourceStatusDisplayNames 数据源状态显示名称映射
var SourceStatusDisplayNames = map[string]string{
	SourceStatusActive:     "活跃",
	SourceStatusInactive:   "停用",
	SourceStatusError:      "故障",
	SourceStatusRefreshing: "刷新中",
}

// 分析剖面常量,选择下游任务分析的视角
const (
	AnalysisProfileHumint = "humint"
	AnalysisProfileSigint = "sigint"
	AnalysisProfileOsint  = "osint"
)

// DefaultAnalysisProfile 默认分析剖面
const DefaultAnalysisProfile = AnalysisProfileHumint

// AnalysisProfileDisplayNames 分析剖面显示名称映射
var AnalysisProfileDisplayNames = map[string]string{
	AnalysisProfileHumint: "人力情报分析",
	AnalysisProfileSigint: "信号情报分析",
	AnalysisProfileOsint:  "开源情报分析",
}

// IsValidAnalysisProfile 验证分析剖面是否有效
func IsValidAnalysisProfile(profile string) bool {
	_, exists := AnalysisProfileDisplayNames[profile]
	return exists
}

// GetAllAnalysisProfiles 获取所有支持的分析剖面
func GetAllAnalysisProfiles() []string {
	return []string{
		AnalysisProfileHumint,
		AnalysisProfileSigint,
		AnalysisProfileOsint,
	}
}
