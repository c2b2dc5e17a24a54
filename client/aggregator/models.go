/*
 * @module client/aggregator/models
 * @description 聚合服务数据模型定义,包含数据源配置、数据块、健康状态与取数选项
 * @architecture 适配器模式 - 远端聚合服务的请求/响应结构
 * @documentReference dev_docs/requirements.md
 * @stateFlow 数据源配置由远端持有,本地仅作为请求/响应载体流转
 * @rules DataChunk允许为空,空块由流式读取逻辑终止而非构造时拒绝
 * @dependencies time
 * @refs client/aggregator/client.go
 */

package aggregator

import "time"

// SourceConfig 数据源配置,远端聚合服务持有的数据源注册信息
type SourceConfig struct {
	Name             string                 `json:"name"`
	Type             string                 `json:"type"`
	Description      string                 `json:"description,omitempty"`
	Connection       map[string]interface{} `json:"connection,omitempty"`
	Parameters       map[string]interface{} `json:"parameters,omitempty"`
	RefreshInterval  *int                   `json:"refresh_interval,omitempty"`
	LastRefreshed    *time.Time             `json:"last_refreshed,omitempty"`
	Format           string                 `json:"format,omitempty"`
	SchemaDefinition map[string]interface{} `json:"schema_definition,omitempty"`
}

// DataChunk 一次取数返回的数据块,包含记录与分页元数据
type DataChunk struct {
	SourceName string                   `json:"source_name"`
	Data       []map[string]interface{} `json:"data"`
	Metadata   map[string]interface{}   `json:"metadata"`
}

// RecordCount 返回数据块中的记录条数
func (c *DataChunk) RecordCount() int {
	return len(c.Data)
}

// IsEmpty 判断数据块是否为空
func (c *DataChunk) IsEmpty() bool {
	return len(c.Data) == 0
}

// SourceHealth 数据源健康状态快照,按需读取不做本地缓存
type SourceHealth struct {
	Status      string     `json:"status"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	ErrorCount  int        `json:"error_count"`
	RecordCount *int       `json:"record_count,omitempty"`
}

// FetchOptions 单页取数选项
type FetchOptions struct {
	Limit   int                    `json:"limit,omitempty"`
	Offset  int                    `json:"offset"`
	Format  string                 `json:"format,omitempty"`
	Filters map[string]interface{} `json:"filters,omitempty"`
	Sort    []map[string]string    `json:"sort,omitempty"`
}

// StreamOptions 流式取数选项
type StreamOptions struct {
	ChunkSize int                    `json:"chunk_size"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
	Sort      []map[string]string    `json:"sort,omitempty"`
}
