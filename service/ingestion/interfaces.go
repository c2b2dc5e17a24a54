/*
 * @module service/ingestion/interfaces
 * @description 摄取编排对外部服务的最小依赖接口,便于单元测试注入
 * @architecture 分层架构 - 依赖倒置,按编排所需收窄客户端能力
 * @documentReference dev_docs/requirements.md
 * @stateFlow 编排器 -> 接口 -> 具体客户端实现
 * @rules 接口只声明编排实际调用的方法,由真实客户端直接满足
 * @dependencies nexuscore-service/client/aggregator
 * @refs client/aggregator/client.go, client/apex/client.go
 */

package ingestion

import (
	"context"

	"nexuscore-service/client/aggregator"
)

// DataFetcher 数据聚合服务能力
type DataFetcher interface {
	Connect() error
	FetchData(ctx context.Context, sourceName string, opts *aggregator.FetchOptions) (*aggregator.DataChunk, error)
	ProfileSource(ctx context.Context, sourceKey string) (map[string]interface{}, error)
}

// MissionClient 任务分析服务能力
type MissionClient interface {
	Connect() error
	GetMission(ctx context.Context, missionID int) (map[string]interface{}, error)
	CreateMission(ctx context.Context, name, description string) (map[string]interface{}, error)
	AddDocument(ctx context.Context, missionID int, content, title string, includeInAnalysis bool) (map[string]interface{}, error)
	AnalyzeMission(ctx context.Context, missionID int, profile string) (map[string]interface{}, error)
	CreateMissionDataset(ctx context.Context, missionID int, name string, sources []map[string]interface{}, profile map[string]interface{}) (map[string]interface{}, error)
}
