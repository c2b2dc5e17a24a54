/*
 * @module service/ingestion/ingestion_service_test
 * @description 摄取编排服务单元测试 - 任务解析语义、端到端流程、转换失败
 *              容错与运行记录落库
 * @architecture 测试层 - Mock外部客户端,schema推断与转换使用真实实现
 * @documentReference dev_docs/test_plan.md
 * @stateFlow Mock交互设定 -> 编排执行 -> 调用与结果断言
 * @rules 显式任务ID校验失败时不得发起任何创建调用;未设定预期的Mock方法
 *        被调用即测试失败
 * @dependencies testing, testify, nexuscore-service/testutil
 * @refs ingestion_service.go, run_recorder.go
 */

package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"nexuscore-service/client/aggregator"
	"nexuscore-service/service/dictionary"
	"nexuscore-service/service/models"
	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"
	"nexuscore-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDataFetcher 模拟数据聚合客户端
type MockDataFetcher struct {
	mock.Mock
}

func (m *MockDataFetcher) Connect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDataFetcher) FetchData(ctx context.Context, sourceName string, opts *aggregator.FetchOptions) (*aggregator.DataChunk, error) {
	args := m.Called(ctx, sourceName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregator.DataChunk), args.Error(1)
}

func (m *MockDataFetcher) ProfileSource(ctx context.Context, sourceKey string) (map[string]interface{}, error) {
	args := m.Called(ctx, sourceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

// MockMissionClient 模拟任务分析客户端
type MockMissionClient struct {
	mock.Mock
}

func (m *MockMissionClient) Connect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMissionClient) GetMission(ctx context.Context, missionID int) (map[string]interface{}, error) {
	args := m.Called(ctx, missionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockMissionClient) CreateMission(ctx context.Context, name, description string) (map[string]interface{}, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockMissionClient) AddDocument(ctx context.Context, missionID int, content, title string, includeInAnalysis bool) (map[string]interface{}, error) {
	args := m.Called(ctx, missionID, content, title, includeInAnalysis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockMissionClient) AnalyzeMission(ctx context.Context, missionID int, profile string) (map[string]interface{}, error) {
	args := m.Called(ctx, missionID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockMissionClient) CreateMissionDataset(ctx context.Context, missionID int, name string, sources []map[string]interface{}, profile map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, missionID, name, sources, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

// newTestMocks 创建已就绪的客户端Mock,Connect默认放行
func newTestMocks() (*MockDataFetcher, *MockMissionClient) {
	fetcher := new(MockDataFetcher)
	apexMock := new(MockMissionClient)
	fetcher.On("Connect").Return(nil)
	apexMock.On("Connect").Return(nil)
	return fetcher, apexMock
}

func newTestService(fetcher *MockDataFetcher, apexMock *MockMissionClient, recorder *RunRecorder) *IngestionService {
	return NewIngestionService(&IngestionConfig{
		Aggregator:  fetcher,
		Apex:        apexMock,
		Interpreter: schema.NewInterpreter(nil),
		Transformer: transform.NewTransformer(),
		Recorder:    recorder,
	})
}

func assertMethodNotCalled(t *testing.T, m *mock.Mock, method string) {
	t.Helper()
	for _, call := range m.Calls {
		if call.Method == method {
			t.Errorf("不应调用 %s", method)
		}
	}
}

func sampleChunk() *aggregator.DataChunk {
	return &aggregator.DataChunk{
		SourceName: "sales_2024",
		Data: []map[string]interface{}{
			{"age": 10.0},
			{"age": 20.0},
			{"age": nil},
		},
		Metadata: map[string]interface{}{"total": 3.0},
	}
}

// TestIngestSource_ExistingMission 显式有效任务ID直接复用,不创建新任务
func TestIngestSource_ExistingMission(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
	apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
		Return(map[string]interface{}{"id": 7.0, "title": "数据摄取 - sales_2024"}, nil)

	report, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{MissionID: 42})

	require.NoError(t, err)
	assert.Equal(t, 42, report.MissionID)
	assertMethodNotCalled(t, &apexMock.Mock, "CreateMission")
	apexMock.AssertExpectations(t)
}

// TestIngestSource_DeadMissionID 失效的显式任务ID不回退创建,在拉取前失败
func TestIngestSource_DeadMissionID(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	apexMock.On("GetMission", mock.Anything, 42).Return(nil, errors.New("404: 资源不存在"))

	_, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{
		MissionID:   42,
		MissionName: "备用名称不应被使用",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "指定的任务 42 不可用")
	assertMethodNotCalled(t, &apexMock.Mock, "CreateMission")
	assertMethodNotCalled(t, &fetcher.Mock, "FetchData")
}

// TestIngestSource_MissingMissionName 无任务ID也无名称时本地校验先行失败
func TestIngestSource_MissingMissionName(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	_, err := service.IngestSource(context.Background(), "sales_2024", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "未提供mission_id时必须指定mission_name")
	assertMethodNotCalled(t, &apexMock.Mock, "GetMission")
	assertMethodNotCalled(t, &apexMock.Mock, "CreateMission")
	assertMethodNotCalled(t, &fetcher.Mock, "FetchData")
}

// TestIngestSource_CreateMissionByName 未指定ID时按名称创建任务
func TestIngestSource_CreateMissionByName(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	apexMock.On("CreateMission", mock.Anything, "销售数据分析", "季度复盘").
		Return(map[string]interface{}{"id": 99.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
	apexMock.On("AddDocument", mock.Anything, 99, mock.Anything, mock.Anything, true).
		Return(map[string]interface{}{"id": 7.0, "title": "t"}, nil)

	report, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{
		MissionName:        "销售数据分析",
		MissionDescription: "季度复盘",
	})

	require.NoError(t, err)
	assert.Equal(t, 99, report.MissionID)
	assertMethodNotCalled(t, &apexMock.Mock, "GetMission")
	apexMock.AssertExpectations(t)
}

// TestIngestSource_EndToEnd 端到端流程:转换链、文档内容、分析触发与报告
func TestIngestSource_EndToEnd(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	var gotContent, gotTitle string
	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
	apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
		Run(func(args mock.Arguments) {
			gotContent = args.String(2)
			gotTitle = args.String(3)
		}).
		Return(map[string]interface{}{"id": 7.0, "title": "数据摄取 - sales_2024"}, nil)
	apexMock.On("AnalyzeMission", mock.Anything, 42, "humint").
		Return(map[string]interface{}{"run_id": 5.0, "status": "queued"}, nil)

	report, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{
		MissionID: 42,
		TransformSpec: &transform.TransformSpec{Steps: []transform.TransformStep{
			{Type: "fillna", Column: "age"},
			{Type: "normalize", Column: "age"},
		}},
		AutoAnalyze: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "数据摄取 - sales_2024", gotTitle)

	// 文档内容为带缩进的JSON,包含转换后的样例记录
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(gotContent), &doc))
	assert.Equal(t, "sales_2024", doc["source"])
	assert.Equal(t, map[string]interface{}{"total": 3.0}, doc["metadata"])

	samples := doc["sample_records"].([]interface{})
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.5, samples[0].(map[string]interface{})["age"], 1e-9)
	assert.InDelta(t, 1.0, samples[1].(map[string]interface{})["age"], 1e-9)
	assert.InDelta(t, 0.0, samples[2].(map[string]interface{})["age"], 1e-9)

	schemaDoc := doc["schema"].(map[string]interface{})
	stats := schemaDoc["stats"].(map[string]interface{})
	assert.Equal(t, 3.0, stats["row_count"])

	explanations := doc["explanations"].(map[string]interface{})
	assert.Contains(t, explanations["age"], "字段'age'")

	// 报告元数据
	assert.Equal(t, 42, report.MissionID)
	assert.Equal(t, []IngestedDocument{{ID: 7, Title: "数据摄取 - sales_2024"}}, report.Documents)
	assert.Equal(t, true, report.TransformMetadata["transform_success"])
	assert.Equal(t, "queued", report.AnalysisRun["status"])
	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 1, report.ColumnCount)
	apexMock.AssertExpectations(t)
}

// TestIngestSource_TransformFailureDoesNotAbort 转换失败保留原始记录继续摄取
func TestIngestSource_TransformFailureDoesNotAbort(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	var gotContent string
	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
	apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
		Run(func(args mock.Arguments) { gotContent = args.String(2) }).
		Return(map[string]interface{}{"id": 7.0, "title": "t"}, nil)

	report, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{
		MissionID: 42,
		TransformSpec: &transform.TransformSpec{Steps: []transform.TransformStep{
			{Type: "explode", Column: "age"},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, false, report.TransformMetadata["transform_success"])
	assert.Contains(t, report.TransformMetadata["error"], "未知的转换类型")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(gotContent), &doc))
	samples := doc["sample_records"].([]interface{})
	assert.Equal(t, 10.0, samples[0].(map[string]interface{})["age"])
}

// TestIngestSource_FetchFailure 拉取失败带上下文返回
func TestIngestSource_FetchFailure(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).
		Return(nil, errors.New("503: 服务端错误"))

	_, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{MissionID: 42})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "拉取数据源 sales_2024 失败")
	assertMethodNotCalled(t, &apexMock.Mock, "AddDocument")
}

// TestIngestSource_RunRecording 运行记录落库:成功与失败两种终态
func TestIngestSource_RunRecording(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	recorder := NewRunRecorder(testDB.DB, nil)

	t.Run("成功运行", func(t *testing.T) {
		testDB.CleanDB()
		fetcher, apexMock := newTestMocks()
		service := newTestService(fetcher, apexMock, recorder)

		apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
		fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
		apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
			Return(map[string]interface{}{"id": 7.0, "title": "t"}, nil)

		report, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{
			MissionID: 42,
			TransformSpec: &transform.TransformSpec{Steps: []transform.TransformStep{
				{Type: "fillna", Column: "age"},
			}},
		})
		require.NoError(t, err)
		require.NotEmpty(t, report.RunID)

		run, err := recorder.GetRun(report.RunID)
		require.NoError(t, err)
		assert.Equal(t, "success", run.Status)
		assert.Equal(t, "摄取完成", run.Message)
		assert.Equal(t, "manual", run.Trigger)
		assert.Equal(t, 42, run.MissionID)
		assert.Equal(t, 3, run.RowCount)
		assert.Equal(t, 1, run.ColumnCount)
		assert.True(t, run.TransformApplied)
		require.NotNil(t, run.FinishedAt)
		assert.GreaterOrEqual(t, run.DurationMs, int64(0))
		assert.Contains(t, run.SchemaSnapshot, "stats")
	})

	t.Run("失败运行", func(t *testing.T) {
		testDB.CleanDB()
		fetcher, apexMock := newTestMocks()
		service := newTestService(fetcher, apexMock, recorder)

		apexMock.On("GetMission", mock.Anything, 42).Return(nil, errors.New("404: 资源不存在"))

		_, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{MissionID: 42})
		require.Error(t, err)

		runs, err := recorder.ListRuns("sales_2024", 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "failed", runs[0].Status)
		assert.Contains(t, runs[0].Message, "指定的任务 42 不可用")
	})
}

// TestIngestRecords 推送记录路径:跳过拉取,元数据标记推送来源
func TestIngestRecords(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	var gotContent string
	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
		Run(func(args mock.Arguments) { gotContent = args.String(2) }).
		Return(map[string]interface{}{"id": 8.0, "title": "t"}, nil)

	records := []map[string]interface{}{
		{"device": "sensor-1", "reading": 21.5},
		{"device": "sensor-2", "reading": 19.0},
	}
	report, err := service.IngestRecords(context.Background(), "telemetry", records, &IngestOptions{MissionID: 42})

	require.NoError(t, err)
	assert.Equal(t, 2, report.RowCount)
	assertMethodNotCalled(t, &fetcher.Mock, "FetchData")

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(gotContent), &doc))
	metadata := doc["metadata"].(map[string]interface{})
	assert.Equal(t, "push", metadata["ingest_mode"])
	assert.Equal(t, 2.0, metadata["record_count"])
	assert.Equal(t, "telemetry", metadata["source"])
}

// TestIngestRecords_EmptyBatch 空记录批次直接拒绝
func TestIngestRecords_EmptyBatch(t *testing.T) {
	fetcher, apexMock := newTestMocks()
	service := newTestService(fetcher, apexMock, nil)

	_, err := service.IngestRecords(context.Background(), "telemetry", nil, &IngestOptions{MissionID: 42})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "记录列表不能为空")
}

// TestIngestSource_DictionarySeeding 空字典自动登记推断字段,人工维护后不再覆盖
func TestIngestSource_DictionarySeeding(t *testing.T) {
	testDB := testutil.NewTestDB()
	defer testDB.Close()
	dict := dictionary.NewDictionaryService(testDB.DB)

	fetcher, apexMock := newTestMocks()
	service := NewIngestionService(&IngestionConfig{
		Aggregator:  fetcher,
		Apex:        apexMock,
		Interpreter: schema.NewInterpreter(nil),
		Transformer: transform.NewTransformer(),
		Dictionary:  dict,
	})

	apexMock.On("GetMission", mock.Anything, 42).Return(map[string]interface{}{"id": 42.0}, nil)
	fetcher.On("FetchData", mock.Anything, "sales_2024", mock.Anything).Return(sampleChunk(), nil)
	apexMock.On("AddDocument", mock.Anything, 42, mock.Anything, mock.Anything, true).
		Return(map[string]interface{}{"id": 7.0, "title": "t"}, nil)

	_, err := service.IngestSource(context.Background(), "sales_2024", &IngestOptions{MissionID: 42})
	require.NoError(t, err)

	fields, err := dict.ListFields("sales_2024")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "age", fields[0].Name)
	assert.Equal(t, "int64", fields[0].DataType)

	// 人工维护替换自动登记的条目后,再次摄取不得覆盖
	require.NoError(t, dict.UpsertDictionary("sales_2024", []models.FieldDefinition{
		{Name: "age", DisplayName: "年龄", DataType: "int64", Description: "人工说明"},
	}))
	_, err = service.IngestSource(context.Background(), "sales_2024", &IngestOptions{MissionID: 42})
	require.NoError(t, err)

	fields, err = dict.ListFields("sales_2024")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "人工说明", fields[0].Description)
}

// TestIngestToMissionDataset 数据源画像并创建引用式数据集
func TestIngestToMissionDataset(t *testing.T) {
	t.Run("画像携带数据集标识", func(t *testing.T) {
		fetcher, apexMock := newTestMocks()
		service := newTestService(fetcher, apexMock, nil)

		profile := map[string]interface{}{"dataset_id": "ds9", "row_count": 10.0}
		fetcher.On("ProfileSource", mock.Anything, "sales_2024").Return(profile, nil)
		apexMock.On("CreateMissionDataset", mock.Anything, 42, "sales_2024",
			mock.MatchedBy(func(sources []map[string]interface{}) bool {
				return len(sources) == 1 &&
					sources[0]["type"] == "aggregator_source" &&
					sources[0]["source_key"] == "sales_2024" &&
					sources[0]["aggregator_dataset_id"] == "ds9"
			}), profile).
			Return(map[string]interface{}{"id": 3.0, "name": "sales_2024"}, nil)

		dataset, err := service.IngestToMissionDataset(context.Background(), 42, "sales_2024", "")

		require.NoError(t, err)
		assert.Equal(t, "sales_2024", dataset["name"])
		apexMock.AssertExpectations(t)
	})

	t.Run("画像缺少标识时退回数据源标识", func(t *testing.T) {
		fetcher, apexMock := newTestMocks()
		service := newTestService(fetcher, apexMock, nil)

		fetcher.On("ProfileSource", mock.Anything, "sales_2024").
			Return(map[string]interface{}{"row_count": 10.0}, nil)
		apexMock.On("CreateMissionDataset", mock.Anything, 42, "季度数据集",
			mock.MatchedBy(func(sources []map[string]interface{}) bool {
				return sources[0]["aggregator_dataset_id"] == "sales_2024"
			}), mock.Anything).
			Return(map[string]interface{}{"id": 3.0}, nil)

		_, err := service.IngestToMissionDataset(context.Background(), 42, "sales_2024", "季度数据集")
		require.NoError(t, err)
		apexMock.AssertExpectations(t)
	})
}
