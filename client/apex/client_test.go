package apex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&Config{BaseURL: baseURL, Timeout: 5 * time.Second})
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{
			name:        "404携带服务端detail",
			status:      http.StatusNotFound,
			body:        `{"detail":"Mission not found"}`,
			wantKind:    ErrKindNotFound,
			wantMessage: "Mission not found",
		},
		{
			name:        "404无detail使用默认消息",
			status:      http.StatusNotFound,
			body:        `{}`,
			wantKind:    ErrKindNotFound,
			wantMessage: "资源不存在",
		},
		{
			name:        "422校验错误",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","name"],"msg":"field required"}]}`,
			wantKind:    ErrKindValidation,
			wantMessage: "请求校验失败",
		},
		{
			name:        "503服务端错误",
			status:      http.StatusServiceUnavailable,
			body:        `{"detail":"upstream down"}`,
			wantKind:    ErrKindServer,
			wantMessage: "upstream down",
		},
		{
			name:        "400其他API错误",
			status:      http.StatusBadRequest,
			body:        `not json`,
			wantKind:    ErrKindAPI,
			wantMessage: "not json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).GetMission(context.Background(), 1)

			require.Error(t, err)
			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Message, tt.wantMessage)
			assert.NotNil(t, apiErr.Details)
		})
	}
}

func TestConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := newTestClient(baseURL).ListMissions(context.Background())

	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "传输层失败应归类为连接错误")
	apiErr, _ := AsAPIError(err)
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestCreateMissionPayload(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"name":"销售数据分析"}`))
	}))
	defer server.Close()

	mission, err := newTestClient(server.URL).CreateMission(context.Background(), "销售数据分析", "")

	require.NoError(t, err)
	assert.Equal(t, float64(7), mission["id"])
	assert.Equal(t, "销售数据分析", gotBody["name"])
	val, exists := gotBody["description"]
	assert.True(t, exists, "description字段应始终存在")
	assert.Nil(t, val, "空描述应以null透传")
}

func TestAnalyzeMissionDefaultProfile(t *testing.T) {
	var gotProfile string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotProfile = r.URL.Query().Get("profile")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":3,"status":"queued"}`))
	}))
	defer server.Close()

	run, err := newTestClient(server.URL).AnalyzeMission(context.Background(), 42, "")

	require.NoError(t, err)
	assert.Equal(t, "/missions/42/analyze", gotPath)
	assert.Equal(t, "humint", gotProfile, "未指定时使用默认分析视角")
	assert.Equal(t, "queued", run["status"])
}

func TestCreateMissionDatasetPayload(t *testing.T) {
	t.Run("profile为nil时省略", func(t *testing.T) {
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &gotBody)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":11,"mission_id":42,"status":"pending"}`))
		}))
		defer server.Close()

		sources := []map[string]interface{}{
			{"type": "aggregator_source", "source_key": "sales_2024", "aggregator_dataset_id": "ds_001"},
		}
		dataset, err := newTestClient(server.URL).CreateMissionDataset(context.Background(), 42, "sales_2024", sources, nil)

		require.NoError(t, err)
		assert.Equal(t, float64(11), dataset["id"])
		assert.Equal(t, "sales_2024", gotBody["name"])
		assert.Len(t, gotBody["sources"], 1)
		_, exists := gotBody["profile"]
		assert.False(t, exists, "profile为nil时载荷中不应出现")
	})

	t.Run("profile非nil时包含", func(t *testing.T) {
		var gotBody map[string]interface{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			json.Unmarshal(raw, &gotBody)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":12}`))
		}))
		defer server.Close()

		profile := map[string]interface{}{"fields": []interface{}{"id", "amount"}}
		_, err := newTestClient(server.URL).CreateMissionDataset(context.Background(), 42, "sales_2024", nil, profile)

		require.NoError(t, err)
		assert.Contains(t, gotBody, "profile")
	})
}

func TestListMissions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"任务一"},{"id":2,"name":"任务二"}]`))
	}))
	defer server.Close()

	missions, err := newTestClient(server.URL).ListMissions(context.Background())

	require.NoError(t, err)
	require.Len(t, missions, 2)
	assert.Equal(t, "任务一", missions[0]["name"])
}
