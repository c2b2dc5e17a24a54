/*
 * @module api/controllers/schedule_controller_test
 * @description 摄取调度控制器单元测试 - 调度CRUD、启停与手动触发接口
 * @architecture 测试层 - 内存SQLite + 直接调用控制器方法
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试数据准备 -> 请求构建 -> 响应与落库断言
 * @rules 调度器未启动时控制器必须可用,触发接口返回503
 * @dependencies testing, net/http/httptest, stretchr/testify, nexuscore-service/testutil
 * @refs schedule_controller.go
 */

package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexuscore-service/service/models"
	"nexuscore-service/service/scheduler"
	"nexuscore-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newScheduleTestController 构建调度控制器测试环境,调度器未启动
func newScheduleTestController(t *testing.T) (*ScheduleController, *testutil.TestDataFactory) {
	t.Helper()
	testDB := testutil.NewTestDB()
	t.Cleanup(testDB.Close)

	scheduleService := scheduler.NewScheduleService(testDB.DB)
	return NewScheduleController(scheduleService, nil), testutil.NewTestDataFactory(testDB.DB)
}

// ===================== 调度CRUD测试 =====================

// TestCreateScheduleAPI 创建cron调度
func TestCreateScheduleAPI(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	w := postJSON(t, controller.CreateSchedule, "/schedules", models.IngestionSchedule{
		Name:           "销售数据每日摄取",
		SourceKey:      "sales_2024",
		MissionName:    "销售数据分析任务",
		ScheduleType:   "cron",
		CronExpression: "0 0 2 * * *",
		Enabled:        true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "销售数据每日摄取", data["name"])
}

// TestCreateScheduleAPI_Validation 调度配置校验
func TestCreateScheduleAPI_Validation(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	testCases := []struct {
		name     string
		schedule models.IngestionSchedule
	}{
		{
			name: "缺少调度名称",
			schedule: models.IngestionSchedule{
				SourceKey:      "sales_2024",
				MissionName:    "销售数据分析任务",
				ScheduleType:   "cron",
				CronExpression: "0 0 2 * * *",
			},
		},
		{
			name: "缺少数据源标识",
			schedule: models.IngestionSchedule{
				Name:           "销售数据每日摄取",
				MissionName:    "销售数据分析任务",
				ScheduleType:   "cron",
				CronExpression: "0 0 2 * * *",
			},
		},
		{
			name: "缺少任务信息",
			schedule: models.IngestionSchedule{
				Name:           "销售数据每日摄取",
				SourceKey:      "sales_2024",
				ScheduleType:   "cron",
				CronExpression: "0 0 2 * * *",
			},
		},
		{
			name: "cron调度缺少表达式",
			schedule: models.IngestionSchedule{
				Name:         "销售数据每日摄取",
				SourceKey:    "sales_2024",
				MissionName:  "销售数据分析任务",
				ScheduleType: "cron",
			},
		},
		{
			name: "cron表达式无效",
			schedule: models.IngestionSchedule{
				Name:           "销售数据每日摄取",
				SourceKey:      "sales_2024",
				MissionName:    "销售数据分析任务",
				ScheduleType:   "cron",
				CronExpression: "not a cron",
			},
		},
		{
			name: "不支持的调度类型",
			schedule: models.IngestionSchedule{
				Name:         "销售数据每日摄取",
				SourceKey:    "sales_2024",
				MissionName:  "销售数据分析任务",
				ScheduleType: "hourly",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, controller.CreateSchedule, "/schedules", tc.schedule)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			response := decodeResponse(t, w)
			assert.Contains(t, response.Msg, "创建调度失败")
		})
	}
}

// TestCreateScheduleAPI_InvalidJSON 非法请求体返回400
func TestCreateScheduleAPI_InvalidJSON(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	req := httptest.NewRequest(http.MethodPost, "/schedules", bytes.NewBufferString("{invalid"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	controller.CreateSchedule(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "请求参数格式错误")
}

// TestListSchedulesAPI 调度列表与enabled_only过滤
func TestListSchedulesAPI(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	factory.CreateIngestionSchedule("sales_2024")
	factory.CreateIngestionSchedule("sensor_stream")
	factory.CreateIngestionSchedule("archived_source", testutil.WithScheduleEnabled(false))

	req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	w := httptest.NewRecorder()

	controller.ListSchedules(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	schedules, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, schedules, 3)

	// 仅启用的调度
	req = httptest.NewRequest(http.MethodGet, "/schedules?enabled_only=true", nil)
	w = httptest.NewRecorder()

	controller.ListSchedules(w, req)

	response = decodeResponse(t, w)
	schedules, ok = response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, schedules, 2)
}

// TestGetScheduleAPI 获取调度详情
func TestGetScheduleAPI(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/schedules/"+schedule.ID, nil),
		map[string]string{"id": schedule.ID})
	w := httptest.NewRecorder()

	controller.GetSchedule(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, schedule.ID, data["id"])
	assert.Equal(t, "sales_2024", data["source_key"])
}

// TestGetScheduleAPI_NotFound 调度不存在返回404
func TestGetScheduleAPI_NotFound(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/schedules/missing", nil),
		map[string]string{"id": "missing"})
	w := httptest.NewRecorder()

	controller.GetSchedule(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "调度不存在")
}

// TestUpdateScheduleAPI 部分更新调度配置
func TestUpdateScheduleAPI(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	w := postJSON(t, func(w http.ResponseWriter, r *http.Request) {
		controller.UpdateSchedule(w, withURLParams(r, map[string]string{"id": schedule.ID}))
	}, "/schedules/"+schedule.ID, map[string]interface{}{
		"name":            "改名后的调度",
		"cron_expression": "0 30 3 * * *",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "改名后的调度", data["name"])
	assert.Equal(t, "0 30 3 * * *", data["cron_expression"])
}

// TestUpdateScheduleAPI_InvalidSpec 更新后的调度规格必须仍然合法
func TestUpdateScheduleAPI_InvalidSpec(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	// 切换为间隔调度但未提供间隔表达式
	w := postJSON(t, func(w http.ResponseWriter, r *http.Request) {
		controller.UpdateSchedule(w, withURLParams(r, map[string]string{"id": schedule.ID}))
	}, "/schedules/"+schedule.ID, map[string]interface{}{
		"schedule_type": "interval",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "更新调度失败")
}

// TestUpdateScheduleAPI_NotFound 调度不存在返回404
func TestUpdateScheduleAPI_NotFound(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	w := postJSON(t, func(w http.ResponseWriter, r *http.Request) {
		controller.UpdateSchedule(w, withURLParams(r, map[string]string{"id": "missing"}))
	}, "/schedules/missing", map[string]interface{}{"name": "改名"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestDeleteScheduleAPI 删除调度,重复删除返回404
func TestDeleteScheduleAPI(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/schedules/"+schedule.ID, nil),
		map[string]string{"id": schedule.ID})
	w := httptest.NewRecorder()

	controller.DeleteSchedule(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/schedules/"+schedule.ID, nil),
		map[string]string{"id": schedule.ID})
	w = httptest.NewRecorder()

	controller.DeleteSchedule(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===================== 启停与触发测试 =====================

// TestSetScheduleStatusAPI 停用调度后不再出现在启用列表
func TestSetScheduleStatusAPI(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	w := postJSON(t, func(w http.ResponseWriter, r *http.Request) {
		controller.SetScheduleStatus(w, withURLParams(r, map[string]string{"id": schedule.ID}))
	}, "/schedules/"+schedule.ID+"/status", CredentialStatusRequest{Enabled: false})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, "调度已停用", response.Msg)

	req := httptest.NewRequest(http.MethodGet, "/schedules?enabled_only=true", nil)
	listRecorder := httptest.NewRecorder()

	controller.ListSchedules(listRecorder, req)

	listResponse := decodeResponse(t, listRecorder)
	schedules, ok := listResponse.Data.([]interface{})
	require.True(t, ok)
	assert.Empty(t, schedules)
}

// TestSetScheduleStatusAPI_NotFound 调度不存在返回404
func TestSetScheduleStatusAPI_NotFound(t *testing.T) {
	controller, _ := newScheduleTestController(t)

	w := postJSON(t, func(w http.ResponseWriter, r *http.Request) {
		controller.SetScheduleStatus(w, withURLParams(r, map[string]string{"id": "missing"}))
	}, "/schedules/missing/status", CredentialStatusRequest{Enabled: false})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestTriggerScheduleAPI_SchedulerDown 调度器未启动时触发返回503
func TestTriggerScheduleAPI_SchedulerDown(t *testing.T) {
	controller, factory := newScheduleTestController(t)
	schedule := factory.CreateIngestionSchedule("sales_2024")

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/schedules/"+schedule.ID+"/trigger", nil),
		map[string]string{"id": schedule.ID})
	w := httptest.NewRecorder()

	controller.TriggerSchedule(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "调度器未启动")
}
