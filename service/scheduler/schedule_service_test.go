/*
 * @module service/scheduler/schedule_service_test
 * @description 摄取调度配置服务单元测试 - 表达式校验、增删改查与间隔到期判断
 * @architecture 测试层 - 内存SQLite验证持久化行为
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 建库 -> 配置操作 -> 查询断言
 * @rules 非法表达式不得落库;间隔到期判断只依赖传入时刻
 * @dependencies testing, testify, nexuscore-service/testutil
 * @refs schedule_service.go
 */

package scheduler

import (
	"errors"
	"testing"
	"time"

	"nexuscore-service/service/models"
	"nexuscore-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ScheduleServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	service *ScheduleService
	factory *testutil.TestDataFactory
}

func (suite *ScheduleServiceTestSuite) SetupSuite() {
	suite.testDB = testutil.NewTestDB()
	suite.service = NewScheduleService(suite.testDB.DB)
	suite.factory = testutil.NewTestDataFactory(suite.testDB.DB)
}

func (suite *ScheduleServiceTestSuite) TearDownSuite() {
	suite.testDB.Close()
}

func (suite *ScheduleServiceTestSuite) SetupTest() {
	suite.testDB.CleanDB()
}

func (suite *ScheduleServiceTestSuite) TestCreateSchedule_Cron() {
	schedule := &models.IngestionSchedule{
		Name:           "销售数据每日摄取",
		SourceKey:      "sales_2024",
		MissionName:    "销售数据分析",
		ScheduleType:   "cron",
		CronExpression: "0 0 2 * * *",
		Enabled:        true,
	}

	err := suite.service.CreateSchedule(schedule)

	suite.Require().NoError(err)
	suite.Len(schedule.ID, 36)

	stored, err := suite.service.GetSchedule(schedule.ID)
	suite.Require().NoError(err)
	suite.Equal("0 0 2 * * *", stored.CronExpression)
	suite.True(stored.Enabled)
}

func (suite *ScheduleServiceTestSuite) TestCreateSchedule_IntervalExpressions() {
	for _, expr := range []string{"1d", "12h", "90m", "1h30m"} {
		schedule := &models.IngestionSchedule{
			Name:         "间隔摄取_" + expr,
			SourceKey:    "sales_2024",
			MissionID:    42,
			ScheduleType: "interval",
			IntervalExpr: expr,
			Enabled:      true,
		}
		suite.NoError(suite.service.CreateSchedule(schedule), expr)
	}
}

func (suite *ScheduleServiceTestSuite) TestCreateSchedule_Validation() {
	tests := []struct {
		name     string
		schedule *models.IngestionSchedule
		wantErr  string
	}{
		{
			name:     "缺少名称",
			schedule: &models.IngestionSchedule{SourceKey: "s", MissionID: 1, ScheduleType: "cron", CronExpression: "0 * * * * *"},
			wantErr:  "调度名称不能为空",
		},
		{
			name:     "缺少数据源",
			schedule: &models.IngestionSchedule{Name: "n", MissionID: 1, ScheduleType: "cron", CronExpression: "0 * * * * *"},
			wantErr:  "数据源标识不能为空",
		},
		{
			name:     "缺少任务信息",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", ScheduleType: "cron", CronExpression: "0 * * * * *"},
			wantErr:  "必须指定mission_id或mission_name",
		},
		{
			name:     "cron缺少表达式",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", MissionID: 1, ScheduleType: "cron"},
			wantErr:  "cron调度缺少cron_expression",
		},
		{
			name:     "cron表达式无效",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", MissionID: 1, ScheduleType: "cron", CronExpression: "* * *"},
			wantErr:  "cron表达式无效",
		},
		{
			name:     "间隔缺少表达式",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", MissionID: 1, ScheduleType: "interval"},
			wantErr:  "间隔调度缺少interval_expr",
		},
		{
			name:     "间隔表达式无效",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", MissionID: 1, ScheduleType: "interval", IntervalExpr: "每天一次"},
			wantErr:  "间隔表达式无效",
		},
		{
			name:     "不支持的调度类型",
			schedule: &models.IngestionSchedule{Name: "n", SourceKey: "s", MissionID: 1, ScheduleType: "weekly"},
			wantErr:  "不支持的调度类型",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := suite.service.CreateSchedule(tt.schedule)
			suite.Require().Error(err)
			suite.Contains(err.Error(), tt.wantErr)
		})
	}
}

func (suite *ScheduleServiceTestSuite) TestUpdateSchedule() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	updated, err := suite.service.UpdateSchedule(schedule.ID, map[string]interface{}{
		"cron_expression": "0 30 3 * * *",
		"enabled":         false,
	})

	suite.Require().NoError(err)
	suite.Equal("0 30 3 * * *", updated.CronExpression)
	suite.False(updated.Enabled)
}

func (suite *ScheduleServiceTestSuite) TestUpdateSchedule_InvalidMerge() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	// 切换到间隔类型但不给间隔表达式,合并校验必须拦截
	_, err := suite.service.UpdateSchedule(schedule.ID, map[string]interface{}{
		"schedule_type": "interval",
	})

	suite.Require().Error(err)
	suite.Contains(err.Error(), "间隔调度缺少interval_expr")

	stored, err := suite.service.GetSchedule(schedule.ID)
	suite.Require().NoError(err)
	suite.Equal("cron", stored.ScheduleType)
}

func (suite *ScheduleServiceTestSuite) TestUpdateSchedule_ProtectedFields() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	updated, err := suite.service.UpdateSchedule(schedule.ID, map[string]interface{}{
		"id":   "new-id",
		"name": "改名后的调度",
	})

	suite.Require().NoError(err)
	suite.Equal(schedule.ID, updated.ID)
	suite.Equal("改名后的调度", updated.Name)
}

func (suite *ScheduleServiceTestSuite) TestDeleteSchedule() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	suite.Require().NoError(suite.service.DeleteSchedule(schedule.ID))

	_, err := suite.service.GetSchedule(schedule.ID)
	suite.True(errors.Is(err, gorm.ErrRecordNotFound))

	suite.True(errors.Is(suite.service.DeleteSchedule("missing"), gorm.ErrRecordNotFound))
}

func (suite *ScheduleServiceTestSuite) TestListSchedules() {
	suite.factory.CreateIngestionSchedule("alpha")
	suite.factory.CreateIngestionSchedule("beta", testutil.WithScheduleEnabled(false))

	all, err := suite.service.ListSchedules(false)
	suite.Require().NoError(err)
	suite.Len(all, 2)

	enabled, err := suite.service.ListSchedules(true)
	suite.Require().NoError(err)
	suite.Require().Len(enabled, 1)
	suite.Equal("alpha", enabled[0].SourceKey)
}

func (suite *ScheduleServiceTestSuite) TestSetEnabled() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	suite.Require().NoError(suite.service.SetEnabled(schedule.ID, false))

	stored, err := suite.service.GetSchedule(schedule.ID)
	suite.Require().NoError(err)
	suite.False(stored.Enabled)

	suite.True(errors.Is(suite.service.SetEnabled("missing", true), gorm.ErrRecordNotFound))
}

func (suite *ScheduleServiceTestSuite) TestMarkRun() {
	schedule := suite.factory.CreateIngestionSchedule("sales_2024")

	suite.Require().NoError(suite.service.MarkRun(schedule.ID, "success"))

	stored, err := suite.service.GetSchedule(schedule.ID)
	suite.Require().NoError(err)
	suite.Equal("success", stored.LastRunStatus)
	suite.Require().NotNil(stored.LastRunAt)
	suite.WithinDuration(time.Now(), *stored.LastRunAt, time.Minute)
}

func TestScheduleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ScheduleServiceTestSuite))
}

func TestShouldRunNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lastRecent := now.Add(-30 * time.Minute)
	lastStale := now.Add(-2 * time.Hour)

	tests := []struct {
		name     string
		schedule models.IngestionSchedule
		want     bool
	}{
		{
			name:     "从未运行过",
			schedule: models.IngestionSchedule{ScheduleType: "interval", IntervalExpr: "1h", Enabled: true},
			want:     true,
		},
		{
			name:     "间隔未到期",
			schedule: models.IngestionSchedule{ScheduleType: "interval", IntervalExpr: "1h", Enabled: true, LastRunAt: &lastRecent},
			want:     false,
		},
		{
			name:     "间隔已到期",
			schedule: models.IngestionSchedule{ScheduleType: "interval", IntervalExpr: "1h", Enabled: true, LastRunAt: &lastStale},
			want:     true,
		},
		{
			name:     "已停用",
			schedule: models.IngestionSchedule{ScheduleType: "interval", IntervalExpr: "1h", Enabled: false},
			want:     false,
		},
		{
			name:     "cron类型不参与间隔检查",
			schedule: models.IngestionSchedule{ScheduleType: "cron", CronExpression: "0 * * * * *", Enabled: true},
			want:     false,
		},
		{
			name:     "表达式损坏",
			schedule: models.IngestionSchedule{ScheduleType: "interval", IntervalExpr: "每小时", Enabled: true},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRunNow(&tt.schedule, now))
		})
	}
}

func TestIntervalOf(t *testing.T) {
	day, err := IntervalOf(&models.IngestionSchedule{IntervalExpr: "1d"})
	assert.NoError(t, err)
	assert.Equal(t, 24*time.Hour, day)

	mixed, err := IntervalOf(&models.IngestionSchedule{IntervalExpr: "1h30m"})
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Minute, mixed)

	_, err = IntervalOf(&models.IngestionSchedule{IntervalExpr: "后天"})
	assert.Error(t, err)
}

func TestOptionsFromSchedule(t *testing.T) {
	schedule := &models.IngestionSchedule{
		MissionID:       42,
		MissionName:     "销售数据分析",
		RunAnalysis:     true,
		AnalysisProfile: "humint",
		MaxRecords:      5000,
		TransformSpec: models.JSONBArray{
			{"type": "fillna", "column": "age"},
			{"type": "normalize", "column": "age"},
		},
	}

	opts, err := optionsFromSchedule(schedule)

	assert.NoError(t, err)
	assert.Equal(t, 42, opts.MissionID)
	assert.Equal(t, "销售数据分析", opts.MissionName)
	assert.True(t, opts.AutoAnalyze)
	assert.Equal(t, "humint", opts.AnalysisProfile)
	assert.Equal(t, 5000, opts.FetchLimit)
	assert.Equal(t, "schedule", opts.Trigger)
	assert.Len(t, opts.TransformSpec.Steps, 2)
	assert.Equal(t, "fillna", opts.TransformSpec.Steps[0].Type)
}

func TestOptionsFromSchedule_InvalidSpec(t *testing.T) {
	schedule := &models.IngestionSchedule{
		MissionID: 42,
		TransformSpec: models.JSONBArray{
			{"type": 123},
		},
	}

	_, err := optionsFromSchedule(schedule)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "调度的转换规格无效")
}
