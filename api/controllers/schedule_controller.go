/*
 * @module api/controllers/schedule_controller
 * @description 摄取调度控制器,提供调度配置CRUD、启停与手动触发API
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 调度配置变更后同步刷新调度器注册,手动触发同步执行并返回报告
 * @dependencies nexuscore-service/service/scheduler, github.com/go-chi/chi/v5
 * @refs service/scheduler/schedule_service.go, service/scheduler/scheduler_service.go
 */

package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"

	"nexuscore-service/service/models"
	"nexuscore-service/service/scheduler"
)

// ScheduleController 摄取调度控制器
type ScheduleController struct {
	scheduleService  *scheduler.ScheduleService
	schedulerService *scheduler.SchedulerService
}

// NewScheduleController 创建摄取调度控制器实例,schedulerService可为nil(调度器未启动时)
func NewScheduleController(scheduleService *scheduler.ScheduleService, schedulerService *scheduler.SchedulerService) *ScheduleController {
	return &ScheduleController{
		scheduleService:  scheduleService,
		schedulerService: schedulerService,
	}
}

// CreateSchedule 创建调度配置
// @Summary 创建调度配置
// @Description 创建数据源的定时摄取调度,支持cron表达式与固定间隔
// @Tags 摄取调度
// @Accept json
// @Produce json
// @Param schedule body models.IngestionSchedule true "调度配置"
// @Success 200 {object} APIResponse{data=models.IngestionSchedule} "创建成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /schedules [post]
func (c *ScheduleController) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule models.IngestionSchedule
	if err := render.DecodeJSON(r.Body, &schedule); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	if err := c.scheduleService.CreateSchedule(&schedule); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "创建调度失败", err))
		return
	}

	if c.schedulerService != nil {
		if err := c.schedulerService.AddSchedule(&schedule); err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, InternalErrorResponse("注册调度失败", err))
			return
		}
	}

	render.JSON(w, r, SuccessResponse("创建调度成功", schedule))
}

// ListSchedules 获取调度配置列表
// @Summary 获取调度配置列表
// @Description 列出全部调度配置,可仅保留启用的调度
// @Tags 摄取调度
// @Produce json
// @Param enabled_only query bool false "仅返回启用的调度" default(false)
// @Success 200 {object} APIResponse{data=[]models.IngestionSchedule} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /schedules [get]
func (c *ScheduleController) ListSchedules(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled_only") == "true"

	schedules, err := c.scheduleService.ListSchedules(enabledOnly)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取调度列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取调度列表成功", schedules))
}

// GetSchedule 获取调度配置详情
// @Summary 获取调度配置详情
// @Description 按ID获取调度配置
// @Tags 摄取调度
// @Produce json
// @Param id path string true "调度ID"
// @Success 200 {object} APIResponse{data=models.IngestionSchedule} "获取成功"
// @Failure 404 {object} APIResponse "调度不存在"
// @Router /schedules/{id} [get]
func (c *ScheduleController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	schedule, err := c.scheduleService.GetSchedule(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "调度不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取调度失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取调度成功", schedule))
}

// UpdateSchedule 更新调度配置
// @Summary 更新调度配置
// @Description 部分更新调度配置并刷新调度器注册
// @Tags 摄取调度
// @Accept json
// @Produce json
// @Param id path string true "调度ID"
// @Param updates body map[string]interface{} true "更新字段"
// @Success 200 {object} APIResponse{data=models.IngestionSchedule} "更新成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 404 {object} APIResponse "调度不存在"
// @Router /schedules/{id} [put]
func (c *ScheduleController) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var updates map[string]interface{}
	if err := render.DecodeJSON(r.Body, &updates); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	schedule, err := c.scheduleService.UpdateSchedule(id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "调度不存在", nil))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "更新调度失败", err))
		return
	}

	c.reloadScheduler()
	render.JSON(w, r, SuccessResponse("更新调度成功", schedule))
}

// DeleteSchedule 删除调度配置
// @Summary 删除调度配置
// @Description 删除调度配置并刷新调度器注册
// @Tags 摄取调度
// @Produce json
// @Param id path string true "调度ID"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "调度不存在"
// @Router /schedules/{id} [delete]
func (c *ScheduleController) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := c.scheduleService.DeleteSchedule(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "调度不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("删除调度失败", err))
		return
	}

	c.reloadScheduler()
	render.JSON(w, r, SuccessResponse("删除调度成功", nil))
}

// SetScheduleStatus 启用或停用调度
// @Summary 启用或停用调度
// @Description 切换调度启用状态并刷新调度器注册
// @Tags 摄取调度
// @Accept json
// @Produce json
// @Param id path string true "调度ID"
// @Param request body CredentialStatusRequest true "启停请求"
// @Success 200 {object} APIResponse "操作成功"
// @Failure 404 {object} APIResponse "调度不存在"
// @Router /schedules/{id}/status [put]
func (c *ScheduleController) SetScheduleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CredentialStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	if err := c.scheduleService.SetEnabled(id, req.Enabled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "调度不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("更新调度状态失败", err))
		return
	}

	c.reloadScheduler()

	msg := "调度已启用"
	if !req.Enabled {
		msg = "调度已停用"
	}
	render.JSON(w, r, SuccessResponse(msg, nil))
}

// TriggerSchedule 手动触发调度
// @Summary 手动触发调度
// @Description 立即同步执行一次调度摄取并返回摄取报告
// @Tags 摄取调度
// @Produce json
// @Param id path string true "调度ID"
// @Success 200 {object} APIResponse{data=ingestion.IngestionReport} "触发成功"
// @Failure 404 {object} APIResponse "调度不存在"
// @Failure 409 {object} APIResponse "调度正在执行"
// @Router /schedules/{id}/trigger [post]
func (c *ScheduleController) TriggerSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if c.schedulerService == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "调度器未启动", nil))
		return
	}

	report, err := c.schedulerService.TriggerNow(id)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("触发调度失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("触发调度成功", report))
}

// reloadScheduler 调度配置变更后刷新调度器的cron注册。
// 配置已落库,刷新失败只记录日志不影响响应
func (c *ScheduleController) reloadScheduler() {
	if c.schedulerService == nil {
		return
	}
	if err := c.schedulerService.ReloadSchedules(); err != nil {
		slog.Error("刷新调度器注册失败", "error", err)
	}
}
