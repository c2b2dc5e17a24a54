/*
 * @module api/controllers/ingestion_controller
 * @description 摄取编排控制器,提供数据源摄取、记录摄取、数据集装配、
 *              运行历史查询、推送接入与推送凭证管理API
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules API触发的摄取按manual记账;推送接口按source_key路由且需凭证鉴权
 * @dependencies nexuscore-service/service/ingestion, github.com/go-chi/chi/v5
 * @refs service/ingestion/ingestion_service.go, api/middleware/push_auth.go
 */

package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"

	"nexuscore-service/service/ingestion"
	"nexuscore-service/service/meta"
)

// TokenCacheInvalidator 推送令牌缓存失效能力,由推送鉴权中间件实现
type TokenCacheInvalidator interface {
	InvalidateSource(sourceKey string)
}

// IngestionController 摄取编排控制器
type IngestionController struct {
	ingestionService *ingestion.IngestionService
	recorder         *ingestion.RunRecorder
	intake           *ingestion.Intake
	credentials      *ingestion.CredentialService
	tokenCache       TokenCacheInvalidator
}

// NewIngestionController 创建摄取编排控制器实例,tokenCache可为nil
func NewIngestionController(
	ingestionService *ingestion.IngestionService,
	recorder *ingestion.RunRecorder,
	intake *ingestion.Intake,
	credentials *ingestion.CredentialService,
	tokenCache TokenCacheInvalidator,
) *IngestionController {
	return &IngestionController{
		ingestionService: ingestionService,
		recorder:         recorder,
		intake:           intake,
		credentials:      credentials,
		tokenCache:       tokenCache,
	}
}

// IngestSourceRequest 数据源摄取请求
type IngestSourceRequest struct {
	SourceName string `json:"source_name"`
	ingestion.IngestOptions
}

// IngestRecordsRequest 记录批次摄取请求
type IngestRecordsRequest struct {
	SourceKey string                   `json:"source_key"`
	Records   []map[string]interface{} `json:"records"`
	ingestion.IngestOptions
}

// MissionDatasetRequest 任务数据集装配请求
type MissionDatasetRequest struct {
	MissionID   int    `json:"mission_id"`
	SourceKey   string `json:"source_key"`
	DatasetName string `json:"dataset_name"`
}

// IssueCredentialRequest 推送凭证签发请求
type IssueCredentialRequest struct {
	SourceKey   string `json:"source_key"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// CredentialStatusRequest 推送凭证启停请求
type CredentialStatusRequest struct {
	Enabled bool `json:"enabled"`
}

// IngestSource 摄取数据源
// @Summary 摄取数据源
// @Description 从聚合服务拉取数据源数据,转换后装配进任务并可触发分析
// @Tags 摄取编排
// @Accept json
// @Produce json
// @Param request body IngestSourceRequest true "摄取请求"
// @Success 200 {object} APIResponse{data=ingestion.IngestionReport} "摄取成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /ingestion/ingest [post]
func (c *IngestionController) IngestSource(w http.ResponseWriter, r *http.Request) {
	var req IngestSourceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.SourceName == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "数据源名称不能为空", nil))
		return
	}

	opts := req.IngestOptions
	opts.Trigger = meta.IngestTriggerManual

	report, err := c.ingestionService.IngestSource(r.Context(), req.SourceName, &opts)
	if err != nil {
		renderAggregatorError(w, r, "摄取数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("摄取数据源成功", report))
}

// IngestRecords 摄取记录批次
// @Summary 摄取记录批次
// @Description 将请求携带的记录批次立即送入摄取流程
// @Tags 摄取编排
// @Accept json
// @Produce json
// @Param request body IngestRecordsRequest true "记录摄取请求"
// @Success 200 {object} APIResponse{data=ingestion.IngestionReport} "摄取成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /ingestion/records [post]
func (c *IngestionController) IngestRecords(w http.ResponseWriter, r *http.Request) {
	var req IngestRecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.SourceKey == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "数据源标识不能为空", nil))
		return
	}
	if len(req.Records) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "记录列表不能为空", nil))
		return
	}

	opts := req.IngestOptions
	opts.Trigger = meta.IngestTriggerManual

	report, err := c.ingestionService.IngestRecords(r.Context(), req.SourceKey, req.Records, &opts)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("摄取记录批次失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("摄取记录批次成功", report))
}

// CreateMissionDataset 装配任务数据集
// @Summary 装配任务数据集
// @Description 以数据源画像为依据在任务下创建数据集
// @Tags 摄取编排
// @Accept json
// @Produce json
// @Param request body MissionDatasetRequest true "数据集装配请求"
// @Success 200 {object} APIResponse "装配成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /ingestion/datasets [post]
func (c *IngestionController) CreateMissionDataset(w http.ResponseWriter, r *http.Request) {
	var req MissionDatasetRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.MissionID <= 0 || req.SourceKey == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "任务ID与数据源标识不能为空", nil))
		return
	}

	dataset, err := c.ingestionService.IngestToMissionDataset(r.Context(), req.MissionID, req.SourceKey, req.DatasetName)
	if err != nil {
		renderAggregatorError(w, r, "装配任务数据集失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("装配任务数据集成功", dataset))
}

// ListRuns 查询摄取运行记录
// @Summary 查询摄取运行记录
// @Description 按开始时间倒序查询摄取运行记录,可按数据源过滤
// @Tags 摄取编排
// @Produce json
// @Param source_key query string false "数据源标识"
// @Param limit query int false "返回条数上限" default(50)
// @Success 200 {object} APIResponse{data=[]models.IngestionRun} "查询成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /ingestion/runs [get]
func (c *IngestionController) ListRuns(w http.ResponseWriter, r *http.Request) {
	sourceKey := r.URL.Query().Get("source_key")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := c.recorder.ListRuns(sourceKey, limit)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询运行记录失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询运行记录成功", runs))
}

// GetRun 获取摄取运行详情
// @Summary 获取摄取运行详情
// @Description 按运行ID获取摄取运行记录
// @Tags 摄取编排
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse{data=models.IngestionRun} "获取成功"
// @Failure 404 {object} APIResponse "运行记录不存在"
// @Router /ingestion/runs/{id} [get]
func (c *IngestionController) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := c.recorder.GetRun(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "运行记录不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("查询运行记录失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取运行记录成功", run))
}

// PushRecords 推送记录到缓冲区
// @Summary 推送记录到缓冲区
// @Description 外部系统推送记录批次,缓冲达到阈值或周期后批量摄取。
// @Description 请求体为JSON对象数组,或携带records字段的JSON对象
// @Tags 推送接入
// @Accept json
// @Produce json
// @Param source_key path string true "数据源标识"
// @Success 200 {object} APIResponse "推送成功"
// @Failure 400 {object} APIResponse "请求体格式错误"
// @Failure 401 {object} APIResponse "推送令牌无效"
// @Router /ingestion/push/{source_key} [post]
func (c *IngestionController) PushRecords(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "读取请求体失败", err))
		return
	}

	records, err := decodePushPayload(body)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求体格式错误", err))
		return
	}

	buffered := c.intake.Push(sourceKey, records)
	render.JSON(w, r, SuccessResponse("推送成功", map[string]interface{}{
		"source_key": sourceKey,
		"accepted":   len(records),
		"buffered":   buffered,
	}))
}

// decodePushPayload 解析推送请求体,接受对象数组或携带records字段的对象
func decodePushPayload(body []byte) ([]map[string]interface{}, error) {
	var wrapper struct {
		Records []map[string]interface{} `json:"records"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && len(wrapper.Records) > 0 {
		return wrapper.Records, nil
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(body, &records); err == nil && len(records) > 0 {
		return records, nil
	}

	var single map[string]interface{}
	if err := json.Unmarshal(body, &single); err == nil && len(single) > 0 {
		if _, hasRecords := single["records"]; !hasRecords {
			return []map[string]interface{}{single}, nil
		}
	}

	return nil, errors.New("请求体必须是JSON对象数组,或携带非空records字段的JSON对象")
}

// FlushPush 立即下发数据源缓冲
// @Summary 立即下发数据源缓冲
// @Description 跳过阈值与周期,立即将数据源的缓冲记录送入摄取流程
// @Tags 推送接入
// @Produce json
// @Param source_key path string true "数据源标识"
// @Success 200 {object} APIResponse "下发成功"
// @Failure 401 {object} APIResponse "推送令牌无效"
// @Router /ingestion/push/{source_key}/flush [post]
func (c *IngestionController) FlushPush(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	buffered := c.intake.BufferedCount(sourceKey)
	c.intake.FlushSource(sourceKey)

	render.JSON(w, r, SuccessResponse("缓冲下发完成", map[string]interface{}{
		"source_key": sourceKey,
		"flushed":    buffered,
	}))
}

// GetIntakeStatus 获取推送缓冲状态
// @Summary 获取推送缓冲状态
// @Description 获取全部数据源的当前缓冲条数
// @Tags 推送接入
// @Produce json
// @Success 200 {object} APIResponse "获取成功"
// @Router /ingestion/intake/status [get]
func (c *IngestionController) GetIntakeStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取缓冲状态成功", map[string]interface{}{
		"buffers": c.intake.BufferedCounts(),
	}))
}

// ConfigureIntake 配置数据源的推送摄取选项
// @Summary 配置数据源的推送摄取选项
// @Description 设置数据源缓冲下发时使用的任务与转换选项
// @Tags 推送接入
// @Accept json
// @Produce json
// @Param source_key path string true "数据源标识"
// @Param options body ingestion.IngestOptions true "摄取选项"
// @Success 200 {object} APIResponse "配置成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /ingestion/intake/{source_key}/options [put]
func (c *IngestionController) ConfigureIntake(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	var opts ingestion.IngestOptions
	if err := render.DecodeJSON(r.Body, &opts); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	opts.Trigger = meta.IngestTriggerPush
	c.intake.Configure(sourceKey, opts)

	render.JSON(w, r, SuccessResponse("配置推送摄取选项成功", nil))
}

// IssueCredential 签发推送凭证
// @Summary 签发推送凭证
// @Description 为数据源签发推送令牌,明文令牌仅本次响应返回
// @Tags 推送接入
// @Accept json
// @Produce json
// @Param request body IssueCredentialRequest true "签发请求"
// @Success 200 {object} APIResponse "签发成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /ingestion/credentials [post]
func (c *IngestionController) IssueCredential(w http.ResponseWriter, r *http.Request) {
	var req IssueCredentialRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = "system"
	}

	credential, token, err := c.credentials.IssueCredential(req.SourceKey, req.Description, req.CreatedBy)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "签发推送凭证失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("签发推送凭证成功,请妥善保存令牌,仅本次返回", map[string]interface{}{
		"credential": credential,
		"token":      token,
	}))
}

// RotateCredential 轮换推送凭证
// @Summary 轮换推送凭证
// @Description 为数据源生成新推送令牌,旧令牌立即失效
// @Tags 推送接入
// @Produce json
// @Param source_key path string true "数据源标识"
// @Success 200 {object} APIResponse "轮换成功"
// @Failure 404 {object} APIResponse "凭证不存在"
// @Router /ingestion/credentials/{source_key}/rotate [post]
func (c *IngestionController) RotateCredential(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	token, err := c.credentials.RotateCredential(sourceKey)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingestion.ErrCredentialNotFound) {
			status = http.StatusNotFound
		}
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse(status, "轮换推送凭证失败", err))
		return
	}

	c.invalidateTokenCache(sourceKey)
	render.JSON(w, r, SuccessResponse("轮换推送凭证成功,请妥善保存令牌,仅本次返回", map[string]interface{}{
		"source_key": sourceKey,
		"token":      token,
	}))
}

// ListCredentials 获取推送凭证列表
// @Summary 获取推送凭证列表
// @Description 列出全部数据源推送凭证,不含令牌内容
// @Tags 推送接入
// @Produce json
// @Success 200 {object} APIResponse{data=[]models.SourcePushCredential} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /ingestion/credentials [get]
func (c *IngestionController) ListCredentials(w http.ResponseWriter, r *http.Request) {
	credentials, err := c.credentials.ListCredentials()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取推送凭证列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取推送凭证列表成功", credentials))
}

// SetCredentialStatus 启用或停用推送凭证
// @Summary 启用或停用推送凭证
// @Description 停用后该数据源的推送请求将被拒绝
// @Tags 推送接入
// @Accept json
// @Produce json
// @Param source_key path string true "数据源标识"
// @Param request body CredentialStatusRequest true "启停请求"
// @Success 200 {object} APIResponse "操作成功"
// @Failure 404 {object} APIResponse "凭证不存在"
// @Router /ingestion/credentials/{source_key}/status [put]
func (c *IngestionController) SetCredentialStatus(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	var req CredentialStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	if err := c.credentials.SetEnabled(sourceKey, req.Enabled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "推送凭证不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("更新推送凭证状态失败", err))
		return
	}

	if !req.Enabled {
		c.invalidateTokenCache(sourceKey)
	}

	msg := "推送凭证已启用"
	if !req.Enabled {
		msg = "推送凭证已停用"
	}
	render.JSON(w, r, SuccessResponse(msg, nil))
}

// DeleteCredential 删除推送凭证
// @Summary 删除推送凭证
// @Description 删除数据源的推送凭证,其推送请求将被拒绝
// @Tags 推送接入
// @Produce json
// @Param source_key path string true "数据源标识"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "凭证不存在"
// @Router /ingestion/credentials/{source_key} [delete]
func (c *IngestionController) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	if err := c.credentials.DeleteCredential(sourceKey); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "推送凭证不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("删除推送凭证失败", err))
		return
	}

	c.invalidateTokenCache(sourceKey)
	render.JSON(w, r, SuccessResponse("删除推送凭证成功", nil))
}

func (c *IngestionController) invalidateTokenCache(sourceKey string) {
	if c.tokenCache != nil {
		c.tokenCache.InvalidateSource(sourceKey)
	}
}
