/*
 * @module api/controllers/source_controller
 * @description 数据源管理控制器,代理聚合服务的数据源注册、健康、画像、
 *              预览、上传与服务端转换接口
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 聚合服务错误按错误类别映射HTTP状态码;上传的文本文件统一转码UTF-8
 * @dependencies nexuscore-service/client/aggregator, github.com/go-chi/chi/v5
 * @refs client/aggregator/client.go, service/utils/data_converter.go
 */

package controllers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nexuscore-service/client/aggregator"
	"nexuscore-service/service/utils"
)

// maxUploadSize 上传文件大小上限,100MB
const maxUploadSize = 100 << 20

// SourceController 数据源管理控制器
type SourceController struct {
	aggregator *aggregator.Client
	converter  *utils.DataConverter
}

// NewSourceController 创建数据源管理控制器实例
func NewSourceController(aggregatorClient *aggregator.Client) *SourceController {
	return &SourceController{
		aggregator: aggregatorClient,
		converter:  utils.NewDataConverter(),
	}
}

// statusFromAggregatorError 按聚合服务错误类别映射HTTP状态码
func statusFromAggregatorError(err error) int {
	switch {
	case aggregator.IsNotFoundError(err):
		return http.StatusNotFound
	case aggregator.IsAuthenticationError(err):
		return http.StatusUnauthorized
	case aggregator.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case aggregator.IsConnectionError(err), aggregator.IsServerError(err):
		return http.StatusBadGateway
	}
	if apiErr, ok := aggregator.AsAPIError(err); ok && apiErr.Kind == aggregator.ErrKindValidation {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// renderAggregatorError 输出聚合服务错误响应
func renderAggregatorError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFromAggregatorError(err)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse(status, msg, err))
}

// ListSources 获取数据源列表
// @Summary 获取数据源列表
// @Description 列出聚合服务中已注册的全部数据源
// @Tags 数据源管理
// @Produce json
// @Success 200 {object} APIResponse{data=[]aggregator.SourceConfig} "获取成功"
// @Failure 502 {object} APIResponse "聚合服务不可用"
// @Router /sources [get]
func (c *SourceController) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := c.aggregator.ListSources(r.Context())
	if err != nil {
		renderAggregatorError(w, r, "获取数据源列表失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("获取数据源列表成功", sources))
}

// CreateSource 注册数据源
// @Summary 注册数据源
// @Description 在聚合服务中注册新数据源
// @Tags 数据源管理
// @Accept json
// @Produce json
// @Param source body aggregator.SourceConfig true "数据源配置"
// @Success 200 {object} APIResponse{data=aggregator.SourceConfig} "注册成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /sources [post]
func (c *SourceController) CreateSource(w http.ResponseWriter, r *http.Request) {
	var config aggregator.SourceConfig
	if err := render.DecodeJSON(r.Body, &config); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if config.Name == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "数据源名称不能为空", nil))
		return
	}

	created, err := c.aggregator.CreateSource(r.Context(), &config)
	if err != nil {
		renderAggregatorError(w, r, "注册数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("注册数据源成功", created))
}

// GetSource 获取数据源详情
// @Summary 获取数据源详情
// @Description 获取指定数据源的配置
// @Tags 数据源管理
// @Produce json
// @Param name path string true "数据源名称"
// @Success 200 {object} APIResponse{data=aggregator.SourceConfig} "获取成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name} [get]
func (c *SourceController) GetSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	source, err := c.aggregator.GetSource(r.Context(), name)
	if err != nil {
		renderAggregatorError(w, r, "获取数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("获取数据源成功", source))
}

// UpdateSource 更新数据源
// @Summary 更新数据源
// @Description 更新指定数据源的配置
// @Tags 数据源管理
// @Accept json
// @Produce json
// @Param name path string true "数据源名称"
// @Param source body aggregator.SourceConfig true "数据源配置"
// @Success 200 {object} APIResponse{data=aggregator.SourceConfig} "更新成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name} [put]
func (c *SourceController) UpdateSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var config aggregator.SourceConfig
	if err := render.DecodeJSON(r.Body, &config); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}

	updated, err := c.aggregator.UpdateSource(r.Context(), name, &config)
	if err != nil {
		renderAggregatorError(w, r, "更新数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("更新数据源成功", updated))
}

// DeleteSource 删除数据源
// @Summary 删除数据源
// @Description 从聚合服务中删除指定数据源
// @Tags 数据源管理
// @Produce json
// @Param name path string true "数据源名称"
// @Success 200 {object} APIResponse "删除成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name} [delete]
func (c *SourceController) DeleteSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := c.aggregator.DeleteSource(r.Context(), name); err != nil {
		renderAggregatorError(w, r, "删除数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("删除数据源成功", nil))
}

// GetSourceHealth 获取数据源健康状态
// @Summary 获取数据源健康状态
// @Description 获取指定数据源的健康状态快照
// @Tags 数据源管理
// @Produce json
// @Param name path string true "数据源名称"
// @Success 200 {object} APIResponse{data=aggregator.SourceHealth} "获取成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name}/health [get]
func (c *SourceController) GetSourceHealth(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	health, err := c.aggregator.GetSourceHealth(r.Context(), name)
	if err != nil {
		renderAggregatorError(w, r, "获取数据源健康状态失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("获取数据源健康状态成功", health))
}

// ProfileSource 生成数据源画像
// @Summary 生成数据源画像
// @Description 触发聚合服务对数据源做统计画像
// @Tags 数据源管理
// @Produce json
// @Param name path string true "数据源名称"
// @Success 200 {object} APIResponse "画像成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name}/profile [get]
func (c *SourceController) ProfileSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	profile, err := c.aggregator.ProfileSource(r.Context(), name)
	if err != nil {
		renderAggregatorError(w, r, "生成数据源画像失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("生成数据源画像成功", profile))
}

// PreviewSource 预览数据源数据
// @Summary 预览数据源数据
// @Description 拉取数据源前若干条记录用于预览
// @Tags 数据源管理
// @Produce json
// @Param name path string true "数据源名称"
// @Param limit query int false "预览条数" default(10)
// @Success 200 {object} APIResponse "预览成功"
// @Failure 404 {object} APIResponse "数据源不存在"
// @Router /sources/{name}/preview [get]
func (c *SourceController) PreviewSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	chunk, err := c.aggregator.FetchData(r.Context(), name, &aggregator.FetchOptions{Limit: limit})
	if err != nil {
		renderAggregatorError(w, r, "预览数据源失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("预览数据源成功", map[string]interface{}{
		"source_name": chunk.SourceName,
		"data":        chunk.Data,
		"count":       chunk.RecordCount(),
		"metadata":    chunk.Metadata,
	}))
}

// UploadFile 上传文件注册数据源
// @Summary 上传文件注册数据源
// @Description 上传数据文件并注册为聚合服务数据源,文本文件按声明字符集转码为UTF-8
// @Tags 数据源管理
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "数据文件"
// @Param source_name formData string true "数据源名称"
// @Param format formData string false "文件格式,为空时按扩展名识别"
// @Param charset formData string false "文本字符集,如gbk、gb18030,为空时自动识别"
// @Success 200 {object} APIResponse "上传成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /sources/upload [post]
func (c *SourceController) UploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "解析上传表单失败", err))
		return
	}

	sourceName := r.FormValue("source_name")
	if sourceName == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "数据源名称不能为空", nil))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "缺少上传文件", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("读取上传文件失败", err))
		return
	}

	charset := r.FormValue("charset")
	detectedCharset := ""
	if c.converter.ShouldTranscode(header.Filename) {
		if charset != "" {
			data, err = c.converter.DecodeToUTF8(data, charset)
		} else {
			data, detectedCharset, err = c.converter.EnsureUTF8(data)
		}
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "文件转码失败", err))
			return
		}
	}

	// 聚合服务客户端按文件路径上传,转码后的内容先落临时目录
	tempDir, err := os.MkdirTemp("", "nexuscore-upload-*")
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("创建临时目录失败", err))
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filepath.Base(header.Filename))
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("写入临时文件失败", err))
		return
	}

	result, err := c.aggregator.UploadFile(r.Context(), tempPath, sourceName, r.FormValue("format"), nil)
	if err != nil {
		renderAggregatorError(w, r, "上传文件失败", err)
		return
	}

	if detectedCharset != "" && detectedCharset != "utf-8" && result != nil {
		result["detected_charset"] = detectedCharset
	}
	render.JSON(w, r, SuccessResponse("上传文件成功", result))
}

// TransformSource 服务端数据转换
// @Summary 服务端数据转换
// @Description 请求聚合服务对数据源执行转换并生成新数据源
// @Tags 数据源管理
// @Accept json
// @Produce json
// @Param name path string true "数据源名称"
// @Param request body SourceTransformRequest true "转换请求"
// @Success 200 {object} APIResponse "转换成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /sources/{name}/transform [post]
func (c *SourceController) TransformSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SourceTransformRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Transform) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "转换规格不能为空", nil))
		return
	}

	result, err := c.aggregator.TransformData(r.Context(), name, req.Transform, req.OutputName)
	if err != nil {
		renderAggregatorError(w, r, "服务端转换失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("服务端转换成功", result))
}

// SourceTransformRequest 服务端转换请求
type SourceTransformRequest struct {
	Transform  map[string]interface{} `json:"transform"`
	OutputName string                 `json:"output_name,omitempty"`
}

// TestConnection 测试聚合服务连通性
// @Summary 测试聚合服务连通性
// @Description 检查聚合服务是否可达
// @Tags 数据源管理
// @Produce json
// @Success 200 {object} APIResponse "连接正常"
// @Failure 502 {object} APIResponse "聚合服务不可用"
// @Router /sources/test-connection [post]
func (c *SourceController) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := c.aggregator.TestConnection(r.Context()); err != nil {
		renderAggregatorError(w, r, "聚合服务连接失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("聚合服务连接正常", nil))
}

// GetSystemInfo 获取聚合服务系统信息
// @Summary 获取聚合服务系统信息
// @Description 获取聚合服务版本与运行信息,并附带客户端调用统计
// @Tags 数据源管理
// @Produce json
// @Success 200 {object} APIResponse "获取成功"
// @Failure 502 {object} APIResponse "聚合服务不可用"
// @Router /sources/system-info [get]
func (c *SourceController) GetSystemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := c.aggregator.GetSystemInfo(r.Context())
	if err != nil {
		renderAggregatorError(w, r, "获取系统信息失败", err)
		return
	}

	render.JSON(w, r, SuccessResponse("获取系统信息成功", map[string]interface{}{
		"system":       info,
		"client_stats": c.aggregator.GetStatistics(),
	}))
}
