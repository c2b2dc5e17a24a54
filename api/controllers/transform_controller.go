/*
 * @module api/controllers/transform_controller
 * @description 转换与模式控制器,提供转换管道执行、脚本转换管理、
 *              模式推断与转换建议API
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 转换失败不报5xx,结果对象携带成功标志与原始数据
 * @dependencies nexuscore-service/service/transform, nexuscore-service/service/schema
 * @refs service/transform/pipeline.go, service/schema/inferrer.go
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"
)

// TransformController 转换与模式控制器
type TransformController struct {
	transformer *transform.Transformer
	executor    *transform.ScriptExecutor
	interpreter *schema.Interpreter
}

// NewTransformController 创建转换与模式控制器实例
func NewTransformController(transformer *transform.Transformer, executor *transform.ScriptExecutor, interpreter *schema.Interpreter) *TransformController {
	return &TransformController{
		transformer: transformer,
		executor:    executor,
		interpreter: interpreter,
	}
}

// ApplyTransformRequest 转换执行请求
type ApplyTransformRequest struct {
	Records []map[string]interface{} `json:"records"`
	Spec    *transform.TransformSpec `json:"spec"`
}

// ValidateScriptRequest 脚本校验请求
type ValidateScriptRequest struct {
	Script string `json:"script"`
}

// RegisterScriptRequest 脚本转换注册请求
type RegisterScriptRequest struct {
	Name   string `json:"name"`
	Script string `json:"script"`
}

// SchemaInferenceRequest 模式推断请求
type SchemaInferenceRequest struct {
	Records []map[string]interface{} `json:"records"`
	Explain bool                     `json:"explain,omitempty"`
}

// ApplyTransform 执行转换管道
// @Summary 执行转换管道
// @Description 按转换规格对记录批次执行转换,失败时返回原始数据与失败原因
// @Tags 数据转换
// @Accept json
// @Produce json
// @Param request body ApplyTransformRequest true "转换执行请求"
// @Success 200 {object} APIResponse{data=transform.TransformationResult} "执行完成"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /transform/apply [post]
func (c *TransformController) ApplyTransform(w http.ResponseWriter, r *http.Request) {
	var req ApplyTransformRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Records) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "记录列表不能为空", nil))
		return
	}

	result := c.transformer.Apply(req.Records, req.Spec)
	render.JSON(w, r, SuccessResponse("转换执行完成", result))
}

// ValidateScript 校验脚本转换
// @Summary 校验脚本转换
// @Description 编译脚本并返回是否可用,不注册不执行
// @Tags 数据转换
// @Accept json
// @Produce json
// @Param request body ValidateScriptRequest true "脚本校验请求"
// @Success 200 {object} APIResponse "校验完成"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /transform/scripts/validate [post]
func (c *TransformController) ValidateScript(w http.ResponseWriter, r *http.Request) {
	var req ValidateScriptRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.Script == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "脚本内容不能为空", nil))
		return
	}

	if err := c.executor.Validate(req.Script); err != nil {
		render.JSON(w, r, SuccessResponse("脚本校验完成", map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		}))
		return
	}

	render.JSON(w, r, SuccessResponse("脚本校验完成", map[string]interface{}{
		"valid": true,
	}))
}

// RegisterScript 注册脚本转换
// @Summary 注册脚本转换
// @Description 编译脚本并以指定名称注册为自定义转换,供custom步骤引用
// @Tags 数据转换
// @Accept json
// @Produce json
// @Param request body RegisterScriptRequest true "脚本注册请求"
// @Success 200 {object} APIResponse "注册成功"
// @Failure 400 {object} APIResponse "脚本编译失败"
// @Router /transform/scripts [post]
func (c *TransformController) RegisterScript(w http.ResponseWriter, r *http.Request) {
	var req RegisterScriptRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if req.Name == "" || req.Script == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "转换名称与脚本内容不能为空", nil))
		return
	}

	if err := c.transformer.RegisterScript(c.executor, req.Name, req.Script); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "注册脚本转换失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("注册脚本转换成功", map[string]interface{}{
		"name": req.Name,
	}))
}

// ListTransforms 获取已注册转换列表
// @Summary 获取已注册转换列表
// @Description 列出全部已注册的自定义转换名称与脚本缓存统计
// @Tags 数据转换
// @Produce json
// @Success 200 {object} APIResponse "获取成功"
// @Router /transform/transforms [get]
func (c *TransformController) ListTransforms(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取已注册转换成功", map[string]interface{}{
		"transforms":  c.transformer.RegisteredTransforms(),
		"cache_stats": c.executor.GetCacheStats(),
	}))
}

// ClearScriptCache 清空脚本编译缓存
// @Summary 清空脚本编译缓存
// @Description 清空脚本转换的编译缓存,已注册的转换不受影响
// @Tags 数据转换
// @Produce json
// @Success 200 {object} APIResponse "清空成功"
// @Router /transform/scripts/cache [delete]
func (c *TransformController) ClearScriptCache(w http.ResponseWriter, r *http.Request) {
	c.executor.ClearCache()
	render.JSON(w, r, SuccessResponse("清空脚本缓存成功", nil))
}

// InferSchema 推断记录批次的模式画像
// @Summary 推断记录批次的模式画像
// @Description 对记录批次做字段类型推断与统计画像,可选生成字段讲解
// @Tags 数据转换
// @Accept json
// @Produce json
// @Param request body SchemaInferenceRequest true "模式推断请求"
// @Success 200 {object} APIResponse "推断成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /transform/schema [post]
func (c *TransformController) InferSchema(w http.ResponseWriter, r *http.Request) {
	var req SchemaInferenceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Records) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "记录列表不能为空", nil))
		return
	}

	profile := c.interpreter.InferSchema(req.Records)

	data := map[string]interface{}{
		"schema": profile,
	}
	if req.Explain {
		explanations := make(map[string]string, len(profile.Fields))
		for i := range profile.Fields {
			field := &profile.Fields[i]
			explanation, err := c.interpreter.ExplainField(r.Context(), field.Name, field)
			if err != nil {
				continue
			}
			explanations[field.Name] = explanation
		}
		data["field_explanations"] = explanations
	}

	render.JSON(w, r, SuccessResponse("模式推断成功", data))
}

// SuggestTransformations 生成转换建议
// @Summary 生成转换建议
// @Description 推断记录批次模式并按字段类型给出转换建议
// @Tags 数据转换
// @Accept json
// @Produce json
// @Param request body SchemaInferenceRequest true "转换建议请求"
// @Success 200 {object} APIResponse "生成成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /transform/suggest [post]
func (c *TransformController) SuggestTransformations(w http.ResponseWriter, r *http.Request) {
	var req SchemaInferenceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Records) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "记录列表不能为空", nil))
		return
	}

	profile := c.interpreter.InferSchema(req.Records)

	suggestions := make(map[string][]schema.TransformSuggestion, len(profile.Fields))
	for i := range profile.Fields {
		field := &profile.Fields[i]
		suggestions[field.Name] = c.interpreter.SuggestTransformations(field)
	}

	render.JSON(w, r, SuccessResponse("生成转换建议成功", map[string]interface{}{
		"schema":      profile,
		"suggestions": suggestions,
	}))
}
