/*
 * @module api/controllers/dictionary_controller
 * @description 数据字典控制器,提供字段定义维护、检索、文档生成与
 *              字段映射建议API
 * @architecture 分层架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 字典按数据源组织,文档接口直接输出Markdown文本
 * @dependencies nexuscore-service/service/dictionary, github.com/go-chi/chi/v5
 * @refs service/dictionary/dictionary_service.go
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"

	"nexuscore-service/service/dictionary"
	"nexuscore-service/service/models"
)

// DictionaryController 数据字典控制器
type DictionaryController struct {
	dictionaryService *dictionary.DictionaryService
}

// NewDictionaryController 创建数据字典控制器实例
func NewDictionaryController(dictionaryService *dictionary.DictionaryService) *DictionaryController {
	return &DictionaryController{dictionaryService: dictionaryService}
}

// UpsertDictionaryRequest 字典维护请求
type UpsertDictionaryRequest struct {
	Fields []models.FieldDefinition `json:"fields"`
}

// SuggestMappingsRequest 字段映射建议请求
type SuggestMappingsRequest struct {
	SourceFields []string `json:"source_fields"`
	TargetFields []string `json:"target_fields"`
}

// ListSources 获取已建立字典的数据源列表
// @Summary 获取已建立字典的数据源列表
// @Description 列出全部已有字段定义的数据源标识
// @Tags 数据字典
// @Produce json
// @Success 200 {object} APIResponse{data=[]string} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /dictionary/sources [get]
func (c *DictionaryController) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := c.dictionaryService.ListSources()
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取数据源列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取数据源列表成功", sources))
}

// UpsertDictionary 维护数据源字典
// @Summary 维护数据源字典
// @Description 批量创建或更新数据源的字段定义,按数据源与字段名幂等
// @Tags 数据字典
// @Accept json
// @Produce json
// @Param source_key path string true "数据源标识"
// @Param request body UpsertDictionaryRequest true "字段定义列表"
// @Success 200 {object} APIResponse "维护成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /dictionary/{source_key}/fields [put]
func (c *DictionaryController) UpsertDictionary(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	var req UpsertDictionaryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.Fields) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "字段定义列表不能为空", nil))
		return
	}

	if err := c.dictionaryService.UpsertDictionary(sourceKey, req.Fields); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "维护数据字典失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("维护数据字典成功", map[string]interface{}{
		"source_key": sourceKey,
		"count":      len(req.Fields),
	}))
}

// ListFields 获取数据源字段定义
// @Summary 获取数据源字段定义
// @Description 按字段名排序列出数据源的全部字段定义
// @Tags 数据字典
// @Produce json
// @Param source_key path string true "数据源标识"
// @Success 200 {object} APIResponse{data=[]models.FieldDefinition} "获取成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /dictionary/{source_key}/fields [get]
func (c *DictionaryController) ListFields(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	fields, err := c.dictionaryService.ListFields(sourceKey)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取字段定义失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取字段定义成功", fields))
}

// GetField 获取字段定义详情
// @Summary 获取字段定义详情
// @Description 获取数据源下指定字段的定义
// @Tags 数据字典
// @Produce json
// @Param source_key path string true "数据源标识"
// @Param field_name path string true "字段名"
// @Success 200 {object} APIResponse{data=models.FieldDefinition} "获取成功"
// @Failure 404 {object} APIResponse "字段定义不存在"
// @Router /dictionary/{source_key}/fields/{field_name} [get]
func (c *DictionaryController) GetField(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")
	fieldName := chi.URLParam(r, "field_name")

	field, err := c.dictionaryService.GetField(sourceKey, fieldName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse(http.StatusNotFound, "字段定义不存在", nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("获取字段定义失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("获取字段定义成功", field))
}

// ListFieldsByCategory 按分类检索字段定义
// @Summary 按分类检索字段定义
// @Description 跨数据源检索携带指定分类标签的字段定义
// @Tags 数据字典
// @Produce json
// @Param category path string true "分类名称"
// @Success 200 {object} APIResponse{data=[]models.FieldDefinition} "检索成功"
// @Failure 500 {object} APIResponse "服务器内部错误"
// @Router /dictionary/categories/{category} [get]
func (c *DictionaryController) ListFieldsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	fields, err := c.dictionaryService.ListFieldsByCategory(category)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("按分类检索字段失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("按分类检索字段成功", fields))
}

// GenerateDocumentation 生成数据字典文档
// @Summary 生成数据字典文档
// @Description 生成数据源字典的Markdown文档并直接输出
// @Tags 数据字典
// @Produce plain
// @Param source_key path string true "数据源标识"
// @Success 200 {string} string "Markdown文档"
// @Failure 404 {object} APIResponse "数据源无字典定义"
// @Router /dictionary/{source_key}/documentation [get]
func (c *DictionaryController) GenerateDocumentation(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "source_key")

	doc, err := c.dictionaryService.GenerateDocumentation(sourceKey)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse(http.StatusNotFound, "生成数据字典文档失败", err))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// SuggestFieldMappings 生成字段映射建议
// @Summary 生成字段映射建议
// @Description 按名称相似度为源字段与目标字段生成映射建议
// @Tags 数据字典
// @Accept json
// @Produce json
// @Param request body SuggestMappingsRequest true "映射建议请求"
// @Success 200 {object} APIResponse "生成成功"
// @Failure 400 {object} APIResponse "请求参数错误"
// @Router /dictionary/suggest-mappings [post]
func (c *DictionaryController) SuggestFieldMappings(w http.ResponseWriter, r *http.Request) {
	var req SuggestMappingsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "请求参数格式错误", err))
		return
	}
	if len(req.SourceFields) == 0 || len(req.TargetFields) == 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "源字段与目标字段列表不能为空", nil))
		return
	}

	mappings := c.dictionaryService.SuggestFieldMappings(req.SourceFields, req.TargetFields)
	render.JSON(w, r, SuccessResponse("生成字段映射建议成功", map[string]interface{}{
		"mappings": mappings,
	}))
}
