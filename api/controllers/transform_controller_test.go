/*
 * @module api/controllers/transform_controller_test
 * @description 转换与模式控制器单元测试 - 转换执行、脚本管理、模式推断
 *              与转换建议接口
 * @architecture 测试层 - 真实转换器与推断器,无外部依赖
 * @documentReference dev_docs/test_plan.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 转换步骤失败不报5xx,结果对象携带成功标志
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs transform_controller.go
 */

package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexuscore-service/service/schema"
	"nexuscore-service/service/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const negateScript = `
result := make([]interface{}, len(values))
for i, v := range values {
	f, _ := v.(float64)
	result[i] = -f
}
return result, nil
`

func newTransformTestController() *TransformController {
	return NewTransformController(
		transform.NewTransformer(),
		transform.NewScriptExecutor(),
		schema.NewInterpreter(nil),
	)
}

func postJSON(t *testing.T, handler http.HandlerFunc, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	err := json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	return response
}

// ===================== 转换执行测试 =====================

// TestApplyTransform 测试转换管道执行
func TestApplyTransform(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ApplyTransform, "/transform/apply", ApplyTransformRequest{
		Records: []map[string]interface{}{
			{"age": 10.0},
			{"age": nil},
		},
		Spec: &transform.TransformSpec{
			Steps: []transform.TransformStep{
				{Type: "fillna", Column: "age", Value: 0.0},
			},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["success"])

	transformed, ok := data["transformed_data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, transformed, 2)
}

// TestApplyTransform_StepFailure 步骤失败返回200,结果携带失败标志与原因
func TestApplyTransform_StepFailure(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ApplyTransform, "/transform/apply", ApplyTransformRequest{
		Records: []map[string]interface{}{{"age": 10.0}},
		Spec: &transform.TransformSpec{
			Steps: []transform.TransformStep{
				{Type: "drop", Column: "missing_column"},
			},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["success"])
	assert.NotEmpty(t, data["message"])
}

// TestApplyTransform_EmptyRecords 空记录列表返回400
func TestApplyTransform_EmptyRecords(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ApplyTransform, "/transform/apply", ApplyTransformRequest{
		Records: nil,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, response.Status)
	assert.Contains(t, response.Msg, "记录列表不能为空")
}

// TestApplyTransform_InvalidJSON 无效JSON返回400
func TestApplyTransform_InvalidJSON(t *testing.T) {
	controller := newTransformTestController()

	req := httptest.NewRequest(http.MethodPost, "/transform/apply",
		bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	controller.ApplyTransform(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "请求参数格式错误")
}

// ===================== 脚本管理测试 =====================

// TestValidateScript 合法脚本校验通过
func TestValidateScript(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ValidateScript, "/transform/scripts/validate", ValidateScriptRequest{
		Script: negateScript,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
}

// TestValidateScript_CompileError 编译失败返回200且valid为false
func TestValidateScript_CompileError(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ValidateScript, "/transform/scripts/validate", ValidateScriptRequest{
		Script: "func {{{",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
	assert.NotEmpty(t, data["error"])
}

// TestValidateScript_Empty 空脚本返回400
func TestValidateScript_Empty(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.ValidateScript, "/transform/scripts/validate", ValidateScriptRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "脚本内容不能为空")
}

// TestRegisterScript 注册脚本后可在转换列表中查到并被custom步骤引用
func TestRegisterScript(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.RegisterScript, "/transform/scripts", RegisterScriptRequest{
		Name:   "negate",
		Script: negateScript,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	// 转换列表包含新注册的脚本转换
	listReq := httptest.NewRequest(http.MethodGet, "/transform/transforms", nil)
	listW := httptest.NewRecorder()
	controller.ListTransforms(listW, listReq)

	listResponse := decodeResponse(t, listW)
	data, ok := listResponse.Data.(map[string]interface{})
	require.True(t, ok)
	transforms, ok := data["transforms"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, transforms, "negate")

	// custom步骤引用注册的脚本转换
	applyW := postJSON(t, controller.ApplyTransform, "/transform/apply", ApplyTransformRequest{
		Records: []map[string]interface{}{{"value": 3.0}},
		Spec: &transform.TransformSpec{
			Steps: []transform.TransformStep{
				{Type: "custom", Column: "value", TransformName: "negate"},
			},
		},
	})

	applyResponse := decodeResponse(t, applyW)
	applyData, ok := applyResponse.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, applyData["success"])

	transformed := applyData["transformed_data"].([]interface{})
	first := transformed[0].(map[string]interface{})
	assert.Equal(t, -3.0, first["value"])
}

// TestRegisterScript_MissingName 名称缺失返回400
func TestRegisterScript_MissingName(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.RegisterScript, "/transform/scripts", RegisterScriptRequest{
		Script: negateScript,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "转换名称与脚本内容不能为空")
}

// TestRegisterScript_CompileError 脚本编译失败返回400
func TestRegisterScript_CompileError(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.RegisterScript, "/transform/scripts", RegisterScriptRequest{
		Name:   "broken",
		Script: "func {{{",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "注册脚本转换失败")
}

// TestClearScriptCache 清空脚本缓存
func TestClearScriptCache(t *testing.T) {
	controller := newTransformTestController()

	require.NoError(t, controller.executor.Validate(negateScript))

	req := httptest.NewRequest(http.MethodDelete, "/transform/scripts/cache", nil)
	w := httptest.NewRecorder()
	controller.ClearScriptCache(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stats := controller.executor.GetCacheStats()
	assert.Equal(t, 0, stats["cache_size"])
}

// ===================== 模式推断测试 =====================

// TestInferSchema 推断记录批次的模式画像
func TestInferSchema(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.InferSchema, "/transform/schema", SchemaInferenceRequest{
		Records: []map[string]interface{}{
			{"age": 10.0, "name": "张三"},
			{"age": 20.0, "name": "李四"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, data, "schema")

	profile := data["schema"].(map[string]interface{})
	fields := profile["fields"].([]interface{})
	assert.Len(t, fields, 2)
	assert.NotContains(t, data, "field_explanations")
}

// TestInferSchema_WithExplanations explain开关开启时返回字段讲解
func TestInferSchema_WithExplanations(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.InferSchema, "/transform/schema", SchemaInferenceRequest{
		Records: []map[string]interface{}{
			{"amount": 19.9},
		},
		Explain: true,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)

	explanations, ok := data["field_explanations"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, explanations["amount"])
}

// TestInferSchema_EmptyRecords 空记录列表返回400
func TestInferSchema_EmptyRecords(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.InferSchema, "/transform/schema", SchemaInferenceRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response.Msg, "记录列表不能为空")
}

// ===================== 转换建议测试 =====================

// TestSuggestTransformations 按字段类型生成转换建议
func TestSuggestTransformations(t *testing.T) {
	controller := newTransformTestController()

	w := postJSON(t, controller.SuggestTransformations, "/transform/suggest", SchemaInferenceRequest{
		Records: []map[string]interface{}{
			{"age": 10.0, "city": "北京"},
			{"age": nil, "city": "上海"},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "schema")

	suggestions, ok := data["suggestions"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, suggestions, "age")
	assert.Contains(t, suggestions, "city")

	// 数值字段应建议归一化
	ageSuggestions := suggestions["age"].([]interface{})
	found := false
	for _, raw := range ageSuggestions {
		s := raw.(map[string]interface{})
		if s["type"] == "normalize" {
			found = true
		}
	}
	assert.True(t, found, "数值字段应建议normalize")
}
