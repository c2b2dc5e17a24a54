/*
 * @module service/transform/errors
 * @description 转换错误分类:缺参、未知类型、步骤执行失败
 * @architecture 错误分类 - 本地错误体系,与远端客户端错误相互独立
 * @documentReference dev_docs/requirements.md
 * @stateFlow 校验/分派产生分类错误 -> 管道边界捕获并转为失败结果
 * @rules 步骤执行失败时携带步骤类型与目标列上下文,原始错误可经Unwrap取出
 * @dependencies errors, fmt
 * @refs service/transform/pipeline.go
 */

package transform

import (
	"errors"
	"fmt"
)

// ErrorReason 转换错误类别
type ErrorReason string

const (
	ReasonMissingParameter ErrorReason = "missing_parameter" // 类型或必要参数缺失
	ReasonUnknownKind      ErrorReason = "unknown_kind"      // 未知的转换类型
	ReasonStepExecution    ErrorReason = "step_execution"    // 步骤执行中失败
)

// TransformationError 转换错误
type TransformationError struct {
	Reason  ErrorReason `json:"reason"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

// Error 实现error接口
func (e *TransformationError) Error() string {
	return e.Message
}

// Unwrap 返回底层错误
func (e *TransformationError) Unwrap() error {
	return e.Err
}

// AsTransformationError 从错误链中提取TransformationError
func AsTransformationError(err error) (*TransformationError, bool) {
	var tErr *TransformationError
	if errors.As(err, &tErr) {
		return tErr, true
	}
	return nil, false
}

func newMissingParameterError(format string, args ...interface{}) *TransformationError {
	return &TransformationError{
		Reason:  ReasonMissingParameter,
		Message: fmt.Sprintf(format, args...),
	}
}

func newUnknownKindError(kind string) *TransformationError {
	return &TransformationError{
		Reason:  ReasonUnknownKind,
		Message: fmt.Sprintf("未知的转换类型: %s", kind),
	}
}

// wrapStepError 以步骤类型与目标列上下文包装步骤内错误
func wrapStepError(kind, column string, err error) *TransformationError {
	message := fmt.Sprintf("应用 %s 到列 %s 失败: %v", kind, column, err)
	if column == "" {
		message = fmt.Sprintf("应用 %s 失败: %v", kind, err)
	}
	return &TransformationError{
		Reason:  ReasonStepExecution,
		Message: message,
		Err:     err,
	}
}
