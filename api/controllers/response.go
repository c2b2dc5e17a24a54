package controllers

import "net/http"

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 构建成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// SuccessPaginatedResponse 构建分页成功响应
func SuccessPaginatedResponse(msg string, data interface{}, total int64, page, size int) PaginatedResponse {
	return PaginatedResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
		Total:  total,
		Page:   page,
		Size:   size,
	}
}

// ErrorResponse 构建错误响应,err不为nil时附加错误详情
func ErrorResponse(status int, msg string, err error) APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return APIResponse{
		Status: status,
		Msg:    msg,
	}
}

// InternalErrorResponse 构建500错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return ErrorResponse(http.StatusInternalServerError, msg, err)
}
