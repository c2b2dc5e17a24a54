/*
 * @module service/models/jsonb
 * @description JSONB字段类型定义,为gorm模型提供可序列化的JSON列类型
 * @architecture 数据访问层 - 自定义列类型
 * @documentReference dev_docs/model.md
 * @stateFlow 数据库读取 Scan -> 内存对象 -> 数据库写入 Value
 * @rules Scan同时兼容 []byte 和 string 两种驱动返回形态,空值映射为nil
 * @dependencies database/sql/driver, encoding/json
 * @refs service/models/ingestion.go
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB 通用JSON对象列类型
type JSONB map[string]interface{}

// JSONBArray JSON对象数组列类型,用于存放记录集合
type JSONBArray []map[string]interface{}

// JSONBStringArray 字符串数组列类型
type JSONBStringArray []string

// scanJSONB 从驱动值中取出原始字节并反序列化到目标对象
func scanJSONB(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, target)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSONB(value, j)
}

// Value 实现 driver.Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONBArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSONB(value, j)
}

// Value 实现 driver.Valuer 接口
func (j JSONBArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return scanJSONB(value, j)
}

// Value 实现 driver.Valuer 接口
func (j JSONBStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
