/*
 * @module service/transform/types
 * @description 转换规格与转换结果的类型定义
 * @architecture 声明式规格 - 有序步骤列表,每步一个带类型标签的变体
 * @documentReference dev_docs/requirements.md
 * @stateFlow 规格解析 -> 逐步执行 -> 结果汇总
 * @rules 步骤严格按声明顺序执行;失败时返回原始输入数据,绝不返回半转换结果
 * @dependencies encoding/json
 * @refs service/transform/pipeline.go, service/transform/steps.go
 */

package transform

import "encoding/json"

// TransformStep 单个转换步骤,kind特有的参数按需填充
type TransformStep struct {
	Type         string      `json:"type"`                    // 转换类型,必填
	Column       string      `json:"column,omitempty"`        // 目标列,除add_column/drop_duplicates外必填
	NewName      string      `json:"new_name,omitempty"`      // rename/add_column的新列名
	Value        interface{} `json:"value,omitempty"`         // fillna的填充值/add_column的常量值
	Part         string      `json:"part,omitempty"`          // extract_date_part的日期部分,默认year
	OutputColumn string      `json:"output_column,omitempty"` // extract_date_part的输出列,默认{column}_{part}
	Prefix       string      `json:"prefix,omitempty"`        // one_hot_encode的列名前缀,默认目标列名
	DropOriginal *bool       `json:"drop_original,omitempty"` // one_hot_encode是否删除原列,默认true

	RemoveNumbers      bool  `json:"remove_numbers,omitempty"`       // clean_text是否去除数字,默认false
	RemoveSpecialChars *bool `json:"remove_special_chars,omitempty"` // clean_text是否去除特殊字符,默认true

	TransformName string                 `json:"transform_name,omitempty"` // custom引用的已注册转换名
	Params        map[string]interface{} `json:"params,omitempty"`         // 自定义转换的参数
}

// TransformSpec 转换规格,步骤按声明顺序依次执行
type TransformSpec struct {
	Steps []TransformStep `json:"steps"`
}

// ParseSpec 从JSON解析转换规格
func ParseSpec(raw []byte) (*TransformSpec, error) {
	var spec TransformSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// SpecFromMaps 从通用映射列表构造转换规格,供调度与API层使用
func SpecFromMaps(steps []map[string]interface{}) (*TransformSpec, error) {
	raw, err := json.Marshal(map[string]interface{}{"steps": steps})
	if err != nil {
		return nil, err
	}
	return ParseSpec(raw)
}

// TransformationResult 转换结果。失败时TransformedData为原始输入数据
type TransformationResult struct {
	Success         bool                     `json:"success"`
	TransformedData []map[string]interface{} `json:"transformed_data"`
	Message         string                   `json:"message"`
	Metadata        map[string]interface{}   `json:"metadata"`
}
