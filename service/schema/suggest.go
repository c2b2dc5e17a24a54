/*
 * @module service/schema/suggest
 * @description 转换建议,按字段粗类型查静态规则表给出可行的转换操作
 * @architecture 纯函数计算 - 静态规则表
 * @documentReference dev_docs/requirements.md
 * @rules 数值型建议归一化/分箱/对数,时间型建议提取年月日,文本型建议大小写与去空白
 * @refs service/schema/inferrer.go
 */

package schema

import "strings"

// TransformSuggestion 转换建议项
type TransformSuggestion struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// SuggestTransformations 按字段类型给出转换建议
func (i *Interpreter) SuggestTransformations(field *FieldProfile) []TransformSuggestion {
	suggestions := []TransformSuggestion{}
	fieldType := field.Type

	if strings.Contains(fieldType, "int") || strings.Contains(fieldType, "float") {
		suggestions = append(suggestions,
			TransformSuggestion{Type: "normalize", Description: "归一化到0-1区间"},
			TransformSuggestion{Type: "bin", Description: "按区间分箱分组"},
			TransformSuggestion{Type: "log", Description: "对数变换"},
		)
	}

	if strings.Contains(fieldType, "datetime") {
		suggestions = append(suggestions,
			TransformSuggestion{Type: "extract_year", Description: "提取年份"},
			TransformSuggestion{Type: "extract_month", Description: "提取月份"},
			TransformSuggestion{Type: "extract_day", Description: "提取日"},
		)
	}

	if strings.Contains(fieldType, "object") || strings.Contains(fieldType, "string") {
		suggestions = append(suggestions,
			TransformSuggestion{Type: "lowercase", Description: "转为小写"},
			TransformSuggestion{Type: "uppercase", Description: "转为大写"},
			TransformSuggestion{Type: "trim", Description: "去除首尾空白"},
		)
	}

	return suggestions
}
