/*
 * @module service/schema/explainer
 * @description 字段讲解,优先调用语言模型生成,未配置时退回确定性模板
 * @architecture 能力注入 - 语言模型为可选能力,缺席以nil显式表达
 * @documentReference dev_docs/requirements.md
 * @stateFlow 画像 -> 构造提示词 -> 语言模型生成 / 模板拼接
 * @rules 模板按不同取值基数分三档描述,缺失值与取值范围按需追加
 * @refs service/schema/llm.go, service/ingestion
 */

package schema

import (
	"context"
	"fmt"
)

// ExplainField 生成字段的自然语言讲解
func (i *Interpreter) ExplainField(ctx context.Context, fieldName string, field *FieldProfile) (string, error) {
	if i.llm != nil {
		prompt := buildExplanationPrompt(fieldName, field)
		return i.llm.Generate(ctx, prompt)
	}
	return simpleFieldExplanation(fieldName, field), nil
}

// buildExplanationPrompt 构造语言模型提示词
func buildExplanationPrompt(fieldName string, field *FieldProfile) string {
	return fmt.Sprintf(`请用通俗的语言解释下面的数据字段:

字段名称: %s
数据类型: %s
取样值: %v
不同取值数量: %d
缺失值数量: %d

根据这些信息,这个字段可能代表什么?对它做哪些分析或转换会有帮助?`,
		fieldName, field.Type, field.SampleValues, field.UniqueCount, field.NullCount)
}

// simpleFieldExplanation 无语言模型时的模板讲解
func simpleFieldExplanation(fieldName string, field *FieldProfile) string {
	explanation := fmt.Sprintf("字段'%s'包含%s类型的数据。", fieldName, field.Type)

	switch {
	case field.UniqueCount == 1:
		explanation += "所有取值完全相同。"
	case field.UniqueCount < 10:
		explanation += fmt.Sprintf("共有%d个不同取值。", field.UniqueCount)
	default:
		explanation += "取值种类较多。"
	}

	if field.NullCount > 0 {
		explanation += fmt.Sprintf("注意: 有%d个值缺失。", field.NullCount)
	}

	if field.Numeric != nil {
		explanation += fmt.Sprintf("取值范围从%v到%v。", field.Numeric.Min, field.Numeric.Max)
	} else if field.Datetime != nil {
		explanation += fmt.Sprintf("取值范围从%s到%s。", field.Datetime.Min, field.Datetime.Max)
	}

	return explanation
}
