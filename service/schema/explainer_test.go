package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply     string
	err       error
	gotPrompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.gotPrompt = prompt
	return f.reply, f.err
}

func TestExplainFieldTemplate(t *testing.T) {
	interpreter := NewInterpreter(nil)

	tests := []struct {
		name     string
		field    *FieldProfile
		contains []string
	}{
		{
			name:     "所有取值相同",
			field:    &FieldProfile{Name: "status", Type: TypeString, UniqueCount: 1},
			contains: []string{"字段'status'", "string类型", "所有取值完全相同"},
		},
		{
			name:     "少量不同取值",
			field:    &FieldProfile{Name: "grade", Type: TypeString, UniqueCount: 4},
			contains: []string{"共有4个不同取值"},
		},
		{
			name:     "大量不同取值且有缺失",
			field:    &FieldProfile{Name: "uid", Type: TypeInt, UniqueCount: 100, NullCount: 3},
			contains: []string{"取值种类较多", "有3个值缺失"},
		},
		{
			name: "数值范围说明",
			field: &FieldProfile{
				Name: "amount", Type: TypeFloat, UniqueCount: 20,
				Numeric: &NumericStats{Min: 1.5, Max: 99.5},
			},
			contains: []string{"取值范围从1.5到99.5"},
		},
		{
			name: "时间范围说明",
			field: &FieldProfile{
				Name: "day", Type: TypeDatetime, UniqueCount: 30,
				Datetime: &DatetimeStats{Min: "2024-01-01T00:00:00Z", Max: "2024-01-31T00:00:00Z"},
			},
			contains: []string{"取值范围从2024-01-01T00:00:00Z到2024-01-31T00:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explanation, err := interpreter.ExplainField(context.Background(), tt.field.Name, tt.field)
			require.NoError(t, err)
			for _, fragment := range tt.contains {
				assert.Contains(t, explanation, fragment)
			}
		})
	}
}

func TestExplainFieldWithLLM(t *testing.T) {
	t.Run("使用语言模型生成", func(t *testing.T) {
		llm := &fakeLLM{reply: "这个字段表示销售金额。"}
		interpreter := NewInterpreter(llm)

		field := &FieldProfile{
			Name: "amount", Type: TypeFloat,
			SampleValues: []interface{}{10.5, 20.0},
			UniqueCount:  15, NullCount: 2,
		}
		explanation, err := interpreter.ExplainField(context.Background(), "amount", field)

		require.NoError(t, err)
		assert.Equal(t, "这个字段表示销售金额。", explanation)
		assert.Contains(t, llm.gotPrompt, "字段名称: amount")
		assert.Contains(t, llm.gotPrompt, "不同取值数量: 15")
		assert.Contains(t, llm.gotPrompt, "缺失值数量: 2")
	})

	t.Run("语言模型错误向上传递", func(t *testing.T) {
		llm := &fakeLLM{err: errors.New("网关超时")}
		interpreter := NewInterpreter(llm)

		_, err := interpreter.ExplainField(context.Background(), "amount", &FieldProfile{Name: "amount", Type: TypeFloat})
		assert.Error(t, err)
	})
}

func TestSuggestTransformations(t *testing.T) {
	interpreter := NewInterpreter(nil)

	t.Run("数值型建议", func(t *testing.T) {
		suggestions := interpreter.SuggestTransformations(&FieldProfile{Type: TypeInt})
		require.Len(t, suggestions, 3)
		assert.Equal(t, "normalize", suggestions[0].Type)
		assert.Equal(t, "bin", suggestions[1].Type)
		assert.Equal(t, "log", suggestions[2].Type)
	})

	t.Run("时间型建议", func(t *testing.T) {
		suggestions := interpreter.SuggestTransformations(&FieldProfile{Type: TypeDatetime})
		require.Len(t, suggestions, 3)
		assert.Equal(t, "extract_year", suggestions[0].Type)
	})

	t.Run("文本型建议", func(t *testing.T) {
		suggestions := interpreter.SuggestTransformations(&FieldProfile{Type: TypeString})
		require.Len(t, suggestions, 3)
		assert.Equal(t, "lowercase", suggestions[0].Type)
	})

	t.Run("布尔型无建议", func(t *testing.T) {
		suggestions := interpreter.SuggestTransformations(&FieldProfile{Type: TypeBool})
		assert.Empty(t, suggestions)
	})
}
