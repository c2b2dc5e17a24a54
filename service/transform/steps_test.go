/*
 * @module service/transform/steps_test
 * @description 内置转换步骤测试 - 逐类型验证列值变换、参数默认值与错误场景
 * @architecture 测试架构 - 经由公开Apply入口驱动单步转换
 * @documentReference service/transform/steps.go
 * @stateFlow 构造记录批次 -> 执行单步转换 -> 断言列值与列序
 * @rules null值在数值与文本变换中保持null;日期部分提取遵循星期一为0与ISO周
 * @dependencies testing, github.com/stretchr/testify
 * @refs service/transform/pipeline.go
 */

package transform

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func applyOne(t *testing.T, records []map[string]interface{}, step TransformStep) *TransformationResult {
	t.Helper()
	return NewTransformer().Apply(records, &TransformSpec{Steps: []TransformStep{step}})
}

// TestRenameStep 列重命名保持列序位置,缺失列静默跳过
func TestRenameStep(t *testing.T) {
	t.Run("重命名已有列", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0, "c": 2.0}},
			TransformStep{Type: "rename", Column: "a", NewName: "b"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"b", "c"}, result.Metadata["transformed_columns"])
		assert.Equal(t, 1.0, result.TransformedData[0]["b"])
		assert.NotContains(t, result.TransformedData[0], "a")
	})

	t.Run("缺失列静默跳过", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0}},
			TransformStep{Type: "rename", Column: "missing", NewName: "b"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"a"}, result.Metadata["transformed_columns"])
	})

	t.Run("缺少new_name参数", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0}},
			TransformStep{Type: "rename", Column: "a"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "rename 转换需要指定new_name参数")
	})
}

// TestDropStep 删列要求目标列存在
func TestDropStep(t *testing.T) {
	t.Run("删除已有列", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0, "b": 2.0}},
			TransformStep{Type: "drop", Column: "a"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"b"}, result.Metadata["transformed_columns"])
		assert.NotContains(t, result.TransformedData[0], "a")
	})

	t.Run("缺失列报错", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0}},
			TransformStep{Type: "drop", Column: "x"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "列不存在: x")
	})
}

// TestFillNAStep 缺失键与null值均被填充
func TestFillNAStep(t *testing.T) {
	t.Run("自定义填充值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"note": "x"}, {"note": nil}, {}},
			TransformStep{Type: "fillna", Column: "note", Value: "n/a"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, "x", result.TransformedData[0]["note"])
		assert.Equal(t, "n/a", result.TransformedData[1]["note"])
		assert.Equal(t, "n/a", result.TransformedData[2]["note"])
	})

	t.Run("默认填充0", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": nil}},
			TransformStep{Type: "fillna", Column: "v"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, 0, result.TransformedData[0]["v"])
	})
}

// TestNormalizeStep 最小-最大归一化与错误场景
func TestNormalizeStep(t *testing.T) {
	t.Run("null保持null", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": 10.0}, {"v": nil}, {"v": 30.0}},
			TransformStep{Type: "normalize", Column: "v"},
		)

		require.True(t, result.Success, result.Message)
		assert.InDelta(t, 0.0, result.TransformedData[0]["v"], 1e-9)
		assert.Nil(t, result.TransformedData[1]["v"])
		assert.InDelta(t, 1.0, result.TransformedData[2]["v"], 1e-9)
	})

	t.Run("包含非数值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": 1.0}, {"v": "abc"}},
			TransformStep{Type: "normalize", Column: "v"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "包含非数值")
	})

	t.Run("没有可归一化的数值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": nil}, {"v": nil}},
			TransformStep{Type: "normalize", Column: "v"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "没有可归一化的数值")
	})
}

// TestLogStep 对数变换ln(1+x)与定义域校验
func TestLogStep(t *testing.T) {
	t.Run("变换取值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": 0.0}, {"v": math.E - 1}, {"v": nil}},
			TransformStep{Type: "log", Column: "v"},
		)

		require.True(t, result.Success, result.Message)
		assert.InDelta(t, 0.0, result.TransformedData[0]["v"], 1e-9)
		assert.InDelta(t, 1.0, result.TransformedData[1]["v"], 1e-9)
		assert.Nil(t, result.TransformedData[2]["v"])
	})

	t.Run("定义域外报错", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"v": -1.0}},
			TransformStep{Type: "log", Column: "v"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "不在对数变换定义域内")
	})
}

// TestTextSteps 大小写与去空白变换,非字符串值先强制转换
func TestTextSteps(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		input    interface{}
		expected interface{}
	}{
		{"小写转换", "lowercase", "HeLLo", "hello"},
		{"小写转换数值强制转字符串", "lowercase", int64(42), "42"},
		{"大写转换", "uppercase", "hello", "HELLO"},
		{"去首尾空白", "trim", "  值  ", "值"},
		{"null保持null", "trim", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := applyOne(t,
				[]map[string]interface{}{{"v": tt.input}},
				TransformStep{Type: tt.kind, Column: "v"},
			)

			require.True(t, result.Success, result.Message)
			assert.Equal(t, tt.expected, result.TransformedData[0]["v"])
		})
	}
}

// TestExtractDatePartStep 日期部分提取,星期一为0,周数按ISO标准
func TestExtractDatePartStep(t *testing.T) {
	records := func() []map[string]interface{} {
		return []map[string]interface{}{{"d": "2024-03-15 10:30:45"}}
	}

	tests := []struct {
		name     string
		part     string
		expected int
	}{
		{"提取年份", "year", 2024},
		{"提取月份", "month", 3},
		{"提取日", "day", 15},
		{"提取小时", "hour", 10},
		{"提取分钟", "minute", 30},
		{"提取秒", "second", 45},
		{"提取星期周一为0", "dayofweek", 4},
		{"提取年内天数", "dayofyear", 75},
		{"提取ISO周数", "weekofyear", 11},
		{"提取季度", "quarter", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := applyOne(t, records(),
				TransformStep{Type: "extract_date_part", Column: "d", Part: tt.part},
			)

			require.True(t, result.Success, result.Message)
			assert.Equal(t, tt.expected, result.TransformedData[0]["d_"+tt.part])
			// 原列保留
			assert.Contains(t, result.TransformedData[0], "d")
		})
	}

	t.Run("默认提取年份", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"d": "2024-03-15"}},
			TransformStep{Type: "extract_date_part", Column: "d"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, 2024, result.TransformedData[0]["d_year"])
	})

	t.Run("指定输出列名", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"d": "2024-03-15"}},
			TransformStep{Type: "extract_date_part", Column: "d", Part: "month", OutputColumn: "m"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, 3, result.TransformedData[0]["m"])
	})

	t.Run("时间类型取值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"d": time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)}},
			TransformStep{Type: "extract_date_part", Column: "d", Part: "quarter"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, 4, result.TransformedData[0]["d_quarter"])
	})

	t.Run("null输出null", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"d": nil}},
			TransformStep{Type: "extract_date_part", Column: "d", Part: "year"},
		)

		require.True(t, result.Success, result.Message)
		assert.Nil(t, result.TransformedData[0]["d_year"])
	})

	t.Run("不支持的日期部分", func(t *testing.T) {
		result := applyOne(t, records(),
			TransformStep{Type: "extract_date_part", Column: "d", Part: "decade"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "不支持的日期部分: decade")
	})

	t.Run("无法解析的时间值", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"d": "昨天"}},
			TransformStep{Type: "extract_date_part", Column: "d", Part: "year"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "无法解析时间值")
	})
}

// TestOneHotEncodeStep 独热编码按取值字典序生成指示列
func TestOneHotEncodeStep(t *testing.T) {
	records := func() []map[string]interface{} {
		return []map[string]interface{}{
			{"city": "beijing"},
			{"city": "shanghai"},
			{"city": nil},
			{"city": "beijing"},
		}
	}

	t.Run("默认前缀并删除原列", func(t *testing.T) {
		result := applyOne(t, records(),
			TransformStep{Type: "one_hot_encode", Column: "city"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"city_beijing", "city_shanghai"}, result.Metadata["transformed_columns"])

		beijing := []interface{}{1, 0, 0, 1}
		shanghai := []interface{}{0, 1, 0, 0}
		for i, record := range result.TransformedData {
			assert.Equal(t, beijing[i], record["city_beijing"], "第%d行", i)
			assert.Equal(t, shanghai[i], record["city_shanghai"], "第%d行", i)
			assert.NotContains(t, record, "city")
		}
	})

	t.Run("自定义前缀并保留原列", func(t *testing.T) {
		result := applyOne(t, records(),
			TransformStep{Type: "one_hot_encode", Column: "city", Prefix: "is", DropOriginal: boolPtr(false)},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"city", "is_beijing", "is_shanghai"}, result.Metadata["transformed_columns"])
		assert.Equal(t, "beijing", result.TransformedData[0]["city"])
		assert.Equal(t, 1, result.TransformedData[0]["is_beijing"])
	})
}

// TestCleanTextStep 文本清洗的参数组合
func TestCleanTextStep(t *testing.T) {
	tests := []struct {
		name     string
		step     TransformStep
		input    interface{}
		expected interface{}
	}{
		{
			"默认清洗保留数字",
			TransformStep{Type: "clean_text", Column: "v"},
			" Hello, World! 123 ",
			"hello world 123",
		},
		{
			"去除数字",
			TransformStep{Type: "clean_text", Column: "v", RemoveNumbers: true},
			" Hello, World! 123 ",
			"hello world",
		},
		{
			"保留特殊字符",
			TransformStep{Type: "clean_text", Column: "v", RemoveSpecialChars: boolPtr(false)},
			" Hello, World! 123 ",
			"hello, world! 123",
		},
		{
			"中文字符保留",
			TransformStep{Type: "clean_text", Column: "v"},
			"Go—语言 2024!",
			"go语言 2024",
		},
		{
			"null保持null",
			TransformStep{Type: "clean_text", Column: "v"},
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := applyOne(t, []map[string]interface{}{{"v": tt.input}}, tt.step)

			require.True(t, result.Success, result.Message)
			assert.Equal(t, tt.expected, result.TransformedData[0]["v"])
		})
	}
}

// TestAddColumnStep 新增常量列
func TestAddColumnStep(t *testing.T) {
	t.Run("新增常量列", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0}, {"a": 2.0}},
			TransformStep{Type: "add_column", NewName: "tag", Value: "raw"},
		)

		require.True(t, result.Success, result.Message)
		assert.Equal(t, []string{"a", "tag"}, result.Metadata["transformed_columns"])
		assert.Equal(t, "raw", result.TransformedData[0]["tag"])
		assert.Equal(t, "raw", result.TransformedData[1]["tag"])
	})

	t.Run("缺少new_name参数", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{{"a": 1.0}},
			TransformStep{Type: "add_column", Value: "raw"},
		)

		require.False(t, result.Success)
		assert.Contains(t, result.Message, "应用 add_column 失败")
		assert.Contains(t, result.Message, "add_column 转换需要指定new_name参数")
	})
}

// TestDropDuplicatesStep 去重保留首次出现,缺失键与null视为相同
func TestDropDuplicatesStep(t *testing.T) {
	t.Run("完全重复的记录", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{
				{"x": 1.0, "y": "a"},
				{"x": 1.0, "y": "a"},
				{"x": 2.0, "y": "a"},
			},
			TransformStep{Type: "drop_duplicates"},
		)

		require.True(t, result.Success, result.Message)
		require.Len(t, result.TransformedData, 2)
		assert.Equal(t, 1.0, result.TransformedData[0]["x"])
		assert.Equal(t, 2.0, result.TransformedData[1]["x"])
		assert.Equal(t, 2, result.Metadata["row_count"])
	})

	t.Run("缺失键与null等价", func(t *testing.T) {
		result := applyOne(t,
			[]map[string]interface{}{
				{"x": 1.0},
				{"x": 1.0, "y": nil},
			},
			TransformStep{Type: "drop_duplicates"},
		)

		require.True(t, result.Success, result.Message)
		assert.Len(t, result.TransformedData, 1)
	})
}
