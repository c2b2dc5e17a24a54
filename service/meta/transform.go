/*
 * @module service/meta/transform
 * @description 数据转换元数据定义,包括内置转换类型、日期部件等常量
 * @architecture 常量层 - 元数据定义
 * @documentReference ai_docs/transform_pipeline.md
 * @stateFlow 常量定义 -> 验证函数 -> 转换引擎使用
 * @rules 内置转换类型为封闭集合,自定义转换通过注册表扩展
 * @dependencies 无外部依赖
 * @refs service/transform
 */

package meta

// 内置转换类型常量
const (
	TransformKindRename          = "rename"
	TransformKindDrop            = "drop"
	TransformKindFillNA          = "fillna"
	TransformKindNormalize       = "normalize"
	TransformKindLog             = "log"
	TransformKindLowercase       = "lowercase"
	TransformKindUppercase       = "uppercase"
	TransformKindTrim            = "trim"
	TransformKindExtractDatePart = "extract_date_part"
	TransformKindOneHotEncode    = "one_hot_encode"
	TransformKindCleanText       = "clean_text"
	TransformKindAddColumn       = "add_column"
	TransformKindDropDuplicates  = "drop_duplicates"
	TransformKindCustom          = "custom"
)

// TransformKindDisplayNames 内置转换类型显示名称映射
var TransformKindDisplayNames = map[string]string{
	TransformKindRename:          "重命名列",
	TransformKindDrop:            "删除列",
	TransformKindFillNA:          "填充缺失值",
	TransformKindNormalize:       "归一化",
	TransformKindLog:             "对数变换",
	TransformKindLowercase:       "转小写",
	TransformKindUppercase:       "转大写",
	TransformKindTrim:            "去除首尾空白",
	TransformKindExtractDatePart: "提取日期部件",
	TransformKindOneHotEncode:    "独热编码",
	TransformKindCleanText:       "文本清洗",
	TransformKindAddColumn:       "新增列",
	TransformKindDropDuplicates:  "去除重复行",
	TransformKindCustom:          "自定义转换",
}

// IsBuiltinTransformKind 判断是否为内置转换类型
func IsBuiltinTransformKind(kind string) bool {
	_, exists := TransformKindDisplayNames[kind]
	return exists
}

// TransformKindRequiresColumn 判断转换类型是否要求指定目标列
// add_column 和 drop_duplicates 作用于整批数据,不要求目标列
func TransformKindRequiresColumn(kind string) bool {
	switch kind {
	case TransformKindAddColumn, TransformKindDropDuplicates:
		return false
	default:
		return true
	}
}

// GetAllTransformKinds 获取所有内置转换类型
func GetAllTransformKinds() []string {
	return []string{
		TransformKindRename,
		TransformKindDrop,
		TransformKindFillNA,
		TransformKindNormalize,
		TransformKindLog,
		TransformKindLowercase,
		TransformKindUppercase,
		TransformKindTrim,
		TransformKindExtractDatePart,
		TransformKindOneHotEncode,
		TransformKindCleanText,
		TransformKindAddColumn,
		TransformKindDropDuplicates,
		TransformKindCustom,
	}
}

// 日期部件常量,供 extract_date_part 转换使用
const (
	DatePartYear       = "year"
	DatePartMonth      = "month"
	DatePartDay        = "day"
	DatePartHour       = "hour"
	DatePartMinute     = "minute"
	DatePartSecond     = "second"
	DatePartDayOfWeek  = "dayofweek"
	DatePartDayOfYear  = "dayofyear"
	DatePartWeekOfYear = "weekofyear"
	DatePartQuarter    = "quarter"
)

// DatePartDisplayNames 日期部件显示名称映射
var DatePartDisplayNames = map[string]string{
	DatePartYear:       "年",
	DatePartMonth:      "月",
	DatePartDay:        "日",
	DatePartHour:       "时",
	DatePartMinute:     "分",
	DatePartSecond:     "秒",
	DatePartDayOfWeek:  "星期(周一为0)",
	DatePartDayOfYear:  "一年中的第几天",
	DatePartWeekOfYear: "ISO周数",
	DatePartQuarter:    "季度",
}

// IsValidDatePart 验证日期部件是否有效
func IsValidDatePart(part string) bool {
	_, exists := DatePartDisplayNames[part]
	return exists
}

// DefaultDatePart 默认提取的日期部件
const DefaultDatePart = DatePartYear
