/*
 * @module service/transform/steps
 * @description 内置转换步骤实现:重命名、删列、填充、归一化、对数、大小写、
 *              去空白、日期部分提取、独热编码、文本清洗、加列、去重与自定义分派
 * @architecture 封闭分派 - 内置类型穷举匹配,未命中时查自定义注册表
 * @documentReference dev_docs/requirements.md
 * @stateFlow 参数校验 -> 类型分派 -> 列值变换 -> 写回批次
 * @rules 归一化遇退化取值范围必须报错而非产出NaN;null值在数值变换中保持null;
 *        文本变换先将非null值强制转为字符串
 * @dependencies math, regexp, github.com/spf13/cast
 * @refs service/transform/pipeline.go, service/meta/transform.go
 */

package transform

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"nexuscore-service/service/meta"
)

var (
	digitsPattern  = regexp.MustCompile(`\d+`)
	specialPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// dateLayouts 日期值解析尝试的布局列表
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// applyStep 校验并执行单个转换步骤。类型与目标列的校验错误不带步骤上下文,
// 步骤执行中的错误以步骤类型与目标列包装
func (t *Transformer) applyStep(b *batch, step *TransformStep) error {
	if step.Type == "" {
		return newMissingParameterError("转换类型不能为空")
	}
	if step.Column == "" && meta.TransformKindRequiresColumn(step.Type) {
		return newMissingParameterError("%s 转换需要指定column参数", step.Type)
	}

	if err := t.dispatchStep(b, step); err != nil {
		return wrapStepError(step.Type, step.Column, err)
	}
	return nil
}

// dispatchStep 内置类型穷举分派,未命中时查自定义注册表
func (t *Transformer) dispatchStep(b *batch, step *TransformStep) error {
	switch step.Type {
	case meta.TransformKindRename:
		return applyRename(b, step)
	case meta.TransformKindDrop:
		return applyDrop(b, step.Column)
	case meta.TransformKindFillNA:
		return applyFillNA(b, step)
	case meta.TransformKindNormalize:
		return applyNormalize(b, step.Column)
	case meta.TransformKindLog:
		return applyLog(b, step.Column)
	case meta.TransformKindLowercase:
		return applyText(b, step.Column, strings.ToLower)
	case meta.TransformKindUppercase:
		return applyText(b, step.Column, strings.ToUpper)
	case meta.TransformKindTrim:
		return applyText(b, step.Column, strings.TrimSpace)
	case meta.TransformKindExtractDatePart:
		return applyExtractDatePart(b, step)
	case meta.TransformKindOneHotEncode:
		return applyOneHotEncode(b, step)
	case meta.TransformKindCleanText:
		return applyCleanText(b, step)
	case meta.TransformKindAddColumn:
		return applyAddColumn(b, step)
	case meta.TransformKindDropDuplicates:
		return applyDropDuplicates(b)
	case meta.TransformKindCustom:
		if step.TransformName == "" {
			return newMissingParameterError("custom 转换需要指定transform_name参数")
		}
		return t.applyCustomTransform(b, step.Column, step.TransformName, step.Params)
	default:
		if _, ok := t.lookupCustom(step.Type); ok {
			return t.applyCustomTransform(b, step.Column, step.Type, step.Params)
		}
		return newUnknownKindError(step.Type)
	}
}

// applyRename 重命名列。目标列不存在时静默跳过
func applyRename(b *batch, step *TransformStep) error {
	if step.NewName == "" {
		return newMissingParameterError("rename 转换需要指定new_name参数")
	}
	if !b.hasColumn(step.Column) {
		return nil
	}
	b.renameColumn(step.Column, step.NewName)
	return nil
}

// applyDrop 删除列,列不存在时报错
func applyDrop(b *batch, column string) error {
	if !b.hasColumn(column) {
		return fmt.Errorf("列不存在: %s", column)
	}
	b.dropColumn(column)
	return nil
}

// applyFillNA 填充缺失值,缺失键与null均视为缺失,默认填充0
func applyFillNA(b *batch, step *TransformStep) error {
	if !b.hasColumn(step.Column) {
		return fmt.Errorf("列不存在: %s", step.Column)
	}
	fill := step.Value
	if fill == nil {
		fill = 0
	}

	values := b.getColumn(step.Column)
	for i, v := range values {
		if v == nil {
			values[i] = fill
		}
	}
	b.setColumn(step.Column, values)
	return nil
}

// applyNormalize 最小-最大归一化到[0,1]。取值范围退化时显式报错,null保持null
func applyNormalize(b *batch, column string) error {
	if !b.hasColumn(column) {
		return fmt.Errorf("列不存在: %s", column)
	}

	values := b.getColumn(column)
	var minVal, maxVal float64
	found := false
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("列 %s 包含非数值: %v", column, v)
		}
		if !found {
			minVal, maxVal = f, f
			found = true
			continue
		}
		if f < minVal {
			minVal = f
		}
		if f > maxVal {
			maxVal = f
		}
	}
	if !found {
		return fmt.Errorf("列 %s 没有可归一化的数值", column)
	}
	if minVal == maxVal {
		return fmt.Errorf("列 %s 的最小值与最大值相等, 无法归一化", column)
	}

	span := maxVal - minVal
	for i, v := range values {
		if v == nil {
			continue
		}
		f, _ := toFloat(v)
		values[i] = (f - minVal) / span
	}
	b.setColumn(column, values)
	return nil
}

// applyLog 自然对数变换ln(1+x),null保持null,定义域外的值报错
func applyLog(b *batch, column string) error {
	if !b.hasColumn(column) {
		return fmt.Errorf("列不存在: %s", column)
	}

	values := b.getColumn(column)
	for i, v := range values {
		if v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("列 %s 包含非数值: %v", column, v)
		}
		if f <= -1 {
			return fmt.Errorf("值 %v 不在对数变换定义域内", v)
		}
		values[i] = math.Log1p(f)
	}
	b.setColumn(column, values)
	return nil
}

// applyText 文本变换,非null值先强制转为字符串,null保持null
func applyText(b *batch, column string, fn func(string) string) error {
	if !b.hasColumn(column) {
		return fmt.Errorf("列不存在: %s", column)
	}

	values := b.getColumn(column)
	for i, v := range values {
		if v == nil {
			continue
		}
		values[i] = fn(cast.ToString(v))
	}
	b.setColumn(column, values)
	return nil
}

// applyExtractDatePart 解析目标列为时间并提取指定部分到新列。
// 星期一为0,周数按ISO标准
func applyExtractDatePart(b *batch, step *TransformStep) error {
	if !b.hasColumn(step.Column) {
		return fmt.Errorf("列不存在: %s", step.Column)
	}
	part := step.Part
	if part == "" {
		part = meta.DefaultDatePart
	}
	if !meta.IsValidDatePart(part) {
		return fmt.Errorf("不支持的日期部分: %s", part)
	}
	outputColumn := step.OutputColumn
	if outputColumn == "" {
		outputColumn = step.Column + "_" + part
	}

	values := b.getColumn(step.Column)
	extracted := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			extracted[i] = nil
			continue
		}
		parsed, err := parseDateValue(v)
		if err != nil {
			return err
		}
		extracted[i] = extractDatePart(parsed, part)
	}
	b.setColumn(outputColumn, extracted)
	return nil
}

func parseDateValue(v interface{}) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	text := cast.ToString(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间值: %v", v)
}

func extractDatePart(t time.Time, part string) int {
	switch part {
	case meta.DatePartYear:
		return t.Year()
	case meta.DatePartMonth:
		return int(t.Month())
	case meta.DatePartDay:
		return t.Day()
	case meta.DatePartHour:
		return t.Hour()
	case meta.DatePartMinute:
		return t.Minute()
	case meta.DatePartSecond:
		return t.Second()
	case meta.DatePartDayOfWeek:
		return (int(t.Weekday()) + 6) % 7
	case meta.DatePartDayOfYear:
		return t.YearDay()
	case meta.DatePartWeekOfYear:
		_, week := t.ISOWeek()
		return week
	case meta.DatePartQuarter:
		return (int(t.Month())-1)/3 + 1
	default:
		return 0
	}
}

// applyOneHotEncode 独热编码。指示列按取值字典序追加,命名为{前缀}_{取值},
// null行所有指示列为0且不产生专属列
func applyOneHotEncode(b *batch, step *TransformStep) error {
	if !b.hasColumn(step.Column) {
		return fmt.Errorf("列不存在: %s", step.Column)
	}
	prefix := step.Prefix
	if prefix == "" {
		prefix = step.Column
	}
	dropOriginal := true
	if step.DropOriginal != nil {
		dropOriginal = *step.DropOriginal
	}

	values := b.getColumn(step.Column)
	distinct := make(map[string]bool)
	for _, v := range values {
		if v != nil {
			distinct[cast.ToString(v)] = true
		}
	}
	categories := make([]string, 0, len(distinct))
	for category := range distinct {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		indicators := make([]interface{}, len(values))
		for i, v := range values {
			if v != nil && cast.ToString(v) == category {
				indicators[i] = 1
			} else {
				indicators[i] = 0
			}
		}
		b.setColumn(prefix+"_"+category, indicators)
	}

	if dropOriginal {
		b.dropColumn(step.Column)
	}
	return nil
}

// applyCleanText 文本清洗:转小写,可选去数字,可选去除字母/数字/下划线/空白以外的
// 字符(Unicode感知),连续空白折叠为单个空格并去除首尾空白
func applyCleanText(b *batch, step *TransformStep) error {
	if !b.hasColumn(step.Column) {
		return fmt.Errorf("列不存在: %s", step.Column)
	}
	removeSpecialChars := true
	if step.RemoveSpecialChars != nil {
		removeSpecialChars = *step.RemoveSpecialChars
	}

	values := b.getColumn(step.Column)
	for i, v := range values {
		if v == nil {
			continue
		}
		text := strings.ToLower(cast.ToString(v))
		if step.RemoveNumbers {
			text = digitsPattern.ReplaceAllString(text, "")
		}
		if removeSpecialChars {
			text = specialPattern.ReplaceAllString(text, "")
		}
		text = spacePattern.ReplaceAllString(text, " ")
		values[i] = strings.TrimSpace(text)
	}
	b.setColumn(step.Column, values)
	return nil
}

// applyAddColumn 新增常量值列
func applyAddColumn(b *batch, step *TransformStep) error {
	if step.NewName == "" {
		return newMissingParameterError("add_column 转换需要指定new_name参数")
	}
	values := make([]interface{}, len(b.records))
	for i := range values {
		values[i] = step.Value
	}
	b.setColumn(step.NewName, values)
	return nil
}

// applyDropDuplicates 删除完全重复的记录,保留首次出现
func applyDropDuplicates(b *batch) error {
	seen := make(map[string]bool, len(b.records))
	kept := b.records[:0]
	for _, record := range b.records {
		key := ""
		for _, col := range b.columns {
			value, present := record[col]
			if !present || value == nil {
				key += "\x00∅"
				continue
			}
			key += "\x00" + fmt.Sprintf("%T:%v", value, value)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, record)
	}
	b.records = kept
	return nil
}

// applyCustomTransform 执行已注册的自定义转换
func (t *Transformer) applyCustomTransform(b *batch, column, name string, params map[string]interface{}) error {
	fn, ok := t.lookupCustom(name)
	if !ok {
		return fmt.Errorf("自定义转换不存在: %s", name)
	}
	if !b.hasColumn(column) {
		return fmt.Errorf("列不存在: %s", column)
	}

	values := b.getColumn(column)
	result, err := fn(values, params)
	if err != nil {
		return err
	}
	if len(result) != len(values) {
		return fmt.Errorf("自定义转换返回的记录数不一致: 期望 %d 实际 %d", len(values), len(result))
	}
	b.setColumn(column, result)
	return nil
}

// toFloat 数值转换,仅接受真正的数值类型
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}
