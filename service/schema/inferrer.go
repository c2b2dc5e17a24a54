/*
 * @module service/schema/inferrer
 * @description 模式推断引擎,对记录批次做统计剖析,产出字段画像与批次级统计
 * @architecture 纯函数计算 - 输入记录批次,输出不可变的模式画像
 * @documentReference dev_docs/requirements.md
 * @stateFlow 列提取 -> 粗类型判定 -> 按类型分派统计 -> 汇总画像
 * @rules 缺失键与null等同视为缺失;唯一值/样本值只统计非空值;
 *        偏度峰度为尽力计算,失败时仅记录debug日志并省略,绝不中断推断
 * @dependencies log/slog, math, sort, github.com/spf13/cast
 * @refs service/schema/suggest.go, service/schema/explainer.go
 */

package schema

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// 字段粗类型标签
const (
	TypeInt      = "int64"
	TypeFloat    = "float64"
	TypeBool     = "bool"
	TypeString   = "string"
	TypeDatetime = "datetime"
	TypeNull     = "null"
)

// datetimeLayouts 时间值解析尝试的布局列表
var datetimeLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// TableStats 批次级统计
type TableStats struct {
	RowCount      int `json:"row_count"`      // 行数
	ColumnCount   int `json:"column_count"`   // 列数
	MissingValues int `json:"missing_values"` // 缺失值总数
	DuplicateRows int `json:"duplicate_rows"` // 重复行数
}

// NumericStats 数值型字段统计
type NumericStats struct {
	Min          float64       `json:"min"`
	Max          float64       `json:"max"`
	Mean         float64       `json:"mean"`
	Median       float64       `json:"median"`
	Std          *float64      `json:"std,omitempty"` // 样本标准差,样本量不足2时省略
	Distribution *Distribution `json:"distribution,omitempty"`
}

// Distribution 分布形态统计,尽力计算
type Distribution struct {
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"`
}

// DatetimeStats 时间型字段统计
type DatetimeStats struct {
	Min      string `json:"min"`
	Max      string `json:"max"`
	TimeSpan string `json:"time_span"`
}

// StringStats 文本型字段统计
type StringStats struct {
	AvgLength    float64        `json:"avg_length"`
	UniqueValues int            `json:"unique_values"`
	MostCommon   map[string]int `json:"most_common"` // 频次前三的取值
}

// FieldProfile 单字段画像
type FieldProfile struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	SampleValues []interface{}  `json:"sample_values"` // 最多5个非空样本值,按记录顺序
	NullCount    int            `json:"null_count"`
	UniqueCount  int            `json:"unique_count"` // 非空不同取值数
	Numeric      *NumericStats  `json:"numeric,omitempty"`
	Datetime     *DatetimeStats `json:"datetime,omitempty"`
	String       *StringStats   `json:"string,omitempty"`
}

// SchemaProfile 模式画像,一次摄取产出一份,计算后不再修改
type SchemaProfile struct {
	Fields []FieldProfile `json:"fields"`
	Stats  TableStats     `json:"stats"`
}

// Interpreter 模式推断器,可选注入语言模型用于字段讲解
type Interpreter struct {
	llm LLMProvider
}

// NewInterpreter 创建模式推断器,llm为nil时字段讲解退回模板生成
func NewInterpreter(llm LLMProvider) *Interpreter {
	return &Interpreter{llm: llm}
}

// InferSchema 推断记录批次的模式画像
func (i *Interpreter) InferSchema(records []map[string]interface{}) *SchemaProfile {
	columns := collectColumns(records)

	profile := &SchemaProfile{
		Fields: make([]FieldProfile, 0, len(columns)),
		Stats:  computeTableStats(records, columns),
	}

	for _, col := range columns {
		profile.Fields = append(profile.Fields, profileColumn(col, records))
	}
	return profile
}

// collectColumns 收集所有记录出现过的列名,按字典序保证确定性
func collectColumns(records []map[string]interface{}) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			seen[key] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// computeTableStats 计算批次级统计,缺失键与null均计入缺失值
func computeTableStats(records []map[string]interface{}, columns []string) TableStats {
	stats := TableStats{
		RowCount:    len(records),
		ColumnCount: len(columns),
	}

	seen := make(map[string]bool, len(records))
	for _, record := range records {
		key := ""
		for _, col := range columns {
			value, present := record[col]
			if !present || value == nil {
				stats.MissingValues++
				key += "\x00∅"
				continue
			}
			key += "\x00" + distinctKey(value)
		}
		if seen[key] {
			stats.DuplicateRows++
		} else {
			seen[key] = true
		}
	}
	return stats
}

// profileColumn 生成单列画像
func profileColumn(col string, records []map[string]interface{}) FieldProfile {
	field := FieldProfile{
		Name:         col,
		SampleValues: []interface{}{},
	}

	var nonNull []interface{}
	distinct := make(map[string]bool)
	for _, record := range records {
		value, present := record[col]
		if !present || value == nil {
			field.NullCount++
			continue
		}
		nonNull = append(nonNull, value)
		distinct[distinctKey(value)] = true
		if len(field.SampleValues) < 5 {
			field.SampleValues = append(field.SampleValues, value)
		}
	}
	field.UniqueCount = len(distinct)
	field.Type = classifyColumn(nonNull)

	switch field.Type {
	case TypeInt, TypeFloat:
		field.Numeric = analyzeNumeric(col, nonNull)
	case TypeDatetime:
		field.Datetime = analyzeDatetime(nonNull)
	case TypeString:
		field.String = analyzeString(nonNull)
	}
	return field
}

// classifyColumn 判定列的粗类型:全体非空值同属一类才采用该类,否则退回string
func classifyColumn(values []interface{}) string {
	if len(values) == 0 {
		return TypeNull
	}

	boolCount, numericCount, integralCount, datetimeCount := 0, 0, 0, 0
	for _, v := range values {
		switch val := v.(type) {
		case bool:
			boolCount++
		case float64:
			numericCount++
			if val == math.Trunc(val) {
				integralCount++
			}
		case float32:
			numericCount++
			if float64(val) == math.Trunc(float64(val)) {
				integralCount++
			}
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			numericCount++
			integralCount++
		case time.Time:
			datetimeCount++
		case string:
			if _, ok := parseDatetime(val); ok {
				datetimeCount++
			}
		}
	}

	total := len(values)
	switch {
	case boolCount == total:
		return TypeBool
	case numericCount == total:
		if integralCount == total {
			return TypeInt
		}
		return TypeFloat
	case datetimeCount == total:
		return TypeDatetime
	default:
		return TypeString
	}
}

// analyzeNumeric 计算数值型统计,偏度峰度尽力计算失败省略
func analyzeNumeric(col string, values []interface{}) *NumericStats {
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			floats = append(floats, f)
		}
	}
	if len(floats) == 0 {
		return nil
	}

	sorted := append([]float64(nil), floats...)
	sort.Float64s(sorted)

	stats := &NumericStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean(floats),
		Median: median(sorted),
	}
	if len(floats) >= 2 {
		std := sampleStd(floats, stats.Mean)
		stats.Std = &std
	}

	dist, err := computeDistribution(floats, stats.Mean)
	if err != nil {
		slog.Debug("无法计算分布统计", "column", col, "error", err)
	} else {
		stats.Distribution = dist
	}
	return stats
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median 输入要求已排序
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStd 样本标准差(n-1)
func sampleStd(values []float64, mu float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += (v - mu) * (v - mu)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// computeDistribution 计算无偏偏度与超额峰度,样本量不足或方差为零时报错
func computeDistribution(values []float64, mu float64) (*Distribution, error) {
	n := float64(len(values))
	if n < 4 {
		return nil, fmt.Errorf("样本量不足: %d", len(values))
	}
	std := sampleStd(values, mu)
	if std == 0 {
		return nil, fmt.Errorf("标准差为零")
	}

	sum3, sum4 := 0.0, 0.0
	for _, v := range values {
		z := (v - mu) / std
		sum3 += z * z * z
		sum4 += z * z * z * z
	}

	skew := n / ((n - 1) * (n - 2)) * sum3
	kurtosis := n*(n+1)/((n-1)*(n-2)*(n-3))*sum4 - 3*(n-1)*(n-1)/((n-2)*(n-3))
	return &Distribution{Skew: skew, Kurtosis: kurtosis}, nil
}

// analyzeDatetime 计算时间型统计,时间以RFC3339输出
func analyzeDatetime(values []interface{}) *DatetimeStats {
	var minTime, maxTime time.Time
	found := false
	for _, v := range values {
		t, ok := toDatetime(v)
		if !ok {
			continue
		}
		if !found {
			minTime, maxTime = t, t
			found = true
			continue
		}
		if t.Before(minTime) {
			minTime = t
		}
		if t.After(maxTime) {
			maxTime = t
		}
	}
	if !found {
		return nil
	}
	return &DatetimeStats{
		Min:      minTime.Format(time.RFC3339),
		Max:      maxTime.Format(time.RFC3339),
		TimeSpan: maxTime.Sub(minTime).String(),
	}
}

// analyzeString 计算文本型统计,平均长度按字符数只统计真正的字符串值
func analyzeString(values []interface{}) *StringStats {
	counts := make(map[string]int)
	distinct := make(map[string]bool)
	lengthSum, lengthCount := 0, 0
	for _, v := range values {
		text := cast.ToString(v)
		counts[text]++
		distinct[distinctKey(v)] = true
		if s, ok := v.(string); ok {
			lengthSum += utf8.RuneCountInString(s)
			lengthCount++
		}
	}

	stats := &StringStats{
		UniqueValues: len(distinct),
		MostCommon:   topCounts(counts, 3),
	}
	if lengthCount > 0 {
		stats.AvgLength = float64(lengthSum) / float64(lengthCount)
	}
	return stats
}

// topCounts 取频次前k的取值,频次相同时按字典序保证确定性
func topCounts(counts map[string]int, k int) map[string]int {
	type entry struct {
		value string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, entry{value, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})

	top := make(map[string]int)
	for i := 0; i < len(entries) && i < k; i++ {
		top[entries[i].value] = entries[i].count
	}
	return top
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

// toDatetime 时间转换,接受time.Time或可解析的时间字符串
func toDatetime(v interface{}) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	if s, ok := v.(string); ok {
		return parseDatetime(s)
	}
	return time.Time{}, false
}

func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// distinctKey 值的判重键,带类型前缀避免跨类型碰撞
func distinctKey(v interface{}) string {
	return fmt.Sprintf("%T:%v", v, v)
}
