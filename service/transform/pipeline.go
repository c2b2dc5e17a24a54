/*
 * @module service/transform/pipeline
 * @description 转换管道,按规格顺序执行转换步骤,失败快速中止并保留原始数据
 * @architecture 管道模式 - 内置步骤封闭分派 + 自定义转换开放注册表
 * @documentReference dev_docs/requirements.md
 * @stateFlow 复制输入 -> 逐步执行 -> 成功返回转换数据 / 失败返回原始数据
 * @rules 步骤错误在管道边界捕获并转为TransformationResult,不向调用方抛出;
 *        列顺序全程跟踪,成功元数据中的transformed_columns保持有序
 * @dependencies log/slog, sync
 * @refs service/transform/steps.go, service/transform/errors.go
 */

package transform

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// TransformFunc 自定义转换函数:输入目标列的全部取值与参数,返回替换后的取值
type TransformFunc func(values []interface{}, params map[string]interface{}) ([]interface{}, error)

// Transformer 转换器,持有自定义转换注册表
type Transformer struct {
	customMu sync.RWMutex
	custom   map[string]TransformFunc
}

// NewTransformer 创建转换器
func NewTransformer() *Transformer {
	return &Transformer{
		custom: make(map[string]TransformFunc),
	}
}

// RegisterTransform 注册自定义转换函数,同名覆盖
func (t *Transformer) RegisterTransform(name string, fn TransformFunc) {
	t.customMu.Lock()
	defer t.customMu.Unlock()
	t.custom[name] = fn
}

// lookupCustom 查找已注册的自定义转换
func (t *Transformer) lookupCustom(name string) (TransformFunc, bool) {
	t.customMu.RLock()
	defer t.customMu.RUnlock()
	fn, ok := t.custom[name]
	return fn, ok
}

// RegisteredTransforms 返回已注册的自定义转换名列表
func (t *Transformer) RegisteredTransforms() []string {
	t.customMu.RLock()
	defer t.customMu.RUnlock()
	names := make([]string, 0, len(t.custom))
	for name := range t.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply 按规格对记录批次应用转换。任一步骤失败即中止,
// 返回原始输入数据与失败消息;空规格等价于恒等转换
func (t *Transformer) Apply(records []map[string]interface{}, spec *TransformSpec) *TransformationResult {
	b := newBatch(records)

	var steps []TransformStep
	if spec != nil {
		steps = spec.Steps
	}

	for _, step := range steps {
		if err := t.applyStep(b, &step); err != nil {
			slog.Error("转换执行失败", "type", step.Type, "column", step.Column, "error", err)
			return &TransformationResult{
				Success:         false,
				TransformedData: records,
				Message:         fmt.Sprintf("转换失败: %v", err),
				Metadata:        map[string]interface{}{"error": err.Error()},
			}
		}
	}

	return &TransformationResult{
		Success:         true,
		TransformedData: b.records,
		Message:         "转换完成",
		Metadata: map[string]interface{}{
			"transformed_columns": b.columns,
			"row_count":           len(b.records),
		},
	}
}

// batch 转换工作批次,records为输入的逐记录副本,columns跟踪有序列名
type batch struct {
	records []map[string]interface{}
	columns []string
}

// newBatch 复制输入记录并收集列名,初始列序按字典序保证确定性
func newBatch(records []map[string]interface{}) *batch {
	copied := make([]map[string]interface{}, len(records))
	seen := make(map[string]bool)
	for i, record := range records {
		clone := make(map[string]interface{}, len(record))
		for key, value := range record {
			clone[key] = value
			seen[key] = true
		}
		copied[i] = clone
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	return &batch{records: copied, columns: columns}
}

func (b *batch) hasColumn(column string) bool {
	for _, col := range b.columns {
		if col == column {
			return true
		}
	}
	return false
}

// getColumn 读取目标列的全部取值,缺失键读作nil
func (b *batch) getColumn(column string) []interface{} {
	values := make([]interface{}, len(b.records))
	for i, record := range b.records {
		values[i] = record[column]
	}
	return values
}

// setColumn 写回目标列取值,列不存在时追加到列序末尾
func (b *batch) setColumn(column string, values []interface{}) {
	if !b.hasColumn(column) {
		b.columns = append(b.columns, column)
	}
	for i, record := range b.records {
		record[column] = values[i]
	}
}

// renameColumn 重命名列,列序位置保持不变
func (b *batch) renameColumn(column, newName string) {
	for i, col := range b.columns {
		if col == column {
			b.columns[i] = newName
			break
		}
	}
	for _, record := range b.records {
		if value, ok := record[column]; ok {
			record[newName] = value
		}
		delete(record, column)
	}
}

// dropColumn 删除列
func (b *batch) dropColumn(column string) {
	for i, col := range b.columns {
		if col == column {
			b.columns = append(b.columns[:i], b.columns[i+1:]...)
			break
		}
	}
	for _, record := range b.records {
		delete(record, column)
	}
}
