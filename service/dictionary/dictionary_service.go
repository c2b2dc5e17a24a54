/*
 * @module service/dictionary/dictionary_service
 * @description 数据字典服务,负责各数据源字段定义的维护、查询、
 *              分类检索、字段映射建议与Markdown文档生成
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 字段定义校验 -> 事务内整体替换 -> 查询/文档生成
 * @rules 同一数据源的字段名必须唯一;字典更新按数据源整体替换;
 *        文档中字段按名称排序保证输出稳定
 * @dependencies nexuscore-service/service/models, gorm.io/gorm
 * @refs service/ingestion, api/controllers/dictionary_controller.go
 */

package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"nexuscore-service/service/models"
)

// DictionaryService 数据字典服务
type DictionaryService struct {
	db *gorm.DB
}

// NewDictionaryService 创建数据字典服务实例
func NewDictionaryService(db *gorm.DB) *DictionaryService {
	return &DictionaryService{db: db}
}

// UpsertDictionary 新建或整体替换指定数据源的数据字典。
// 传入空列表时清空该数据源的全部字段定义
func (s *DictionaryService) UpsertDictionary(sourceKey string, fields []models.FieldDefinition) error {
	if sourceKey == "" {
		return errors.New("数据源标识不能为空")
	}

	seen := make(map[string]bool, len(fields))
	for i := range fields {
		if fields[i].Name == "" {
			return errors.New("字段名称不能为空")
		}
		if fields[i].DataType == "" {
			return fmt.Errorf("字段 %s 缺少数据类型", fields[i].Name)
		}
		if seen[fields[i].Name] {
			return fmt.Errorf("字段名称重复: %s", fields[i].Name)
		}
		seen[fields[i].Name] = true
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_key = ?", sourceKey).Delete(&models.FieldDefinition{}).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		for i := range fields {
			fields[i].ID = ""
			fields[i].SourceKey = sourceKey
		}
		return tx.Create(&fields).Error
	})
}

// GetField 查询指定数据源的单个字段定义
func (s *DictionaryService) GetField(sourceKey, fieldName string) (*models.FieldDefinition, error) {
	var field models.FieldDefinition
	if err := s.db.First(&field, "source_key = ? AND name = ?", sourceKey, fieldName).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

// ListFields 查询指定数据源的全部字段定义,按字段名排序
func (s *DictionaryService) ListFields(sourceKey string) ([]models.FieldDefinition, error) {
	var fields []models.FieldDefinition
	if err := s.db.Where("source_key = ?", sourceKey).Order("name").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// ListSources 查询已建立数据字典的数据源标识列表
func (s *DictionaryService) ListSources() ([]string, error) {
	var keys []string
	err := s.db.Model(&models.FieldDefinition{}).
		Distinct("source_key").
		Order("source_key").
		Pluck("source_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListFieldsByCategory 跨数据源按分类检索字段定义。
// 分类存储为jsonb数组,为兼容sqlite测试环境在应用层过滤
func (s *DictionaryService) ListFieldsByCategory(category string) ([]models.FieldDefinition, error) {
	if category == "" {
		return nil, errors.New("分类名称不能为空")
	}

	var all []models.FieldDefinition
	if err := s.db.Order("source_key").Order("name").Find(&all).Error; err != nil {
		return nil, err
	}

	matched := make([]models.FieldDefinition, 0)
	for _, field := range all {
		for _, c := range field.Categories {
			if c == category {
				matched = append(matched, field)
				break
			}
		}
	}
	return matched, nil
}

// GenerateDocumentation 生成指定数据源的数据字典Markdown文档。
// 数据源没有字典时返回提示文本而非错误
func (s *DictionaryService) GenerateDocumentation(sourceKey string) (string, error) {
	fields, err := s.ListFields(sourceKey)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return fmt.Sprintf("未找到数据源 %s 的数据字典", sourceKey), nil
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s 数据字典\n\n", sourceKey)
	fmt.Fprintf(&doc, "最后更新: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	for _, field := range fields {
		displayName := field.DisplayName
		if displayName == "" {
			displayName = field.Name
		}
		fmt.Fprintf(&doc, "## %s (`%s`)\n", displayName, field.Name)
		fmt.Fprintf(&doc, "- **类型**: %s\n", field.DataType)
		if field.Required {
			doc.WriteString("- **必填**: 是\n")
		} else {
			doc.WriteString("- **必填**: 否\n")
		}
		if field.Description != "" {
			fmt.Fprintf(&doc, "- **说明**: %s\n", field.Description)
		}
		if field.Example != "" {
			fmt.Fprintf(&doc, "- **示例**: `%s`\n", field.Example)
		}
		if field.Sensitive {
			doc.WriteString("- **敏感**: 是\n")
		}
		if len(field.Categories) > 0 {
			fmt.Fprintf(&doc, "- **分类**: %s\n", strings.Join(field.Categories, ", "))
		}
		doc.WriteString("\n")
	}

	return doc.String(), nil
}

// SuggestFieldMappings 基于规范化名称为源字段与目标字段建议映射关系。
// 优先精确匹配,其次子串包含,每个目标字段最多映射一次
func (s *DictionaryService) SuggestFieldMappings(sourceFields, targetFields []string) map[string]string {
	mappings := make(map[string]string)
	used := make(map[string]bool, len(targetFields))

	normalized := make([]string, len(targetFields))
	for i, target := range targetFields {
		normalized[i] = normalizeFieldName(target)
	}

	// 第一轮:规范化名称精确匹配
	for _, source := range sourceFields {
		key := normalizeFieldName(source)
		if key == "" {
			continue
		}
		for i, target := range targetFields {
			if used[target] || normalized[i] != key {
				continue
			}
			mappings[source] = target
			used[target] = true
			break
		}
	}

	// 第二轮:规范化名称子串包含
	for _, source := range sourceFields {
		if _, ok := mappings[source]; ok {
			continue
		}
		key := normalizeFieldName(source)
		if key == "" {
			continue
		}
		candidates := make([]string, 0)
		for i, target := range targetFields {
			if used[target] || normalized[i] == "" {
				continue
			}
			if strings.Contains(normalized[i], key) || strings.Contains(key, normalized[i]) {
				candidates = append(candidates, target)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Strings(candidates)
		mappings[source] = candidates[0]
		used[candidates[0]] = true
	}

	return mappings
}

// normalizeFieldName 字段名规范化:转小写并去除字母数字以外的字符,中文字符保留
func normalizeFieldName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
