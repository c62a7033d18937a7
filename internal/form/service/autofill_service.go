package service

import (
	"strings"

	"github.com/HooJohn/form.ai/internal/form/entity"
)

// =============================================================================
// AutofillService — 字段匹配/自动填充引擎
// 把提取结果合并进表单：优先按 targetFieldIdHint 精确匹配字段ID，
// 无命中时退回大小写不敏感的标签子串匹配（召回优先，一条结果可命中多个字段）
// =============================================================================

// AutofillService 自动填充服务
type AutofillService struct{}

// NewAutofillService 创建自动填充服务
func NewAutofillService() *AutofillService {
	return &AutofillService{}
}

// AppliedChange 一次字段写入记录
type AppliedChange struct {
	SectionID  string `json:"sectionId"`
	FieldID    string `json:"fieldId"`
	Label      string `json:"label"`
	Value      string `json:"value"`
	MatchedBy  string `json:"matchedBy"` // id_hint / label
	Confidence *int   `json:"confidence,omitempty"`
}

// Apply 把提取结果写入表单字段（就地修改form.Sections），返回实际发生的写入。
// 默认跳过用户手工填写过的字段（人工输入优先）；force=true 时恢复全量覆盖。
func (s *AutofillService) Apply(form *entity.FilledForm, items []entity.ExtractedInfoItem, force bool) []AppliedChange {
	var changes []AppliedChange

	for _, item := range items {
		if item.Value == "" && item.NormalizedValue == "" {
			continue
		}

		// 第一轮：字段ID精确匹配
		if item.TargetFieldIDHint != "" {
			if applied := s.applyByID(form, item, force); len(applied) > 0 {
				changes = append(changes, applied...)
				continue
			}
		}

		// 第二轮：标签子串匹配
		changes = append(changes, s.applyByLabel(form, item, force)...)
	}

	return changes
}

func (s *AutofillService) applyByID(form *entity.FilledForm, item entity.ExtractedInfoItem, force bool) []AppliedChange {
	var changes []AppliedChange
	for si := range form.Sections {
		sec := &form.Sections[si]
		if sec.IsRepeatable {
			// 可重复分区的 fields 只描述形状，不承载值
			continue
		}
		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			if field.ID != item.TargetFieldIDHint {
				continue
			}
			if change, ok := s.fill(sec, field, item, "id_hint", form.FormLanguage, force); ok {
				changes = append(changes, change)
			}
		}
	}
	return changes
}

func (s *AutofillService) applyByLabel(form *entity.FilledForm, item entity.ExtractedInfoItem, force bool) []AppliedChange {
	var changes []AppliedChange
	needle := strings.ToLower(strings.TrimSpace(item.Label))
	if needle == "" {
		return nil
	}
	for si := range form.Sections {
		sec := &form.Sections[si]
		if sec.IsRepeatable {
			continue
		}
		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			label := strings.ToLower(field.Label.Resolve(form.FormLanguage))
			if label == "" || !strings.Contains(label, needle) {
				continue
			}
			if change, ok := s.fill(sec, field, item, "label", form.FormLanguage, force); ok {
				changes = append(changes, change)
			}
		}
	}
	return changes
}

// fill 写入单个字段并打上AI溯源标记
func (s *AutofillService) fill(sec *entity.FormSection, field *entity.FormField, item entity.ExtractedInfoItem, matchedBy, lang string, force bool) (AppliedChange, bool) {
	if field.Type.IsStructural() {
		return AppliedChange{}, false
	}
	// 人工输入优先
	if !force && field.PopulationSource == entity.SourceManual {
		return AppliedChange{}, false
	}

	value := item.Value
	if item.NormalizedValue != "" {
		value = item.NormalizedValue
	}

	field.Value = value
	field.PopulationSource = entity.SourceAIExtraction
	field.Confidence = item.Confidence
	field.IsVerifiedByHuman = false
	if item.Value != "" && item.Value != value {
		field.AISuggestions = []string{item.Value}
	}

	return AppliedChange{
		SectionID:  sec.ID,
		FieldID:    field.ID,
		Label:      field.Label.Resolve(lang),
		Value:      value,
		MatchedBy:  matchedBy,
		Confidence: item.Confidence,
	}, true
}
