package entity

import (
	"database/sql/driver"
	"encoding/json"
)

// =============================================================================
// FormSection — 表单分区
// =============================================================================

// VisibilityCondition 分区显示条件：引用字段值与给定值比较
type VisibilityCondition struct {
	FieldID  string      `json:"fieldId"`
	Operator string      `json:"operator"` // equals / not_equals / contains
	Value    interface{} `json:"value"`
}

// RepeatableSectionInstance 可重复分区的一次实例，携带实际值
type RepeatableSectionInstance struct {
	ID     string      `json:"id"`
	Fields []FormField `json:"fields"`
}

// FormSection 字段的有序分组
// 不变式：普通分区由 Fields 承载实际值；可重复分区的 Fields 仅描述形状，
// 实际值由 Instances 承载，两者不得混用
type FormSection struct {
	ID                  string                      `json:"id"`
	Title               LocalizedString             `json:"title"`
	Description         LocalizedString             `json:"description,omitempty"`
	Fields              []FormField                 `json:"fields"`
	DisplayOrder        int                         `json:"displayOrder"`
	VisibilityCondition *VisibilityCondition        `json:"visibilityCondition,omitempty"`
	IsRepeatable        bool                        `json:"isRepeatable,omitempty"`
	MinRepetitions      *int                        `json:"minRepetitions,omitempty"`
	MaxRepetitions      *int                        `json:"maxRepetitions,omitempty"`
	Instances           []RepeatableSectionInstance `json:"instances,omitempty"`
}

// SectionList 分区数组，存储为JSONB列
type SectionList []FormSection

func (s SectionList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *SectionList) Scan(value interface{}) error {
	return scanJSON(value, s)
}
