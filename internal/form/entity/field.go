package entity

// =============================================================================
// FormField — 表单字段定义
// =============================================================================

// FormFieldType 字段类型
type FormFieldType string

const (
	FieldTypeText      FormFieldType = "text"
	FieldTypeTextarea  FormFieldType = "textarea"
	FieldTypeNumber    FormFieldType = "number"
	FieldTypeDate      FormFieldType = "date"
	FieldTypeDatetime  FormFieldType = "datetime"
	FieldTypeTime      FormFieldType = "time"
	FieldTypeEmail     FormFieldType = "email"
	FieldTypeTel       FormFieldType = "tel"
	FieldTypeURL       FormFieldType = "url"
	FieldTypePassword  FormFieldType = "password"
	FieldTypeSelect    FormFieldType = "select"
	FieldTypeRadio     FormFieldType = "radio"
	FieldTypeCheckbox  FormFieldType = "checkbox"
	FieldTypeFile      FormFieldType = "file_upload"
	FieldTypeSignature FormFieldType = "signature"
	FieldTypeRichText  FormFieldType = "rich_text"
	FieldTypeAddress   FormFieldType = "address"
	FieldTypeHKID      FormFieldType = "hkid"
	// 纯展示类型，不承载值
	FieldTypeInfoText  FormFieldType = "info_text"
	FieldTypeSeparator FormFieldType = "separator"
	FieldTypeHeader    FormFieldType = "header"
)

var validFieldTypes = map[FormFieldType]bool{
	FieldTypeText: true, FieldTypeTextarea: true, FieldTypeNumber: true,
	FieldTypeDate: true, FieldTypeDatetime: true, FieldTypeTime: true,
	FieldTypeEmail: true, FieldTypeTel: true, FieldTypeURL: true,
	FieldTypePassword: true, FieldTypeSelect: true, FieldTypeRadio: true,
	FieldTypeCheckbox: true, FieldTypeFile: true, FieldTypeSignature: true,
	FieldTypeRichText: true, FieldTypeAddress: true, FieldTypeHKID: true,
	FieldTypeInfoText: true, FieldTypeSeparator: true, FieldTypeHeader: true,
}

// IsValid 是否为已知字段类型
func (t FormFieldType) IsValid() bool {
	return validFieldTypes[t]
}

// IsChoice 选择类字段必须携带选项列表
func (t FormFieldType) IsChoice() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeCheckbox
}

// IsStructural 纯展示字段，不承载用户输入
func (t FormFieldType) IsStructural() bool {
	return t == FieldTypeInfoText || t == FieldTypeSeparator || t == FieldTypeHeader
}

// PopulationSource 字段值来源标记
type PopulationSource string

const (
	SourceManual          PopulationSource = "manual"
	SourceAIExtraction    PopulationSource = "ai_extraction"
	SourceUserProfile     PopulationSource = "user_profile"
	SourceTemplateDefault PopulationSource = "template_default"
)

// FieldOption 选择类字段的选项
type FieldOption struct {
	Label LocalizedString `json:"label"`
	Value string          `json:"value"`
}

// ValidationRules 字段校验规则
type ValidationRules struct {
	Required         bool     `json:"required,omitempty"`
	MinLength        *int     `json:"minLength,omitempty"`
	MaxLength        *int     `json:"maxLength,omitempty"`
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	Pattern          string   `json:"pattern,omitempty"`
	AllowedFileTypes []string `json:"allowedFileTypes,omitempty"`
	MaxFileSizeMB    *int     `json:"maxFileSizeMB,omitempty"`
	ImageWidth       *int     `json:"imageWidth,omitempty"`
	ImageHeight      *int     `json:"imageHeight,omitempty"`
}

// FormField 原子输入项
// Value 可为 string / number / bool / []string / nil
type FormField struct {
	ID          string           `json:"id"`
	Label       LocalizedString  `json:"label"`
	Type        FormFieldType    `json:"type"`
	Value       interface{}      `json:"value"`
	Placeholder LocalizedString  `json:"placeholder,omitempty"`
	HelpText    LocalizedString  `json:"helpText,omitempty"`
	Options     []FieldOption    `json:"options,omitempty"`
	Validation  *ValidationRules `json:"validation,omitempty"`

	// AI 填充溯源
	Confidence        *int             `json:"confidence,omitempty"` // 0-100
	IsVerifiedByHuman bool             `json:"isVerifiedByHuman,omitempty"`
	AISuggestions     []string         `json:"aiSuggestions,omitempty"`
	PopulationSource  PopulationSource `json:"populationSource,omitempty"`
}

// ClearAIProvenance 人工改写AI填充值后清除AI标记
func (f *FormField) ClearAIProvenance() {
	f.PopulationSource = SourceManual
	f.Confidence = nil
	f.AISuggestions = nil
	f.IsVerifiedByHuman = true
}
