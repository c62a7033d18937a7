package entity

import "time"

// =============================================================================
// FormTemplate — 表单模板（不可被终端用户修改的蓝本）
// =============================================================================

// ApplicationType 申请类型
type ApplicationType string

const (
	ApplicationNewStudent      ApplicationType = "new_student"
	ApplicationTransferStudent ApplicationType = "transfer_student"
	ApplicationPrimaryOne      ApplicationType = "primary_one_admission"
	ApplicationSecondaryOne    ApplicationType = "secondary_one_admission"
	ApplicationOther           ApplicationType = "other"
)

// FormTemplate 表单模板
type FormTemplate struct {
	ID              string          `json:"id" gorm:"primaryKey;size:64"`
	SchoolName      string          `json:"schoolName" gorm:"size:256;not null"`
	SchoolLogoURL   string          `json:"schoolLogoUrl" gorm:"size:512"`
	Title           LocalizedString `json:"title" gorm:"type:jsonb;not null;default:'{}'"`
	Description     LocalizedString `json:"description" gorm:"type:jsonb;default:'{}'"`
	TargetGrades    StringArray     `json:"targetGrades" gorm:"type:jsonb;default:'[]'"`
	ApplicationType ApplicationType `json:"applicationType" gorm:"size:32;not null;default:'other'"`
	Version         string          `json:"version" gorm:"size:32;default:'1.0'"`
	Sections        SectionList     `json:"sections" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedBy       string          `json:"createdBy" gorm:"size:36"`
	LastUpdated     time.Time       `json:"lastUpdated"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}
