package entity

import "time"

// =============================================================================
// FilledForm — 用户填写中的表单实例与状态机
// =============================================================================

// FormStatus 表单状态
type FormStatus string

const (
	StatusDraft             FormStatus = "draft"
	StatusCompleted         FormStatus = "completed"
	StatusReviewPending     FormStatus = "review_pending"
	StatusReviewCompleted   FormStatus = "review_completed"
	StatusExported          FormStatus = "exported"
	StatusSubmittedToSchool FormStatus = "submitted_to_school"
	StatusArchived          FormStatus = "archived"
)

// 状态推进顺序，仅允许前进
var statusOrder = map[FormStatus]int{
	StatusDraft:             0,
	StatusCompleted:         1,
	StatusReviewPending:     2,
	StatusReviewCompleted:   3,
	StatusExported:          4,
	StatusSubmittedToSchool: 5,
	StatusArchived:          6,
}

// IsValid 是否为已知状态
func (s FormStatus) IsValid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo 状态机约束：只允许前进；archived 可从任意状态进入且为终态
func (s FormStatus) CanTransitionTo(next FormStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == StatusArchived {
		return false
	}
	if next == StatusArchived {
		return true
	}
	return statusOrder[next] > statusOrder[s]
}

// AIProcessingStatus AI处理进度
type AIProcessingStatus string

const (
	AIProcessingIdle    AIProcessingStatus = "idle"
	AIProcessingRunning AIProcessingStatus = "processing"
	AIProcessingDone    AIProcessingStatus = "done"
	AIProcessingFailed  AIProcessingStatus = "failed"
)

// SchoolInfo 表单内嵌的学校摘要
type SchoolInfo struct {
	Name    string `json:"name" gorm:"column:school_name;size:256"`
	LogoURL string `json:"logoUrl" gorm:"column:school_logo_url;size:512"`
}

// FilledForm 用户表单实例
type FilledForm struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	UserID       string          `json:"userId" gorm:"size:36;not null;index"`
	TemplateID   string          `json:"templateId" gorm:"size:64;not null;index"`
	Title        LocalizedString `json:"title" gorm:"type:jsonb;not null;default:'{}'"`
	School       SchoolInfo      `json:"school" gorm:"embedded"`
	Sections     SectionList     `json:"sections" gorm:"type:jsonb;not null;default:'[]'"`
	Status       FormStatus      `json:"status" gorm:"size:32;not null;default:'draft'"`
	FormLanguage string          `json:"formLanguage" gorm:"size:8;not null;default:'zh-HK'"`

	// AI 处理进度（分析/提取期间更新，经SSE推送）
	AIStatus     AIProcessingStatus `json:"aiStatus,omitempty" gorm:"size:16;default:'idle'"`
	AIConfidence *int               `json:"aiConfidence,omitempty"`

	// 提交信息
	SubmittedAt         *time.Time `json:"submittedAt,omitempty"`
	SubmissionReference string     `json:"submissionReference,omitempty" gorm:"size:128"`

	SharedWith StringArray `json:"sharedWith" gorm:"type:jsonb;default:'[]'"`
	Notes      string      `json:"notes" gorm:"type:text"`

	// 乐观并发版本号，每次更新递增
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FilledForm) TableName() string {
	return "filled_forms"
}

// FindField 在所有普通分区内按字段ID查找
func (f *FilledForm) FindField(sectionID, fieldID string) *FormField {
	for si := range f.Sections {
		sec := &f.Sections[si]
		if sec.ID != sectionID {
			continue
		}
		for fi := range sec.Fields {
			if sec.Fields[fi].ID == fieldID {
				return &sec.Fields[fi]
			}
		}
	}
	return nil
}
