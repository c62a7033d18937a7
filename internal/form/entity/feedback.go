package entity

import "time"

// CorrectionFeedback 用户对AI填充值的修正记录
// 只追加，不更新不删除，作为后续调优的反馈台账
type CorrectionFeedback struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	FormID             string    `json:"formId" gorm:"size:36;not null;index"`
	SectionID          string    `json:"sectionId" gorm:"size:64;not null"`
	FieldID            string    `json:"fieldId" gorm:"size:64;not null"`
	OriginalAIValue    string    `json:"originalAiValue" gorm:"type:text"`
	UserCorrectedValue string    `json:"userCorrectedValue" gorm:"type:text"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (CorrectionFeedback) TableName() string {
	return "correction_feedbacks"
}
