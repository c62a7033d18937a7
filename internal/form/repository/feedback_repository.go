package repository

import (
	"context"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"gorm.io/gorm"
)

// FeedbackRepository 修正反馈仓库（只追加）
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建反馈仓库
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Append 追加一条修正记录
func (r *FeedbackRepository) Append(ctx context.Context, feedback *entity.CorrectionFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// ListByForm 获取某表单的全部修正记录，按时间排序
func (r *FeedbackRepository) ListByForm(ctx context.Context, formID string) ([]entity.CorrectionFeedback, error) {
	var records []entity.CorrectionFeedback
	if err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count 反馈总数
func (r *FeedbackRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.CorrectionFeedback{}).Count(&count).Error
	return count, err
}
