package service

import (
	"context"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"go.uber.org/zap"
)

// FeedbackService 修正反馈服务
// 反馈是调优台账，写入失败只记日志，绝不打断用户的编辑
type FeedbackService struct {
	repo   *repository.FeedbackRepository
	logger *zap.Logger
}

// NewFeedbackService 创建反馈服务
func NewFeedbackService(repo *repository.FeedbackRepository, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{repo: repo, logger: logger}
}

// LogCorrection 记录一次用户对AI填充值的修正（fire-and-forget）
func (s *FeedbackService) LogCorrection(ctx context.Context, feedback *entity.CorrectionFeedback) {
	if feedback.ID == "" {
		feedback.ID = generateID()
	}
	if err := s.repo.Append(ctx, feedback); err != nil {
		s.logger.Error("failed to record correction feedback",
			zap.String("form_id", feedback.FormID),
			zap.String("field_id", feedback.FieldID),
			zap.Error(err))
	}
}

// ListByForm 获取某表单的修正记录
func (s *FeedbackService) ListByForm(ctx context.Context, formID string) ([]entity.CorrectionFeedback, error) {
	return s.repo.ListByForm(ctx, formID)
}
