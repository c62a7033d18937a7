package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/form/sse"
	"go.uber.org/zap"
)

// 表单服务错误
var (
	ErrForbidden         = errors.New("form does not belong to this user")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// FormService 用户表单服务
type FormService struct {
	formRepo     *repository.FormRepository
	templateRepo *repository.TemplateRepository
	autofill     *AutofillService
	feedback     *FeedbackService
	logger       *zap.Logger
}

// NewFormService 创建表单服务
func NewFormService(formRepo *repository.FormRepository, templateRepo *repository.TemplateRepository, autofill *AutofillService, feedback *FeedbackService, logger *zap.Logger) *FormService {
	return &FormService{
		formRepo:     formRepo,
		templateRepo: templateRepo,
		autofill:     autofill,
		feedback:     feedback,
		logger:       logger,
	}
}

// CreateFromTemplate 从模板实例化表单
// 初始为 DRAFT、空分区、版本1，学校摘要从模板复制
func (s *FormService) CreateFromTemplate(ctx context.Context, templateID, userID string) (*entity.FilledForm, error) {
	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	form := &entity.FilledForm{
		ID:         generateID(),
		UserID:     userID,
		TemplateID: template.ID,
		Title:      template.Title,
		School: entity.SchoolInfo{
			Name:    template.SchoolName,
			LogoURL: template.SchoolLogoURL,
		},
		Sections:     entity.SectionList{},
		Status:       entity.StatusDraft,
		FormLanguage: entity.LangZhHK,
		AIStatus:     entity.AIProcessingIdle,
		SharedWith:   entity.StringArray{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.formRepo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("创建表单失败: %w", err)
	}
	return form, nil
}

// ListByUser 获取用户的全部表单
func (s *FormService) ListByUser(ctx context.Context, userID string) ([]entity.FilledForm, error) {
	return s.formRepo.ListByUser(ctx, userID)
}

// Get 获取表单详情（校验归属：所有者、被分享者或管理员）
func (s *FormService) Get(ctx context.Context, id, userID, role string) (*entity.FilledForm, error) {
	form, err := s.formRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(form, userID, role) {
		return nil, ErrForbidden
	}
	return form, nil
}

func (s *FormService) canAccess(form *entity.FilledForm, userID, role string) bool {
	if form.UserID == userID || role == entity.RoleAdmin {
		return true
	}
	for _, shared := range form.SharedWith {
		if shared == userID {
			return true
		}
	}
	return false
}

// UpdateFormRequest 更新表单请求（部分更新）
type UpdateFormRequest struct {
	Title        entity.LocalizedString `json:"title"`
	Sections     entity.SectionList     `json:"sections"`
	Status       *entity.FormStatus     `json:"status"`
	FormLanguage *string                `json:"formLanguage"`
	Notes        *string                `json:"notes"`
	SharedWith   []string               `json:"sharedWith"`
	// 乐观并发：调用方读到的版本号，不匹配则拒绝
	ExpectedVersion *int `json:"expectedVersion"`
}

// Update 部分更新表单
// 每次成功更新递增版本号并刷新updatedAt；状态变更走状态机校验；
// 人工改写AI填充字段时先落一条修正反馈再应用修改
func (s *FormService) Update(ctx context.Context, id, userID, role string, req *UpdateFormRequest) (*entity.FilledForm, error) {
	form, err := s.formRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(form, userID, role) {
		return nil, ErrForbidden
	}

	expectedVersion := form.Version
	if req.ExpectedVersion != nil {
		expectedVersion = *req.ExpectedVersion
	}

	if req.Status != nil && *req.Status != form.Status {
		if !form.Status.CanTransitionTo(*req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, form.Status, *req.Status)
		}
		form.Status = *req.Status
		if *req.Status == entity.StatusSubmittedToSchool {
			now := time.Now()
			form.SubmittedAt = &now
		}
	}

	if req.Title != nil {
		form.Title = req.Title
	}
	if req.Sections != nil {
		s.recordCorrections(ctx, form, req.Sections)
		form.Sections = req.Sections
	}
	if req.FormLanguage != nil {
		form.FormLanguage = *req.FormLanguage
	}
	if req.Notes != nil {
		form.Notes = *req.Notes
	}
	if req.SharedWith != nil {
		form.SharedWith = req.SharedWith
	}

	if err := s.formRepo.Update(ctx, form, expectedVersion); err != nil {
		return nil, err
	}

	sse.PublishFormUpdate(form.UserID, form.ID, "saved", form.Version)
	return form, nil
}

// UpdateStatus 单独的状态流转入口
func (s *FormService) UpdateStatus(ctx context.Context, id, userID, role string, status entity.FormStatus, expectedVersion *int) (*entity.FilledForm, error) {
	return s.Update(ctx, id, userID, role, &UpdateFormRequest{
		Status:          &status,
		ExpectedVersion: expectedVersion,
	})
}

// Delete 删除表单
func (s *FormService) Delete(ctx context.Context, id, userID string) (bool, error) {
	return s.formRepo.Delete(ctx, id, userID)
}

// Autofill 提取结果合并进表单并持久化
func (s *FormService) Autofill(ctx context.Context, id, userID, role string, items []entity.ExtractedInfoItem, force bool) (*entity.FilledForm, []AppliedChange, error) {
	form, err := s.formRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !s.canAccess(form, userID, role) {
		return nil, nil, ErrForbidden
	}

	changes := s.autofill.Apply(form, items, force)
	if len(changes) == 0 {
		return form, nil, nil
	}

	if err := s.formRepo.Update(ctx, form, form.Version); err != nil {
		return nil, nil, err
	}

	sse.PublishFormUpdate(form.UserID, form.ID, "autofilled", form.Version)
	return form, changes, nil
}

// recordCorrections 对比新旧分区，为被人工改写的AI填充字段记录修正反馈，
// 并清除新字段上的AI溯源标记。记录失败不阻断保存。
func (s *FormService) recordCorrections(ctx context.Context, old *entity.FilledForm, incoming entity.SectionList) {
	for si := range incoming {
		sec := &incoming[si]
		for fi := range sec.Fields {
			field := &sec.Fields[fi]
			prev := old.FindField(sec.ID, field.ID)
			if prev == nil || prev.PopulationSource != entity.SourceAIExtraction {
				continue
			}
			oldVal := valueString(prev.Value)
			newVal := valueString(field.Value)
			if oldVal == newVal {
				continue
			}
			s.feedback.LogCorrection(ctx, &entity.CorrectionFeedback{
				FormID:             old.ID,
				SectionID:          sec.ID,
				FieldID:            field.ID,
				OriginalAIValue:    oldVal,
				UserCorrectedValue: newVal,
			})
			field.ClearAIProvenance()
		}
	}
}

// valueString 字段值转字符串（nil → 空串）
func valueString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
