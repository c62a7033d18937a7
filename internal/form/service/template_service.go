package service

import (
	"context"
	"fmt"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
)

// TemplateService 表单模板服务
type TemplateService struct {
	repo *repository.TemplateRepository
}

// NewTemplateService 创建模板服务
func NewTemplateService(repo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

// List 获取全部模板
func (s *TemplateService) List(ctx context.Context) ([]entity.FormTemplate, error) {
	return s.repo.List(ctx)
}

// Get 获取模板详情
func (s *TemplateService) Get(ctx context.Context, id string) (*entity.FormTemplate, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateTemplateRequest 创建模板请求
type CreateTemplateRequest struct {
	SchoolName      string                 `json:"schoolName" binding:"required"`
	SchoolLogoURL   string                 `json:"schoolLogoUrl"`
	Title           entity.LocalizedString `json:"title" binding:"required"`
	Description     entity.LocalizedString `json:"description"`
	TargetGrades    []string               `json:"targetGrades"`
	ApplicationType entity.ApplicationType `json:"applicationType"`
	Version         string                 `json:"version"`
	Sections        entity.SectionList     `json:"sections"`
}

// Create 创建模板（管理端）
func (s *TemplateService) Create(ctx context.Context, userID string, req *CreateTemplateRequest) (*entity.FormTemplate, error) {
	appType := req.ApplicationType
	if appType == "" {
		appType = entity.ApplicationOther
	}
	version := req.Version
	if version == "" {
		version = "1.0"
	}

	now := time.Now()
	template := &entity.FormTemplate{
		ID:              generateID(),
		SchoolName:      req.SchoolName,
		SchoolLogoURL:   req.SchoolLogoURL,
		Title:           req.Title,
		Description:     req.Description,
		TargetGrades:    req.TargetGrades,
		ApplicationType: appType,
		Version:         version,
		Sections:        req.Sections,
		CreatedBy:       userID,
		LastUpdated:     now,
		CreatedAt:       now,
	}
	if template.Sections == nil {
		template.Sections = entity.SectionList{}
	}

	if err := s.repo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("创建模板失败: %w", err)
	}
	return template, nil
}

// UpdateTemplateRequest 更新模板请求（浅合并）
type UpdateTemplateRequest struct {
	SchoolName      *string                 `json:"schoolName"`
	SchoolLogoURL   *string                 `json:"schoolLogoUrl"`
	Title           entity.LocalizedString  `json:"title"`
	Description     entity.LocalizedString  `json:"description"`
	TargetGrades    []string                `json:"targetGrades"`
	ApplicationType *entity.ApplicationType `json:"applicationType"`
	Version         *string                 `json:"version"`
	Sections        entity.SectionList      `json:"sections"`
}

// Update 更新模板，刷新 lastUpdated
func (s *TemplateService) Update(ctx context.Context, id string, req *UpdateTemplateRequest) (*entity.FormTemplate, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SchoolName != nil {
		template.SchoolName = *req.SchoolName
	}
	if req.SchoolLogoURL != nil {
		template.SchoolLogoURL = *req.SchoolLogoURL
	}
	if req.Title != nil {
		template.Title = req.Title
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	if req.TargetGrades != nil {
		template.TargetGrades = req.TargetGrades
	}
	if req.ApplicationType != nil {
		template.ApplicationType = *req.ApplicationType
	}
	if req.Version != nil {
		template.Version = *req.Version
	}
	if req.Sections != nil {
		template.Sections = req.Sections
	}
	template.LastUpdated = time.Now()

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("更新模板失败: %w", err)
	}
	return template, nil
}

// Delete 删除模板
func (s *TemplateService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// SeedBuiltinTemplates 写入内置的三份香港学校模板（已存在则跳过）
func (s *TemplateService) SeedBuiltinTemplates(ctx context.Context) error {
	for _, t := range builtinTemplates() {
		t := t
		if err := s.repo.Upsert(ctx, &t); err != nil {
			return fmt.Errorf("seed template %s: %w", t.ID, err)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }

func builtinTemplates() []entity.FormTemplate {
	return []entity.FormTemplate{
		{
			ID:            "template_001",
			SchoolName:    "保良局馬錦明夫人章馥仙中學",
			SchoolLogoURL: "https://placehold.co/40x40/4A90E2/FFFFFF?text=PLK",
			Title: entity.LocalizedString{
				"zh-HK": "中一至中四插班生申請表",
				"zh-CN": "中一至中四插班生申请表",
				"en":    "Application Form for S1-S4 Transfer Student",
			},
			Description: entity.LocalizedString{
				"zh-CN": "适用于S1-S4插班申请，包含个人、家庭及学业信息。",
			},
			TargetGrades:    entity.StringArray{"S1", "S2", "S3", "S4"},
			ApplicationType: entity.ApplicationTransferStudent,
			Version:         "1.0",
			LastUpdated:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			Sections:        studentParentSections(),
		},
		{
			ID:            "template_002",
			SchoolName:    "香港大學附屬學院",
			SchoolLogoURL: "https://placehold.co/40x40/FF9900/FFFFFF?text=HKU",
			Title: entity.LocalizedString{
				"zh-HK": "新生入學申請表",
				"zh-CN": "新生入学申请表",
				"en":    "New Student Admission Form",
			},
			Description: entity.LocalizedString{
				"zh-HK": "大學附屬學院入學申請，需提供DSE成績。",
			},
			TargetGrades:    entity.StringArray{"S6"},
			ApplicationType: entity.ApplicationNewStudent,
			Version:         "2.1",
			LastUpdated:     time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			Sections:        studentParentSections(),
		},
		{
			ID:            "template_003",
			SchoolName:    "中華基督教會協和小學",
			SchoolLogoURL: "https://placehold.co/40x40/1A4D8C/FFFFFF?text=CCC",
			Title: entity.LocalizedString{
				"zh-HK": "小一入學申請表",
				"zh-CN": "小一入学申请表",
				"en":    "Primary One Admission Form",
			},
			Description: entity.LocalizedString{
				"zh-HK": "小一學位申請，包含家長資料及面試安排。",
			},
			TargetGrades:    entity.StringArray{"P1"},
			ApplicationType: entity.ApplicationPrimaryOne,
			Version:         "3.0",
			LastUpdated:     time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
			Sections:        studentParentSections(),
		},
	}
}

// studentParentSections 内置模板共用的基础分区
func studentParentSections() entity.SectionList {
	return entity.SectionList{
		{
			ID: "applicant_information",
			Title: entity.LocalizedString{
				"zh-HK": "申請人資料",
				"zh-CN": "申请人资料",
				"en":    "Applicant Information",
			},
			DisplayOrder: 1,
			Fields: []entity.FormField{
				{
					ID:    "student_name_zh",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "姓名 (中文)", "zh-CN": "姓名 (中文)", "en": "Name (Chinese)"},
					Validation: &entity.ValidationRules{
						Required: true, MaxLength: intPtr(64),
					},
				},
				{
					ID:    "student_name_en",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "英文姓名", "zh-CN": "英文姓名", "en": "Student Name (English)"},
				},
				{
					ID:    "date_of_birth",
					Type:  entity.FieldTypeDate,
					Label: entity.LocalizedString{"zh-HK": "出生日期", "zh-CN": "出生日期", "en": "Date of Birth"},
					Validation: &entity.ValidationRules{
						Required: true,
					},
				},
				{
					ID:    "gender",
					Type:  entity.FieldTypeRadio,
					Label: entity.LocalizedString{"zh-HK": "性別", "zh-CN": "性别", "en": "Gender"},
					Options: []entity.FieldOption{
						{Label: entity.LocalizedString{"zh-HK": "男", "en": "Male"}, Value: "male"},
						{Label: entity.LocalizedString{"zh-HK": "女", "en": "Female"}, Value: "female"},
					},
				},
				{
					ID:    "home_address",
					Type:  entity.FieldTypeAddress,
					Label: entity.LocalizedString{"zh-HK": "地址", "zh-CN": "地址", "en": "Home Address"},
				},
				{
					ID:    "hkid_number",
					Type:  entity.FieldTypeHKID,
					Label: entity.LocalizedString{"zh-HK": "香港身份證號碼", "zh-CN": "香港身份证号码", "en": "HKID Number"},
				},
			},
		},
		{
			ID: "parent_information",
			Title: entity.LocalizedString{
				"zh-HK": "家長/監護人資料",
				"zh-CN": "家长/监护人资料",
				"en":    "Parent/Guardian Information",
			},
			DisplayOrder: 2,
			Fields: []entity.FormField{
				{
					ID:    "father_name_zh",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "父親姓名 (中文)", "zh-CN": "父亲姓名 (中文)", "en": "Father's Name (Chinese)"},
				},
				{
					ID:    "father_occupation",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "父親職業", "zh-CN": "父亲职业", "en": "Father's Occupation"},
				},
				{
					ID:    "mother_name_zh",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "母親姓名 (中文)", "zh-CN": "母亲姓名 (中文)", "en": "Mother's Name (Chinese)"},
				},
				{
					ID:    "mother_occupation",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "母親職業", "zh-CN": "母亲职业", "en": "Mother's Occupation"},
				},
				{
					ID:    "contact_phone",
					Type:  entity.FieldTypeTel,
					Label: entity.LocalizedString{"zh-HK": "聯絡電話", "zh-CN": "联络电话", "en": "Contact Phone"},
				},
				{
					ID:    "contact_email",
					Type:  entity.FieldTypeEmail,
					Label: entity.LocalizedString{"zh-HK": "電郵地址", "zh-CN": "电邮地址", "en": "Email Address"},
				},
			},
		},
		{
			ID: "sibling_information",
			Title: entity.LocalizedString{
				"zh-HK": "兄弟姊妹資料",
				"zh-CN": "兄弟姐妹资料",
				"en":    "Sibling Information",
			},
			DisplayOrder:   3,
			IsRepeatable:   true,
			MinRepetitions: intPtr(0),
			MaxRepetitions: intPtr(4),
			Fields: []entity.FormField{
				{
					ID:    "sibling_name",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "姓名", "en": "Name"},
				},
				{
					ID:    "sibling_school",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "就讀學校", "en": "Current School"},
				},
			},
		},
	}
}
