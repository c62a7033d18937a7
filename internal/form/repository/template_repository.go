package repository

import (
	"context"
	"errors"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateRepository 表单模板仓库
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓库
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List 获取全部模板，按学校名排序
func (r *TemplateRepository) List(ctx context.Context) ([]entity.FormTemplate, error) {
	var templates []entity.FormTemplate
	if err := r.db.WithContext(ctx).Order("school_name, id").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// FindByID 按ID获取模板
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.FormTemplate, error) {
	var template entity.FormTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// Create 创建模板
func (r *TemplateRepository) Create(ctx context.Context, template *entity.FormTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// Update 整条更新模板（last-writer-wins，管理端单编辑者假设）
func (r *TemplateRepository) Update(ctx context.Context, template *entity.FormTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// Delete 删除模板，返回是否存在
func (r *TemplateRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.FormTemplate{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Upsert 按ID写入（种子模板引导用，已存在则跳过）
func (r *TemplateRepository) Upsert(ctx context.Context, template *entity.FormTemplate) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(template).Error
}

// Count 模板总数
func (r *TemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.FormTemplate{}).Count(&count).Error
	return count, err
}
