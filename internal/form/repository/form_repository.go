package repository

import (
	"context"
	"errors"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"gorm.io/gorm"
)

// FormRepository 用户表单仓库
type FormRepository struct {
	db *gorm.DB
}

// NewFormRepository 创建表单仓库
func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// Create 创建表单实例
func (r *FormRepository) Create(ctx context.Context, form *entity.FilledForm) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// FindByID 按ID获取表单
func (r *FormRepository) FindByID(ctx context.Context, id string) (*entity.FilledForm, error) {
	var form entity.FilledForm
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&form).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

// ListByUser 获取用户的全部表单，最近更新在前
func (r *FormRepository) ListByUser(ctx context.Context, userID string) ([]entity.FilledForm, error) {
	var forms []entity.FilledForm
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// Update 带乐观锁的整条更新
// 以调用方读到的版本号作为条件，未命中说明已被并发修改；
// 命中则版本号+1（updated_at 由gorm自动刷新）
func (r *FormRepository) Update(ctx context.Context, form *entity.FilledForm, expectedVersion int) error {
	form.Version = expectedVersion + 1
	result := r.db.WithContext(ctx).
		Model(&entity.FilledForm{}).
		Where("id = ? AND version = ?", form.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(form)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 区分不存在与版本冲突
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.FilledForm{}).
			Where("id = ?", form.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// Delete 删除表单
func (r *FormRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entity.FilledForm{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountByStatus 按状态统计表单数（管理端看板）
func (r *FormRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&entity.FilledForm{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rr := range rows {
		counts[rr.Status] = rr.Count
	}
	return counts, nil
}
