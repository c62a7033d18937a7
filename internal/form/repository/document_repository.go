package repository

import (
	"context"
	"errors"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"gorm.io/gorm"
)

// DocumentRepository 上传文档仓库
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓库
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create 记录一次上传
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.UploadedDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByID 按ID获取文档记录
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.UploadedDocument, error) {
	var doc entity.UploadedDocument
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// ListByOwner 获取用户的上传记录
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.UploadedDocument, error) {
	var docs []entity.UploadedDocument
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
