package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrEmailTaken      = errors.New("email already registered")
)

// Repositories 仓库集合
type Repositories struct {
	User     *UserRepository
	Template *TemplateRepository
	Form     *FormRepository
	Feedback *FeedbackRepository
	Document *DocumentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Template: NewTemplateRepository(db),
		Form:     NewFormRepository(db),
		Feedback: NewFeedbackRepository(db),
		Document: NewDocumentRepository(db),
	}
}
