package handler

import (
	"errors"

	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 上传文档接口
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload 上传文件
// POST /api/v1/uploads  (multipart: file)
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file 不能为空")
		return
	}

	doc, err := h.svc.Save(c.Request.Context(), GetUserID(c), fileHeader)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFileType) {
			BadRequest(c, "不支持的文件类型，仅接受 JPEG/PNG/GIF/PDF")
			return
		}
		if errors.Is(err, service.ErrFileTooLarge) {
			BadRequest(c, "文件超过10MB上限")
			return
		}
		InternalError(c, "上传失败")
		return
	}
	Created(c, doc)
}

// List 当前用户的上传记录
// GET /api/v1/uploads
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.ListByOwner(c.Request.Context(), GetUserID(c))
	if err != nil {
		InternalError(c, "获取上传记录失败")
		return
	}
	Success(c, gin.H{"items": docs})
}
