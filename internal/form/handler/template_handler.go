package handler

import (
	"errors"

	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/gin-gonic/gin"
)

// TemplateHandler 表单模板接口
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler 创建模板处理器
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List 模板列表
// GET /api/v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取模板列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": templates})
}

// Get 模板详情
// GET /api/v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		InternalError(c, "获取模板失败: "+err.Error())
		return
	}
	Success(c, template)
}

// Create 创建模板（管理端）
// POST /api/v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	template, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		InternalError(c, "创建模板失败: "+err.Error())
		return
	}
	Created(c, template)
}

// Update 更新模板（管理端）
// PUT /api/v1/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	template, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		InternalError(c, "更新模板失败: "+err.Error())
		return
	}
	Success(c, template)
}

// Delete 删除模板（管理端）
// DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "删除模板失败: "+err.Error())
		return
	}
	if !deleted {
		NotFound(c, "模板不存在")
		return
	}
	Success(c, gin.H{"deleted": true})
}
