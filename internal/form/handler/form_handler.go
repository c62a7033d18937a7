package handler

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/gin-gonic/gin"
)

// FormHandler 用户表单接口
type FormHandler struct {
	svc        *service.FormService
	extractSvc *service.ExtractService
	reportSvc  *service.ReportService
}

// NewFormHandler 创建表单处理器
func NewFormHandler(svc *service.FormService, extractSvc *service.ExtractService, reportSvc *service.ReportService) *FormHandler {
	return &FormHandler{svc: svc, extractSvc: extractSvc, reportSvc: reportSvc}
}

// CreateFormRequest 创建表单请求
type CreateFormRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

// Create 从模板实例化表单
// POST /api/v1/forms
func (h *FormHandler) Create(c *gin.Context) {
	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	form, err := h.svc.CreateFromTemplate(c.Request.Context(), req.TemplateID, GetUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		InternalError(c, "创建表单失败")
		return
	}
	Created(c, form)
}

// List 当前用户的表单列表
// GET /api/v1/forms
func (h *FormHandler) List(c *gin.Context) {
	forms, err := h.svc.ListByUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		InternalError(c, "获取表单列表失败")
		return
	}
	Success(c, gin.H{"items": forms})
}

// Get 表单详情
// GET /api/v1/forms/:id
func (h *FormHandler) Get(c *gin.Context) {
	form, err := h.svc.Get(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c))
	if err != nil {
		h.renderFormError(c, err)
		return
	}
	Success(c, form)
}

// Update 部分更新表单（自动保存走这里）
// PUT /api/v1/forms/:id
func (h *FormHandler) Update(c *gin.Context) {
	var req service.UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	form, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), &req)
	if err != nil {
		h.renderFormError(c, err)
		return
	}
	Success(c, form)
}

// UpdateStatusRequest 状态流转请求
type UpdateStatusRequest struct {
	Status          entity.FormStatus `json:"status" binding:"required"`
	ExpectedVersion *int              `json:"expectedVersion"`
}

// UpdateStatus 状态流转
// PUT /api/v1/forms/:id/status
func (h *FormHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	form, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), req.Status, req.ExpectedVersion)
	if err != nil {
		h.renderFormError(c, err)
		return
	}
	Success(c, form)
}

// Delete 删除表单
// DELETE /api/v1/forms/:id
func (h *FormHandler) Delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		InternalError(c, "删除表单失败")
		return
	}
	if !deleted {
		NotFound(c, "表单不存在")
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AutofillRequest 自动填充请求
type AutofillRequest struct {
	Text  string `json:"text" binding:"required"`
	Force bool   `json:"force"`
}

// Autofill 自由文本 → 信息提取 → 合并进表单
// POST /api/v1/forms/:id/autofill
func (h *FormHandler) Autofill(c *gin.Context) {
	var req AutofillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "text 不能为空")
		return
	}

	items, err := h.extractSvc.Extract(c.Request.Context(), req.Text)
	if err != nil {
		InternalError(c, "信息提取失败")
		return
	}

	form, changes, err := h.svc.Autofill(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), items, req.Force)
	if err != nil {
		h.renderFormError(c, err)
		return
	}

	Success(c, gin.H{
		"form":    form,
		"applied": changes,
	})
}

// Export 导出XLSX并把状态推进为 exported
// GET /api/v1/forms/:id/export
func (h *FormHandler) Export(c *gin.Context) {
	userID, role := GetUserID(c), GetUserRole(c)
	form, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.renderFormError(c, err)
		return
	}

	data, fileName, err := h.reportSvc.ExportXLSX(c.Request.Context(), form)
	if err != nil {
		InternalError(c, "导出失败")
		return
	}

	// 状态机允许时把表单推进为已导出；不允许（如已提交）则保持原状态
	if form.Status.CanTransitionTo(entity.StatusExported) {
		if _, err := h.svc.UpdateStatus(c.Request.Context(), form.ID, userID, role, entity.StatusExported, nil); err != nil {
			InternalError(c, "更新表单状态失败")
			return
		}
	}

	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(fileName)))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Report 生成升学建议报告（premium）
// POST /api/v1/forms/:id/report
func (h *FormHandler) Report(c *gin.Context) {
	// 先做归属校验
	if _, err := h.svc.Get(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c)); err != nil {
		h.renderFormError(c, err)
		return
	}

	report, err := h.reportSvc.GenerateSchoolReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAINotConfigured) {
			InternalError(c, "AI服务未配置")
			return
		}
		InternalError(c, "生成报告失败")
		return
	}
	Success(c, gin.H{"report": report})
}

// renderFormError 统一的表单错误映射
func (h *FormHandler) renderFormError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "表单不存在")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "无权访问该表单")
	case errors.Is(err, service.ErrInvalidTransition):
		BadRequest(c, "状态流转不合法: "+err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		Conflict(c, "表单已被其他会话修改，请刷新后重试")
	default:
		InternalError(c, "操作失败")
	}
}
