package handler

import (
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/gin-gonic/gin"
)

// AdminHandler 管理端看板接口
type AdminHandler struct {
	repos *repository.Repositories
}

// NewAdminHandler 创建管理端处理器
func NewAdminHandler(repos *repository.Repositories) *AdminHandler {
	return &AdminHandler{repos: repos}
}

// Stats 平台统计：用户按套餐、表单按状态、模板与反馈总数
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	usersByPlan, err := h.repos.User.CountByPlan(ctx)
	if err != nil {
		InternalError(c, "获取用户统计失败")
		return
	}

	formsByStatus, err := h.repos.Form.CountByStatus(ctx)
	if err != nil {
		InternalError(c, "获取表单统计失败")
		return
	}

	templateCount, err := h.repos.Template.Count(ctx)
	if err != nil {
		InternalError(c, "获取模板统计失败")
		return
	}

	feedbackCount, err := h.repos.Feedback.Count(ctx)
	if err != nil {
		InternalError(c, "获取反馈统计失败")
		return
	}

	Success(c, gin.H{
		"users_by_plan":   usersByPlan,
		"forms_by_status": formsByStatus,
		"template_count":  templateCount,
		"feedback_count":  feedbackCount,
	})
}
