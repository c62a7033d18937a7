package handler

import (
	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/gin-gonic/gin"
)

// FeedbackHandler 修正反馈接口
type FeedbackHandler struct {
	svc *service.FeedbackService
}

// NewFeedbackHandler 创建反馈处理器
func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// LogCorrectionRequest 显式修正上报
type LogCorrectionRequest struct {
	FormID             string `json:"formId" binding:"required"`
	SectionID          string `json:"sectionId" binding:"required"`
	FieldID            string `json:"fieldId" binding:"required"`
	OriginalAIValue    string `json:"originalAiValue"`
	UserCorrectedValue string `json:"userCorrectedValue"`
}

// Log 记录一条修正反馈
// POST /api/v1/feedback
func (h *FeedbackHandler) Log(c *gin.Context) {
	var req LogCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// fire-and-forget：记录失败不影响调用方
	h.svc.LogCorrection(c.Request.Context(), &entity.CorrectionFeedback{
		FormID:             req.FormID,
		SectionID:          req.SectionID,
		FieldID:            req.FieldID,
		OriginalAIValue:    req.OriginalAIValue,
		UserCorrectedValue: req.UserCorrectedValue,
	})

	Success(c, gin.H{"logged": true})
}
