package handler

import (
	"errors"

	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/gin-gonic/gin"
)

// AIHandler AI分析接口
type AIHandler struct {
	analysisSvc *service.AnalysisService
	extractSvc  *service.ExtractService
	documentSvc *service.DocumentService
}

// NewAIHandler 创建AI处理器
func NewAIHandler(analysisSvc *service.AnalysisService, extractSvc *service.ExtractService, documentSvc *service.DocumentService) *AIHandler {
	return &AIHandler{
		analysisSvc: analysisSvc,
		extractSvc:  extractSvc,
		documentSvc: documentSvc,
	}
}

// Analyze 上传表单扫描件 → OCR → LLM结构分析
// POST /api/v1/ai/analyze  (multipart: file, form_id?)
func (h *AIHandler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file 不能为空")
		return
	}

	// 上传边界检查必须先于OCR
	filePath, cleanup, err := h.documentSvc.SaveTemp(fileHeader)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFileType) {
			BadRequest(c, "不支持的文件类型，仅接受 JPEG/PNG/GIF/PDF")
			return
		}
		if errors.Is(err, service.ErrFileTooLarge) {
			BadRequest(c, "文件超过10MB上限")
			return
		}
		InternalError(c, "保存上传文件失败")
		return
	}
	defer cleanup()

	formID := c.PostForm("form_id")
	sections, err := h.analysisSvc.AnalyzeDocument(c.Request.Context(), filePath, GetUserID(c), formID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOCRText):
			BadRequest(c, "未能从文件中识别出文字")
		case errors.Is(err, service.ErrAINotConfigured):
			InternalError(c, "AI服务未配置")
		default:
			InternalError(c, "表单结构分析失败")
		}
		return
	}

	Success(c, gin.H{"sections": sections})
}

// ExtractRequest 信息提取请求
type ExtractRequest struct {
	Text string `json:"text" binding:"required"`
}

// Extract 自由文本信息提取（不写入表单）
// POST /api/v1/ai/extract
func (h *AIHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "text 不能为空")
		return
	}

	items, err := h.extractSvc.Extract(c.Request.Context(), req.Text)
	if err != nil {
		InternalError(c, "信息提取失败")
		return
	}
	Success(c, gin.H{"items": items})
}
