package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/sse"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"github.com/HooJohn/form.ai/internal/shared/ocr"
	"go.uber.org/zap"
)

// 分析错误
var (
	// ErrNoOCRText OCR没有识别出任何文本，不会发起LLM调用
	ErrNoOCRText = errors.New("no text found in document")
	// ErrAINotConfigured 未配置Gemini API密钥
	ErrAINotConfigured = errors.New("ai service is not configured")
	// ErrAnalysisFailed 重试额度耗尽后仍未得到合法结构
	ErrAnalysisFailed = errors.New("failed to analyze form structure")
)

// =============================================================================
// AnalysisService — 表单结构合成器
// OCR文本+几何信息 → LLM → FormSection骨架（值为空）
// LLM输出按FormSection形状严格校验，不合法或暂时性失败时指数退避重试
// =============================================================================

// AnalysisService 表单结构分析服务
type AnalysisService struct {
	llm        *gemini.Client
	engine     ocr.Engine
	maxRetries int
	logger     *zap.Logger
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(llm *gemini.Client, engine ocr.Engine, maxRetries int, logger *zap.Logger) *AnalysisService {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &AnalysisService{
		llm:        llm,
		engine:     engine,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// AnalyzeDocument 完整分析管线：OCR → 提示词 → LLM → 校验
// 进度经SSE推送给发起用户
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, filePath, userID, formID string) ([]entity.FormSection, error) {
	if !s.llm.Configured() {
		return nil, ErrAINotConfigured
	}

	sse.PublishAIProgress(userID, formID, "ocr")
	ocrResults, err := s.engine.Run(ctx, filePath)
	if err != nil {
		sse.PublishAIProgress(userID, formID, "failed")
		return nil, fmt.Errorf("OCR识别失败: %w", err)
	}
	if len(ocrResults) == 0 {
		sse.PublishAIProgress(userID, formID, "failed")
		return nil, ErrNoOCRText
	}

	sse.PublishAIProgress(userID, formID, "analyzing")
	sections, err := s.synthesize(ctx, ocrResults)
	if err != nil {
		sse.PublishAIProgress(userID, formID, "failed")
		return nil, err
	}

	sse.PublishAIProgress(userID, formID, "done")
	return sections, nil
}

// synthesize 单次提示词构建 + 有界重试的LLM调用
func (s *AnalysisService) synthesize(ctx context.Context, ocrResults []ocr.Result) ([]entity.FormSection, error) {
	prompt := buildAnalysisPrompt(ocrResults)

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		raw, err := s.llm.GenerateContent(ctx, prompt)
		if err != nil {
			lastErr = err
			if !gemini.IsTransient(err) {
				return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
			}
			s.logger.Warn("LLM call failed, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
		} else {
			sections, perr := parseSections(raw)
			if perr == nil {
				return sections, nil
			}
			// 结构不合法也计入重试：模型偶发输出噪声
			lastErr = perr
			s.logger.Warn("LLM output rejected by schema validation, retrying",
				zap.Int("attempt", attempt), zap.Error(perr))
		}

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, lastErr)
}

// buildAnalysisPrompt 把OCR行拼为 Text/Box 行并构建指令
// 行序保持OCR输出顺序，是交给模型的唯一布局信号
func buildAnalysisPrompt(ocrResults []ocr.Result) string {
	var lines strings.Builder
	for _, r := range ocrResults {
		fmt.Fprintf(&lines, "Text: %q, Box: [%g,%g, %g,%g]\n",
			r.Text, r.Box.TopLeft.X, r.Box.TopLeft.Y, r.Box.BottomRight.X, r.Box.BottomRight.Y)
	}

	return `You are an expert AI assistant specializing in analyzing Hong Kong school application forms.
Your task is to convert raw OCR data, which includes text and bounding box coordinates, into a structured JSON format.
The JSON output should be an array of "FormSection" objects.

Follow these rules strictly:
1. Identify logical sections in the form (e.g., "Applicant Information", "Parent/Guardian Information"). Each section becomes a "FormSection" object with "id", "title", "displayOrder" and "fields".
2. Within each section, identify each input field. Each field becomes a "FormField" object with "id", "label", "type" and "value".
3. The "label" for each FormField should be the text label found near the input area, as a localized object keyed by language (e.g. {"zh-HK": "...", "en": "..."}).
4. The "id" for each FormSection and FormField should be a unique, lowercase, snake_case string derived from its English label (e.g., "applicant_information", "full_name_en").
5. The "type" must be one of: text, textarea, number, date, email, tel, select, radio, checkbox. Fields of type select/radio/checkbox must carry a non-empty "options" array.
6. The "value" for each FormField should be an empty string "" for now.
7. The final output MUST be a valid JSON array of FormSection objects. Do not include any text or markdown formatting before or after the JSON.

Here is the OCR data:
` + lines.String() + `
Now, generate the JSON output.`
}

// stripCodeFences 去掉模型偶尔附带的markdown代码围栏
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```json")
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// parseSections 解析并严格校验LLM输出的分区结构
func parseSections(raw string) ([]entity.FormSection, error) {
	text := stripCodeFences(raw)

	var sections []entity.FormSection
	if err := json.Unmarshal([]byte(text), &sections); err != nil {
		return nil, fmt.Errorf("llm output is not a json array of sections: %w", err)
	}
	if err := validateSections(sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// validateSections 结构校验：分区/字段ID非空、字段类型已知、
// 选择类字段必须有选项、骨架值必须为空
func validateSections(sections []entity.FormSection) error {
	if len(sections) == 0 {
		return errors.New("llm returned zero sections")
	}

	seenSections := make(map[string]bool)
	for i, sec := range sections {
		if sec.ID == "" {
			return fmt.Errorf("section %d has empty id", i)
		}
		if seenSections[sec.ID] {
			return fmt.Errorf("duplicate section id %q", sec.ID)
		}
		seenSections[sec.ID] = true
		if len(sec.Title) == 0 {
			return fmt.Errorf("section %q has no title", sec.ID)
		}
		if len(sec.Fields) == 0 {
			return fmt.Errorf("section %q has no fields", sec.ID)
		}

		seenFields := make(map[string]bool)
		for _, field := range sec.Fields {
			if field.ID == "" {
				return fmt.Errorf("section %q has a field with empty id", sec.ID)
			}
			if seenFields[field.ID] {
				return fmt.Errorf("section %q has duplicate field id %q", sec.ID, field.ID)
			}
			seenFields[field.ID] = true
			if !field.Type.IsValid() {
				return fmt.Errorf("field %q has unknown type %q", field.ID, field.Type)
			}
			if field.Type.IsChoice() && len(field.Options) == 0 {
				return fmt.Errorf("choice field %q has no options", field.ID)
			}
			if field.Value != nil {
				if str, ok := field.Value.(string); !ok || str != "" {
					return fmt.Errorf("field %q must have an empty value in the skeleton", field.ID)
				}
			}
		}
	}
	return nil
}
