package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"go.uber.org/zap"
)

// =============================================================================
// ExtractService — 自然语言信息提取
// 把用户的自由文本交给LLM，提取 {label, value} 对；
// 模型输出视为不可信，逐项校验后才交给自动填充引擎
// =============================================================================

// ExtractService 信息提取服务
type ExtractService struct {
	llm    *gemini.Client
	logger *zap.Logger
}

// NewExtractService 创建提取服务
func NewExtractService(llm *gemini.Client, logger *zap.Logger) *ExtractService {
	return &ExtractService{llm: llm, logger: logger}
}

// Extract 从自由文本提取结构化信息
// 未配置API密钥时退回内置的开发期固定样例（仅用于本地联调）
func (s *ExtractService) Extract(ctx context.Context, text string) ([]entity.ExtractedInfoItem, error) {
	if !s.llm.Configured() {
		s.logger.Warn("Gemini API key missing, using development fixtures for extraction")
		return fixtureExtract(text), nil
	}

	prompt := buildExtractionPrompt(text)
	raw, err := s.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("信息提取调用失败: %w", err)
	}

	items, err := parseExtractedItems(raw)
	if err != nil {
		return nil, fmt.Errorf("信息提取结果不合法: %w", err)
	}
	return items, nil
}

// buildExtractionPrompt 基于已知字段词表构建提取指令
func buildExtractionPrompt(text string) string {
	return `You are an assistant helping parents fill in Hong Kong school application forms.
Extract every piece of applicant information from the text below as a JSON array.
Each item must be an object: {"label": string, "value": string, "targetFieldIdHint": string, "confidence": number}.
- "label" is the human-readable name of the datum in the text's language (e.g. "姓名 (中文)", "出生日期", "母親職業").
- "targetFieldIdHint" should be one of the known field ids when applicable:
  student_name_zh, student_name_en, date_of_birth, gender, home_address, hkid_number,
  father_name_zh, father_occupation, mother_name_zh, mother_occupation, contact_phone, contact_email.
  Use an empty string when no known field fits.
- "confidence" is an integer 0-100.
Return ONLY the JSON array, no prose, no markdown fences.

Text:
` + text
}

// parseExtractedItems 解析并过滤LLM输出
func parseExtractedItems(raw string) ([]entity.ExtractedInfoItem, error) {
	text := stripCodeFences(raw)

	var items []entity.ExtractedInfoItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, err
	}

	// 丢弃缺少label或value的噪声项，约束置信度范围
	valid := items[:0]
	for _, item := range items {
		item.Label = strings.TrimSpace(item.Label)
		item.Value = strings.TrimSpace(item.Value)
		if item.Label == "" || item.Value == "" {
			continue
		}
		if item.Confidence != nil {
			if *item.Confidence < 0 || *item.Confidence > 100 {
				item.Confidence = nil
			}
		}
		valid = append(valid, item)
	}
	return valid, nil
}

// fixtureExtract 开发期固定样例，与真实LLM路径保持同一契约
func fixtureExtract(text string) []entity.ExtractedInfoItem {
	if strings.Contains(text, "张伟") && strings.Contains(text, "2009") {
		return []entity.ExtractedInfoItem{
			{Label: "姓名 (中文)", Value: "张伟", TargetFieldIDHint: "student_name_zh"},
			{Label: "出生日期", Value: "2009年3月4日", TargetFieldIDHint: "date_of_birth"},
			{Label: "地址", Value: "香港九龙旺角花园街132-136号友和大楼3C", TargetFieldIDHint: "home_address"},
		}
	}
	if strings.Contains(text, "朱金凤") {
		return []entity.ExtractedInfoItem{
			{Label: "母亲姓名 (中文)", Value: "朱金凤", TargetFieldIDHint: "mother_name_zh"},
			{Label: "母亲职业", Value: "医生", TargetFieldIDHint: "mother_occupation"},
		}
	}
	return nil
}
