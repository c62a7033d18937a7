package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportService 报告生成与表单导出
type ReportService struct {
	llm      *gemini.Client
	formRepo *repository.FormRepository
	logger   *zap.Logger
}

// NewReportService 创建报告服务
func NewReportService(llm *gemini.Client, formRepo *repository.FormRepository, logger *zap.Logger) *ReportService {
	return &ReportService{llm: llm, formRepo: formRepo, logger: logger}
}

// GenerateSchoolReport 基于已填表单生成升学建议报告（Markdown，繁体中文）
func (s *ReportService) GenerateSchoolReport(ctx context.Context, formID string) (string, error) {
	if !s.llm.Configured() {
		return "", ErrAINotConfigured
	}

	form, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		return "", err
	}

	prompt := buildReportPrompt(form)
	report, err := s.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("生成报告失败: %w", err)
	}
	return report, nil
}

// buildReportPrompt 把表单内容渲染为可读文本并构建报告指令
func buildReportPrompt(form *entity.FilledForm) string {
	var content strings.Builder
	lang := form.FormLanguage
	for _, sec := range form.Sections {
		fmt.Fprintf(&content, "## %s\n", sec.Title.Resolve(lang))
		for _, field := range sec.Fields {
			if field.Type.IsStructural() {
				continue
			}
			fmt.Fprintf(&content, "%s: %s\n", field.Label.Resolve(lang), valueString(field.Value))
		}
		content.WriteString("\n")
	}

	return `You are an expert AI education consultant for students applying to schools in Hong Kong.
Your task is to generate a personalized school application report based on the user's filled-out form.
The report should be encouraging, insightful, and provide actionable advice.
The output should be in Markdown format.

Here are the user's details:
---
` + content.String() + `---

Please generate a report with the following sections:
1. **摘要 (Executive Summary):** A brief, positive summary of the applicant's profile.
2. **優勢分析 (Strengths Analysis):** Highlight the applicant's key strengths.
3. **待發展領域 (Areas for Development):** Gently point out areas that could be improved and offer constructive suggestions.
4. **學校匹配建議 (School Matching Suggestions):** Suggest 2-3 types of schools in Hong Kong that might be a good fit and briefly explain why.
5. **面試貼士 (Interview Tips):** Provide 3 actionable tips for the school admission interview.

Generate the report in Chinese (Traditional, Hong Kong).`
}

// ExportXLSX 把表单导出为XLSX工作簿，每个分区一个工作表
// 导出成功后调用方负责把表单状态推进为 exported
func (s *ReportService) ExportXLSX(ctx context.Context, form *entity.FilledForm) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	lang := form.FormLanguage
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})

	first := true
	for _, sec := range form.Sections {
		sheet := sheetName(sec.Title.Resolve(lang), sec.ID)
		if first {
			f.SetSheetName("Sheet1", sheet)
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, "", fmt.Errorf("创建工作表失败: %w", err)
			}
		}

		f.SetCellValue(sheet, "A1", "欄位")
		f.SetCellValue(sheet, "B1", "內容")
		f.SetCellStyle(sheet, "A1", "B1", headerStyle)
		f.SetColWidth(sheet, "A", "A", 32)
		f.SetColWidth(sheet, "B", "B", 48)

		row := 2
		for _, field := range sec.Fields {
			if field.Type.IsStructural() {
				continue
			}
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), field.Label.Resolve(lang))
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), valueString(field.Value))
			row++
		}

		// 可重复分区逐实例平铺
		for i, inst := range sec.Instances {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("—— 第%d項 ——", i+1))
			row++
			for _, field := range inst.Fields {
				f.SetCellValue(sheet, fmt.Sprintf("A%d", row), field.Label.Resolve(lang))
				f.SetCellValue(sheet, fmt.Sprintf("B%d", row), valueString(field.Value))
				row++
			}
		}
	}

	if first {
		// 没有任何分区时导出空表头
		f.SetCellValue("Sheet1", "A1", "欄位")
		f.SetCellValue("Sheet1", "B1", "內容")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("写出工作簿失败: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", form.School.Name, form.ID[:8])
	return buf.Bytes(), fileName, nil
}

// sheetName excelize工作表名上限31字符且不能为空
func sheetName(title, fallback string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = fallback
	}
	runes := []rune(name)
	if len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
