package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func reportTestForm() *entity.FilledForm {
	return &entity.FilledForm{
		ID:           "11112222-3333-4444-5555-666677778888",
		UserID:       "user-001",
		FormLanguage: entity.LangZhHK,
		School:       entity.SchoolInfo{Name: "中華基督教會協和小學"},
		Sections: entity.SectionList{
			{
				ID:    "applicant_information",
				Title: entity.LocalizedString{"zh-HK": "申請人資料"},
				Fields: []entity.FormField{
					{
						ID:    "student_name_zh",
						Type:  entity.FieldTypeText,
						Label: entity.LocalizedString{"zh-HK": "姓名 (中文)"},
						Value: "张伟",
					},
					{
						ID:    "section_note",
						Type:  entity.FieldTypeInfoText,
						Label: entity.LocalizedString{"zh-HK": "請以正楷填寫"},
					},
				},
			},
			{
				ID:           "sibling_information",
				Title:        entity.LocalizedString{"zh-HK": "兄弟姊妹資料"},
				IsRepeatable: true,
				Fields: []entity.FormField{
					{ID: "sibling_name", Type: entity.FieldTypeText, Label: entity.LocalizedString{"zh-HK": "姓名"}},
				},
				Instances: []entity.RepeatableSectionInstance{
					{
						ID: "inst-1",
						Fields: []entity.FormField{
							{ID: "sibling_name", Type: entity.FieldTypeText, Label: entity.LocalizedString{"zh-HK": "姓名"}, Value: "张小美"},
						},
					},
				},
			},
		},
	}
}

func TestExportXLSX(t *testing.T) {
	svc := NewReportService(gemini.NewClient("", "gemini-1.5-flash", time.Second), nil, zap.NewNop())
	form := reportTestForm()

	data, fileName, err := svc.ExportXLSX(context.Background(), form)
	if err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}
	if !strings.HasPrefix(fileName, "中華基督教會協和小學_") || !strings.HasSuffix(fileName, ".xlsx") {
		t.Errorf("Unexpected file name %q", fileName)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a valid workbook: %v", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("Expected one sheet per section, got %v", sheets)
	}
	if sheets[0] != "申請人資料" {
		t.Errorf("Unexpected first sheet name %q", sheets[0])
	}

	// 表头 + 姓名行；展示字段不导出
	label, _ := wb.GetCellValue("申請人資料", "A2")
	value, _ := wb.GetCellValue("申請人資料", "B2")
	if label != "姓名 (中文)" || value != "张伟" {
		t.Errorf("Unexpected first data row: %q / %q", label, value)
	}
	note, _ := wb.GetCellValue("申請人資料", "A3")
	if note != "" {
		t.Errorf("info_text field must not be exported, got %q", note)
	}

	// 可重复分区：实例标记行 + 实例值
	marker, _ := wb.GetCellValue("兄弟姊妹資料", "A3")
	if marker != "—— 第1項 ——" {
		t.Errorf("Expected instance marker, got %q", marker)
	}
	sibling, _ := wb.GetCellValue("兄弟姊妹資料", "B4")
	if sibling != "张小美" {
		t.Errorf("Expected instance value, got %q", sibling)
	}
}

func TestGenerateSchoolReportRequiresAPIKey(t *testing.T) {
	svc := NewReportService(gemini.NewClient("", "gemini-1.5-flash", time.Second), nil, zap.NewNop())

	_, err := svc.GenerateSchoolReport(context.Background(), "form-001")
	if !errors.Is(err, ErrAINotConfigured) {
		t.Errorf("Expected ErrAINotConfigured, got %v", err)
	}
}

func TestBuildReportPrompt(t *testing.T) {
	prompt := buildReportPrompt(reportTestForm())

	if !strings.Contains(prompt, "## 申請人資料") {
		t.Error("prompt must render section headings")
	}
	if !strings.Contains(prompt, "姓名 (中文): 张伟") {
		t.Error("prompt must render label/value pairs")
	}
	for _, section := range []string{"摘要", "優勢分析", "待發展領域", "學校匹配建議", "面試貼士"} {
		if !strings.Contains(prompt, section) {
			t.Errorf("prompt missing report section %s", section)
		}
	}
}
