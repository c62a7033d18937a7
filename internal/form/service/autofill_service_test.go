package service

import (
	"testing"

	"github.com/HooJohn/form.ai/internal/form/entity"
)

func testForm() *entity.FilledForm {
	return &entity.FilledForm{
		ID:           "form-001",
		UserID:       "user-001",
		FormLanguage: entity.LangZhHK,
		Sections: entity.SectionList{
			{
				ID:    "applicant_information",
				Title: entity.LocalizedString{"zh-HK": "申請人資料"},
				Fields: []entity.FormField{
					{
						ID:    "student_name_zh",
						Type:  entity.FieldTypeText,
						Label: entity.LocalizedString{"zh-HK": "姓名 (中文)", "en": "Name (Chinese)"},
					},
					{
						ID:    "student_name_en",
						Type:  entity.FieldTypeText,
						Label: entity.LocalizedString{"zh-HK": "英文姓名", "en": "Student Name (English)"},
					},
					{
						ID:    "date_of_birth",
						Type:  entity.FieldTypeDate,
						Label: entity.LocalizedString{"zh-HK": "出生日期", "en": "Date of Birth"},
					},
					{
						ID:    "section_note",
						Type:  entity.FieldTypeInfoText,
						Label: entity.LocalizedString{"zh-HK": "請以正楷填寫姓名"},
					},
				},
			},
			{
				ID:    "parent_information",
				Title: entity.LocalizedString{"zh-HK": "家長資料"},
				Fields: []entity.FormField{
					{
						ID:    "mother_name_zh",
						Type:  entity.FieldTypeText,
						Label: entity.LocalizedString{"zh-HK": "母親姓名 (中文)", "en": "Mother's Name (Chinese)"},
					},
				},
			},
			{
				ID:           "sibling_information",
				Title:        entity.LocalizedString{"zh-HK": "兄弟姊妹資料"},
				IsRepeatable: true,
				Fields: []entity.FormField{
					{
						ID:    "sibling_name",
						Type:  entity.FieldTypeText,
						Label: entity.LocalizedString{"zh-HK": "姓名"},
					},
				},
			},
		},
	}
}

func TestAutofillIDHintTakesPrecedence(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()

	// 标签"姓名"会子串命中多个字段，但id提示应该只写一个
	changes := svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "姓名", Value: "张伟", TargetFieldIDHint: "student_name_zh"},
	}, false)

	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %d: %+v", len(changes), changes)
	}
	if changes[0].FieldID != "student_name_zh" || changes[0].MatchedBy != "id_hint" {
		t.Errorf("Expected id_hint match on student_name_zh, got %+v", changes[0])
	}
	if got := form.FindField("applicant_information", "student_name_zh").Value; got != "张伟" {
		t.Errorf("Expected value 张伟, got %v", got)
	}
	if form.FindField("parent_information", "mother_name_zh").Value != nil {
		t.Error("mother_name_zh should not have been touched")
	}
}

func TestAutofillLabelSubstringFallback(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()

	// 无id提示时退回标签子串匹配："姓名"命中所有包含该子串的普通字段
	changes := svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "姓名", Value: "张伟"},
	}, false)

	matched := map[string]bool{}
	for _, ch := range changes {
		if ch.MatchedBy != "label" {
			t.Errorf("Expected label match, got %q", ch.MatchedBy)
		}
		matched[ch.FieldID] = true
	}
	if !matched["student_name_zh"] || !matched["mother_name_zh"] {
		t.Errorf("Expected 姓名 to hit both name fields, got %v", matched)
	}
	// 英文标签也参与匹配：Resolve(zh-HK) 返回中文标签"英文姓名"，包含"姓名"
	if !matched["student_name_en"] {
		t.Errorf("Expected 英文姓名 to match substring 姓名, got %v", matched)
	}
}

func TestAutofillSkipsStructuralFields(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()

	// "請以正楷填寫姓名" 的info_text标签同样包含"姓名"，但展示字段不承载值
	svc.Apply(form, []entity.ExtractedInfoItem{{Label: "姓名", Value: "张伟"}}, false)

	if form.FindField("applicant_information", "section_note").Value != nil {
		t.Error("info_text field must never receive a value")
	}
}

func TestAutofillSkipsRepeatableSections(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()

	svc.Apply(form, []entity.ExtractedInfoItem{{Label: "姓名", Value: "张伟"}}, false)

	if form.Sections[2].Fields[0].Value != nil {
		t.Error("repeatable section shape fields must not carry values")
	}
}

func TestAutofillManualFieldsProtected(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()
	field := form.FindField("applicant_information", "student_name_zh")
	field.Value = "李明"
	field.PopulationSource = entity.SourceManual

	changes := svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "姓名 (中文)", Value: "张伟", TargetFieldIDHint: "student_name_zh"},
	}, false)

	for _, ch := range changes {
		if ch.FieldID == "student_name_zh" {
			t.Fatal("manual field must not be overwritten without force")
		}
	}
	if field.Value != "李明" {
		t.Errorf("Expected manual value preserved, got %v", field.Value)
	}

	// force=true 恢复覆盖
	changes = svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "姓名 (中文)", Value: "张伟", TargetFieldIDHint: "student_name_zh"},
	}, true)
	if len(changes) != 1 || field.Value != "张伟" {
		t.Errorf("Expected force overwrite to 张伟, got %v (changes %v)", field.Value, changes)
	}
}

func TestAutofillTagsAIProvenance(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()
	conf := 92

	svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "出生日期", Value: "2009年3月4日", NormalizedValue: "2009-03-04", TargetFieldIDHint: "date_of_birth", Confidence: &conf},
	}, false)

	field := form.FindField("applicant_information", "date_of_birth")
	if field.Value != "2009-03-04" {
		t.Errorf("Expected normalized value, got %v", field.Value)
	}
	if field.PopulationSource != entity.SourceAIExtraction {
		t.Errorf("Expected ai_extraction source, got %q", field.PopulationSource)
	}
	if field.Confidence == nil || *field.Confidence != 92 {
		t.Errorf("Expected confidence 92, got %v", field.Confidence)
	}
	if field.IsVerifiedByHuman {
		t.Error("AI-filled field must start unverified")
	}
	// 原始值与归一化值不同，保留为候选
	if len(field.AISuggestions) != 1 || field.AISuggestions[0] != "2009年3月4日" {
		t.Errorf("Expected raw value in aiSuggestions, got %v", field.AISuggestions)
	}
}

func TestAutofillIgnoresEmptyItems(t *testing.T) {
	svc := NewAutofillService()
	form := testForm()

	changes := svc.Apply(form, []entity.ExtractedInfoItem{
		{Label: "姓名 (中文)", Value: "", TargetFieldIDHint: "student_name_zh"},
	}, false)

	if len(changes) != 0 {
		t.Errorf("Expected no changes for empty value, got %v", changes)
	}
}
