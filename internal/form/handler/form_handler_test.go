package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/HooJohn/form.ai/internal/form/testutil"
	"github.com/HooJohn/form.ai/internal/shared/gemini"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupFormTest(t *testing.T) (*gin.Engine, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	logger := zap.NewNop()

	// 未配置API密钥：提取走固定样例，不触发外部调用
	llm := gemini.NewClient("", "gemini-1.5-flash", time.Second)

	feedbackSvc := service.NewFeedbackService(repos.Feedback, logger)
	autofillSvc := service.NewAutofillService()
	formSvc := service.NewFormService(repos.Form, repos.Template, autofillSvc, feedbackSvc, logger)
	extractSvc := service.NewExtractService(llm, logger)
	reportSvc := service.NewReportService(llm, repos.Form, logger)
	templateSvc := service.NewTemplateService(repos.Template)

	if err := templateSvc.SeedBuiltinTemplates(context.Background()); err != nil {
		t.Fatalf("seed templates: %v", err)
	}
	testutil.SeedTestUser(t, db, "test-user-001", "Test Parent", "parent@test.com")

	formHandler := NewFormHandler(formSvc, extractSvc, reportSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	forms := api.Group("/forms")
	forms.POST("", formHandler.Create)
	forms.GET("", formHandler.List)
	forms.GET("/:id", formHandler.Get)
	forms.PUT("/:id", formHandler.Update)
	forms.PUT("/:id/status", formHandler.UpdateStatus)
	forms.DELETE("/:id", formHandler.Delete)
	forms.POST("/:id/autofill", formHandler.Autofill)

	return router, repos
}

func parentToken() string {
	return testutil.GenerateTestToken("test-user-001", "Test Parent", "parent@test.com", entity.RoleUser, entity.PlanFree)
}

func createForm(t *testing.T, router *gin.Engine, token, templateID string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(router, "POST", "/api/v1/forms", map[string]string{"templateId": templateID}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

// applicantSections 测试用的最小分区：与内置模板的申请人分区同形
func applicantSections(nameValue interface{}) entity.SectionList {
	return entity.SectionList{
		{
			ID:           "applicant_information",
			Title:        entity.LocalizedString{"zh-HK": "申請人資料", "en": "Applicant Information"},
			DisplayOrder: 1,
			Fields: []entity.FormField{
				{
					ID:    "student_name_zh",
					Type:  entity.FieldTypeText,
					Label: entity.LocalizedString{"zh-HK": "姓名 (中文)", "en": "Name (Chinese)"},
					Value: nameValue,
				},
				{
					ID:    "date_of_birth",
					Type:  entity.FieldTypeDate,
					Label: entity.LocalizedString{"zh-HK": "出生日期", "en": "Date of Birth"},
				},
				{
					ID:    "home_address",
					Type:  entity.FieldTypeAddress,
					Label: entity.LocalizedString{"zh-HK": "地址", "en": "Home Address"},
				},
			},
		},
	}
}

func TestFormCreateFromTemplate(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_003")

	if form["status"] != "draft" {
		t.Errorf("Expected status draft, got %v", form["status"])
	}
	if form["version"] != float64(1) {
		t.Errorf("Expected version 1, got %v", form["version"])
	}
	if form["templateId"] != "template_003" {
		t.Errorf("Expected templateId template_003, got %v", form["templateId"])
	}
	if form["userId"] != "test-user-001" {
		t.Errorf("Expected userId test-user-001, got %v", form["userId"])
	}
	sections, ok := form["sections"].([]interface{})
	if !ok || len(sections) != 0 {
		t.Errorf("New form must start with empty sections, got %v", form["sections"])
	}
	school := form["school"].(map[string]interface{})
	if school["name"] != "中華基督教會協和小學" {
		t.Errorf("Expected school name from template, got %v", school["name"])
	}
}

func TestFormCreateUnknownTemplate(t *testing.T) {
	router, _ := setupFormTest(t)

	w := testutil.DoRequest(router, "POST", "/api/v1/forms", map[string]string{"templateId": "no_such_template"}, parentToken())
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFormUpdateRoundTrip(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_003")
	formID := form["id"].(string)

	w := testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": applicantSections("张伟")}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["version"] != float64(2) {
		t.Errorf("Expected version 2 after update, got %v", updated["version"])
	}

	// 读回确认持久化
	w = testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	sections := got["sections"].([]interface{})
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	fields := sections[0].(map[string]interface{})["fields"].([]interface{})
	first := fields[0].(map[string]interface{})
	if first["id"] != "student_name_zh" || first["value"] != "张伟" {
		t.Errorf("Section contents not persisted: %v", first)
	}
	if got["templateId"] != "template_003" || got["userId"] != "test-user-001" {
		t.Error("templateId and userId must never change on update")
	}
}

func TestFormEmptyUpdateStillBumpsVersion(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_001")
	formID := form["id"].(string)

	w := testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID, map[string]interface{}{}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["version"] != float64(2) {
		t.Errorf("Empty update still bumps version, got %v", updated["version"])
	}
	if updated["status"] != "draft" {
		t.Errorf("Empty update must not change status, got %v", updated["status"])
	}
}

func TestFormVersionConflict(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_001")
	formID := form["id"].(string)

	// 第一次基于版本1保存成功
	w := testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"notes": "第一稿", "expectedVersion": 1}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 另一会话仍拿着版本1 → 409
	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"notes": "过期的稿", "expectedVersion": 1}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"] != float64(40900) {
		t.Errorf("Expected business code 40900, got %v", resp["code"])
	}
}

func TestFormStatusLifecycle(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_003")
	formID := form["id"].(string)

	// 填写后推进到completed
	testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": applicantSections("张伟")}, token)

	w := testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID+"/status",
		map[string]interface{}{"status": "completed"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "completed" {
		t.Errorf("Expected completed, got %v", data["status"])
	}

	// 回退被拒绝
	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID+"/status",
		map[string]interface{}{"status": "draft"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Backward transition must be rejected, got %d: %s", w.Code, w.Body.String())
	}

	// 跳级前进允许：completed → submitted_to_school
	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID+"/status",
		map[string]interface{}{"status": "submitted_to_school"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Skip-ahead transition should pass, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["submittedAt"] == nil {
		t.Error("submitted_to_school must stamp submittedAt")
	}

	// 归档可达且为终态
	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID+"/status",
		map[string]interface{}{"status": "archived"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Archive should pass, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID+"/status",
		map[string]interface{}{"status": "completed"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Archived form must be terminal, got %d", w.Code)
	}
}

func TestFormAutofillFromText(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_003")
	formID := form["id"].(string)
	testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": applicantSections(nil)}, token)

	w := testutil.DoRequest(router, "POST", "/api/v1/forms/"+formID+"/autofill",
		map[string]interface{}{"text": "我的儿子叫张伟，2009年3月4日出生，住在香港九龙旺角花园街132-136号友和大楼3C"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	applied := data["applied"].([]interface{})
	if len(applied) != 3 {
		t.Fatalf("Expected 3 applied changes, got %d: %v", len(applied), applied)
	}

	updated := data["form"].(map[string]interface{})
	fields := updated["sections"].([]interface{})[0].(map[string]interface{})["fields"].([]interface{})
	name := fields[0].(map[string]interface{})
	if name["value"] != "张伟" {
		t.Errorf("Expected autofilled 张伟, got %v", name["value"])
	}
	if name["populationSource"] != "ai_extraction" {
		t.Errorf("Expected ai_extraction provenance, got %v", name["populationSource"])
	}
}

func TestFormCorrectionFeedbackOnManualEdit(t *testing.T) {
	router, repos := setupFormTest(t)
	token := parentToken()
	ctx := context.Background()

	form := createForm(t, router, token, "template_003")
	formID := form["id"].(string)
	testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": applicantSections(nil)}, token)
	testutil.DoRequest(router, "POST", "/api/v1/forms/"+formID+"/autofill",
		map[string]interface{}{"text": "我的儿子叫张伟，2009年3月4日出生"}, token)

	// 像真实客户端一样：读回当前表单，只改名字，整体保存
	w := testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, token)
	current := testutil.ParseResponse(w)["data"].(map[string]interface{})
	sections := current["sections"].([]interface{})
	sections[0].(map[string]interface{})["fields"].([]interface{})[0].(map[string]interface{})["value"] = "张先伟"

	w = testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": sections}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	records, err := repos.Feedback.ListByForm(ctx, formID)
	if err != nil {
		t.Fatalf("list feedback: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected exactly 1 correction record, got %d: %+v", len(records), records)
	}
	rec := records[0]
	if rec.FieldID != "student_name_zh" || rec.OriginalAIValue != "张伟" || rec.UserCorrectedValue != "张先伟" {
		t.Errorf("Unexpected correction record: %+v", rec)
	}

	// 修正后AI标记被清除，成为人工值
	w = testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, token)
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	fields := got["sections"].([]interface{})[0].(map[string]interface{})["fields"].([]interface{})
	name := fields[0].(map[string]interface{})
	if name["populationSource"] != "manual" {
		t.Errorf("Expected provenance cleared to manual, got %v", name["populationSource"])
	}
	if name["isVerifiedByHuman"] != true {
		t.Errorf("Corrected field must be marked verified, got %v", name["isVerifiedByHuman"])
	}

	// 再次提交同样内容不会重复记录
	testutil.DoRequest(router, "PUT", "/api/v1/forms/"+formID,
		map[string]interface{}{"sections": got["sections"]}, token)
	records, _ = repos.Feedback.ListByForm(ctx, formID)
	if len(records) != 1 {
		t.Errorf("Correction must be logged exactly once, got %d records", len(records))
	}
}

func TestFormAccessControl(t *testing.T) {
	router, _ := setupFormTest(t)
	owner := parentToken()

	form := createForm(t, router, owner, "template_002")
	formID := form["id"].(string)

	// 其他普通用户被拒绝
	stranger := testutil.GenerateTestToken("test-user-002", "Stranger", "other@test.com", entity.RoleUser, entity.PlanFree)
	w := testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, stranger)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-owner, got %d", w.Code)
	}

	// 管理员可见
	admin := testutil.DefaultTestToken()
	w = testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, admin)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFormDelete(t *testing.T) {
	router, _ := setupFormTest(t)
	token := parentToken()

	form := createForm(t, router, token, "template_001")
	formID := form["id"].(string)

	w := testutil.DoRequest(router, "DELETE", "/api/v1/forms/"+formID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "GET", "/api/v1/forms/"+formID, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}
