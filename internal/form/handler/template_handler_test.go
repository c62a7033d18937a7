package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/repository"
	"github.com/HooJohn/form.ai/internal/form/service"
	"github.com/HooJohn/form.ai/internal/form/testutil"
	"github.com/HooJohn/form.ai/internal/middleware"
	"github.com/gin-gonic/gin"
)

func setupTemplateTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	templateSvc := service.NewTemplateService(repos.Template)

	if err := templateSvc.SeedBuiltinTemplates(context.Background()); err != nil {
		t.Fatalf("seed templates: %v", err)
	}

	h := NewTemplateHandler(templateSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	templates := api.Group("/templates")
	templates.GET("", h.List)
	templates.GET("/:id", h.Get)
	templates.POST("", middleware.RequireRole(entity.RoleAdmin), h.Create)
	templates.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Update)
	templates.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Delete)

	return router
}

func userToken() string {
	return testutil.GenerateTestToken("test-user-001", "Test Parent", "parent@test.com", entity.RoleUser, entity.PlanFree)
}

func TestTemplateListSeeded(t *testing.T) {
	router := setupTemplateTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/templates", nil, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 3 {
		t.Fatalf("Expected 3 builtin templates, got %d", len(items))
	}

	ids := map[string]bool{}
	for _, it := range items {
		ids[it.(map[string]interface{})["id"].(string)] = true
	}
	for _, id := range []string{"template_001", "template_002", "template_003"} {
		if !ids[id] {
			t.Errorf("Missing builtin template %s", id)
		}
	}
}

func TestTemplateGet(t *testing.T) {
	router := setupTemplateTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/templates/template_003", nil, userToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["schoolName"] != "中華基督教會協和小學" {
		t.Errorf("Unexpected school: %v", data["schoolName"])
	}
	title := data["title"].(map[string]interface{})
	if title["zh-HK"] != "小一入學申請表" {
		t.Errorf("Unexpected title: %v", title)
	}
	grades := data["targetGrades"].([]interface{})
	if len(grades) != 1 || grades[0] != "P1" {
		t.Errorf("Expected target grade P1, got %v", grades)
	}
	if data["version"] != "3.0" {
		t.Errorf("Expected version 3.0, got %v", data["version"])
	}
	sections := data["sections"].([]interface{})
	if len(sections) != 3 {
		t.Errorf("Expected 3 sections, got %d", len(sections))
	}
}

func TestTemplateGetNotFound(t *testing.T) {
	router := setupTemplateTest(t)

	w := testutil.DoRequest(router, "GET", "/api/v1/templates/no_such", nil, userToken())
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestTemplateMutationRequiresAdmin(t *testing.T) {
	router := setupTemplateTest(t)

	body := map[string]interface{}{
		"schoolName": "測試中學",
		"title":      map[string]string{"zh-HK": "測試表格"},
	}

	w := testutil.DoRequest(router, "POST", "/api/v1/templates", body, userToken())
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin create, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "DELETE", "/api/v1/templates/template_001", nil, userToken())
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin delete, got %d", w.Code)
	}
}

func TestTemplateAdminCRUD(t *testing.T) {
	router := setupTemplateTest(t)
	admin := testutil.DefaultTestToken()

	// Create
	w := testutil.DoRequest(router, "POST", "/api/v1/templates", map[string]interface{}{
		"schoolName":      "聖保羅男女中學",
		"title":           map[string]string{"zh-HK": "中一入學申請表", "en": "S1 Admission Form"},
		"targetGrades":    []string{"S1"},
		"applicationType": "secondary_one_admission",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := testutil.ParseResponse(w)["data"].(map[string]interface{})
	id := created["id"].(string)
	if created["version"] != "1.0" {
		t.Errorf("Expected default version 1.0, got %v", created["version"])
	}
	if created["createdBy"] != "test-user-001" {
		t.Errorf("Expected creator recorded, got %v", created["createdBy"])
	}

	// Update
	w = testutil.DoRequest(router, "PUT", "/api/v1/templates/"+id, map[string]interface{}{
		"version": "1.1",
	}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["version"] != "1.1" {
		t.Errorf("Expected version 1.1, got %v", updated["version"])
	}
	if updated["schoolName"] != "聖保羅男女中學" {
		t.Errorf("Partial update must keep untouched fields, got %v", updated["schoolName"])
	}

	// Delete
	w = testutil.DoRequest(router, "DELETE", "/api/v1/templates/"+id, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(router, "GET", "/api/v1/templates/"+id, nil, admin)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}
