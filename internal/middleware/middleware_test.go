package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HooJohn/form.ai/internal/form/entity"
	"github.com/HooJohn/form.ai/internal/form/testutil"
	"github.com/HooJohn/form.ai/internal/middleware"
	"github.com/gin-gonic/gin"
)

func setupGuardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("", middleware.JWTAuth(testutil.JWTSecret))
	authed.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "plan": c.GetString("user_plan")})
	})
	authed.GET("/admin-only", middleware.RequireRole(entity.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	authed.GET("/paid-only", middleware.RequirePlan(entity.PlanBasic, entity.PlanPremium), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(r *gin.Engine, path, token string, viaQuery bool) *httptest.ResponseRecorder {
	if viaQuery && token != "" {
		path += "?token=" + token
		token = ""
	}
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMissingToken(t *testing.T) {
	r := setupGuardedRouter()
	if w := doGet(r, "/whoami", "", false); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestJWTAuthInvalidToken(t *testing.T) {
	r := setupGuardedRouter()
	if w := doGet(r, "/whoami", "not-a-jwt", false); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestJWTAuthBearerAndQueryParam(t *testing.T) {
	r := setupGuardedRouter()
	token := testutil.GenerateTestToken("u1", "User", "u1@test.com", entity.RoleUser, entity.PlanFree)

	if w := doGet(r, "/whoami", token, false); w.Code != http.StatusOK {
		t.Errorf("Bearer header auth failed: %d %s", w.Code, w.Body.String())
	}
	// SSE场景：token放query param
	if w := doGet(r, "/whoami", token, true); w.Code != http.StatusOK {
		t.Errorf("Query param auth failed: %d %s", w.Code, w.Body.String())
	}
}

func TestRequireRoleAdmin(t *testing.T) {
	r := setupGuardedRouter()

	user := testutil.GenerateTestToken("u1", "User", "u1@test.com", entity.RoleUser, entity.PlanFree)
	if w := doGet(r, "/admin-only", user, false); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for user role, got %d", w.Code)
	}

	admin := testutil.GenerateTestToken("a1", "Admin", "a1@test.com", entity.RoleAdmin, entity.PlanFree)
	if w := doGet(r, "/admin-only", admin, false); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", w.Code)
	}
}

func TestRequirePlanGating(t *testing.T) {
	r := setupGuardedRouter()

	free := testutil.GenerateTestToken("u1", "Free User", "u1@test.com", entity.RoleUser, entity.PlanFree)
	w := doGet(r, "/paid-only", free, false)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for free plan, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"] != float64(40320) {
		t.Errorf("Expected code 40320, got %v", resp["code"])
	}
	data := resp["data"].(map[string]interface{})
	if data["current_plan"] != "free" {
		t.Errorf("Expected current_plan free, got %v", data["current_plan"])
	}

	for _, plan := range []string{entity.PlanBasic, entity.PlanPremium} {
		token := testutil.GenerateTestToken("u2", "Paid User", "u2@test.com", entity.RoleUser, plan)
		if w := doGet(r, "/paid-only", token, false); w.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s plan, got %d", plan, w.Code)
		}
	}
}
