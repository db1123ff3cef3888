package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/gin-gonic/gin"
)

func asRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetUserIdInContext(c.Request.Context(), 1)
		ctx = utils.SetRoleInContext(ctx, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func performJSON(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateUserHandlerRequiresReviewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/users", asRole(string(models.UserRoleMinisterio)), createUserHandler())

	w := performJSON(t, r, http.MethodPost, "/users",
		`{"username":"carguista","name":"Carguista","password":"p","role":"M","ministerio_id":1}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403", w.Code)
	}
}

func TestCreateUserHandlerRejectsInvalidPhone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/users", asRole(string(models.UserRoleAdmin)), createUserHandler())

	w := performJSON(t, r, http.MethodPost, "/users",
		`{"username":"revisor2","name":"Revisor Dos","password":"p","role":"A","phone":"no-es-telefono"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400: %s", w.Code, w.Body.String())
	}
}

func TestToggleIndicadorHandlerRequiresReviewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/indicadores/:id/active", asRole(string(models.UserRoleMinisterio)), toggleActiveIndicadorHandler())

	w := performJSON(t, r, http.MethodPut, "/indicadores/1/active", `{"is_active":false}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, expected 403", w.Code)
	}
}

func TestToggleIndicadorHandlerRequiresFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/indicadores/:id/active", asRole(string(models.UserRoleAdmin)), toggleActiveIndicadorHandler())

	w := performJSON(t, r, http.MethodPut, "/indicadores/1/active", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400 for missing is_active", w.Code)
	}
}
