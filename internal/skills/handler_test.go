package skills

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSkillHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(), "").RegisterRoutes(r.Group(""))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/skill/skills", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := post(`{"id":"SK1","name":"Elasticsearch","category":"search"}`)
	if rec.Code != http.StatusCreated || rec.Header().Get("Location") != "/skill/skills/SK1" {
		t.Fatalf("create: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := post(`{"id":"SK1","name":"Oracle","category":"database"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if rec := post(`{"name":"Oracle"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := post(`not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	_ = post(`{"name":"Oracle","category":"database"}`)

	rec = get("/skill/skills")
	var list []Skill
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(list))
	}

	if rec := get("/skill/skills/SK1"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Elasticsearch") {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	if rec := get("/skill/skills/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = get("/skill/categories")
	if rec.Body.String() != `["database","search"]` {
		t.Fatalf("unexpected categories %s", rec.Body.String())
	}
}
