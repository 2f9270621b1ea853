package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cvio-backend/cv/render"
	"cvio-backend/internal/cvs"
	"cvio-backend/internal/shared/storage/object/local"
	"cvio-backend/internal/shared/telemetry"
	"cvio-backend/internal/skills"
)

const theCVID = "THE-CV-ID"

type fixture struct {
	svc     *Service
	cvRepo  *cvs.MemoryRepo
	tmpDir  string
	router  *gin.Engine
	catalog *skills.Service
}

func newFixture(t *testing.T, tpl render.TemplateHandle) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cvRepo := cvs.NewMemoryRepo()
	catalog := skills.NewService(skills.NewMemoryRepo())
	if _, err := catalog.Seed(context.Background(), []skills.CreateSkillRequest{
		{ID: "SK1", Name: "Elasticsearch", Category: "other"},
		{ID: "SK2", Name: "Oracle", Category: "other"},
		{ID: "SK3", Name: "Derby", Category: "other"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tmpDir := t.TempDir()
	svc := &Service{
		CVs:      cvs.NewService(cvRepo),
		Skills:   catalog,
		Engine:   render.NewEngine(),
		Template: tpl,
		Store:    local.New(tmpDir),
	}
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group(""))
	return &fixture{svc: svc, cvRepo: cvRepo, tmpDir: tmpDir, router: router, catalog: catalog}
}

func (f *fixture) putCV(t *testing.T, id, doc string) {
	t.Helper()
	if err := f.cvRepo.Create(context.Background(), cvs.CV{ID: id, Document: []byte(doc)}); err != nil {
		t.Fatalf("create cv: %v", err)
	}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) assertNoArtifacts(t *testing.T) {
	t.Helper()
	var files []string
	_ = filepath.WalkDir(f.tmpDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if len(files) != 0 {
		t.Fatalf("expected no transient artifacts, found %v", files)
	}
}

func contentXML(t *testing.T, doc []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("open document: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "content.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open content.xml: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		return string(data)
	}
	t.Fatalf("content.xml missing")
	return ""
}

func TestExportResolvesAllSkills(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Mustermann","givenName":"Max","locality":"Musterstadt","skills":{"SK1":1,"SK2":2,"SK3":3}}`)

	rec := f.get("/cv/cvs/" + theCVID + "/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.oasis.opendocument.text" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=cv.odt" {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	content := contentXML(t, rec.Body.Bytes())
	if n := strings.Count(content, "<table:table-row>"); n != 4 {
		t.Fatalf("expected header row plus 3 skill rows, got %d", n)
	}
	es := strings.Index(content, "Elasticsearch")
	oracle := strings.Index(content, "Oracle")
	derby := strings.Index(content, "Derby")
	if es < 0 || oracle < es || derby < oracle {
		t.Fatalf("skills missing or out of order")
	}
	for _, want := range []string{"Mustermann", "Max", "Musterstadt"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in content", want)
		}
	}
	if strings.Contains(content, "{{") {
		t.Fatalf("unexpected placeholder left in content")
	}
	f.assertNoArtifacts(t)
}

func TestExportDropsStaleSkills(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Mustermann","givenName":"Max","skills":{"SK1":"1","SK4":"2","SK3":"3"}}`)

	rec := f.get("/cv/cvs/" + theCVID + "/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	content := contentXML(t, rec.Body.Bytes())
	if n := strings.Count(content, "<table:table-row>"); n != 3 {
		t.Fatalf("expected header row plus 2 skill rows, got %d", n)
	}
	if strings.Contains(content, "SK4") {
		t.Fatalf("stale skill id leaked into document")
	}
	f.assertNoArtifacts(t)
}

func TestExportUnknownCV(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())

	rec := f.get("/cv/cvs/missing/export")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"not_found"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	f.assertNoArtifacts(t)

	_, err := f.svc.Export(context.Background(), Request{CVID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportCorruptTemplate(t *testing.T) {
	f := newFixture(t, render.BytesTemplate{Label: "corrupt", Data: []byte("this is not a document")})
	f.putCV(t, theCVID, `{"familyName":"Mustermann"}`)

	rec := f.get("/cv/cvs/" + theCVID + "/export")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"template_unavailable"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("no document may be delivered on failure")
	}
	f.assertNoArtifacts(t)
}

type failingFormat struct{ render.ODT }

func (failingFormat) Merge([]byte, render.MergeData) ([]byte, error) {
	return nil, fmt.Errorf("%w: encode content.xml: boom", render.ErrRenderFailure)
}

func TestExportRenderFailure(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.svc.Engine = render.NewEngineWithFormat(failingFormat{})
	f.putCV(t, theCVID, `{"familyName":"Mustermann"}`)

	if _, err := f.svc.Export(context.Background(), Request{CVID: theCVID}); !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}

	rec := f.get("/cv/cvs/" + theCVID + "/export")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"render_failed"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "Mustermann") {
		t.Fatalf("error body leaks cv content: %s", rec.Body.String())
	}
	f.assertNoArtifacts(t)
}

func TestExportMissingTemplateFile(t *testing.T) {
	f := newFixture(t, render.FileTemplate{Path: filepath.Join(t.TempDir(), "absent.odt")})
	f.putCV(t, theCVID, `{}`)

	if _, err := f.svc.Export(context.Background(), Request{CVID: theCVID}); !errors.Is(err, ErrTemplateUnavailable) {
		t.Fatalf("expected ErrTemplateUnavailable, got %v", err)
	}
}

func TestConcurrentExportsOfSameCV(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Mustermann","skills":{"SK1":1,"SK2":2}}`)
	ctx := context.Background()

	const (
		workers = 16
		rounds  = 10
	)
	var wg sync.WaitGroup
	errs := make(chan error, workers*rounds)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				artifact, err := f.svc.Export(ctx, Request{CVID: theCVID})
				if err != nil {
					errs <- err
					return
				}
				_, _ = io.Copy(io.Discard, artifact.Body)
				if err := artifact.Close(); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent export failed: %v", err)
	}
	f.assertNoArtifacts(t)
}

func TestExportWithoutSkills(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Mustermann","givenName":"Max"}`)

	doc, err := f.svc.Generate(context.Background(), Request{CVID: theCVID})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.FileName != "cv.odt" {
		t.Fatalf("unexpected file name %q", doc.FileName)
	}
	content := contentXML(t, doc.Content)
	if n := strings.Count(content, "<table:table-row>"); n != 1 {
		t.Fatalf("expected only the header row, got %d", n)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Mustermann","skills":{"SK2":"2","SK1":"1"}}`)

	first, err := f.svc.Generate(context.Background(), Request{CVID: theCVID})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := f.svc.Generate(context.Background(), Request{CVID: theCVID})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(first.Content, second.Content) {
		t.Fatalf("expected byte-identical output")
	}
}

func TestExportLogsMalformedRatingsWithoutContent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	f := newFixture(t, render.DefaultTemplate())
	f.putCV(t, theCVID, `{"familyName":"Geheim","skills":{"SK1":"7","SK2":"2"}}`)

	artifact, err := f.svc.Export(context.Background(), Request{CVID: theCVID, Authenticated: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := io.ReadAll(artifact.Body)
	if err := artifact.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := artifact.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	f.assertNoArtifacts(t)

	if !strings.Contains(contentXML(t, data), "Elasticsearch") {
		t.Fatalf("malformed rating must keep the skill")
	}

	warnings := logs.FilterMessage("export.malformed_rating").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one malformed rating warning, got %d", len(warnings))
	}
	fields := warnings[0].ContextMap()
	if fields["cv_id"] != theCVID || fields["skill_id"] != "SK1" {
		t.Fatalf("unexpected warning fields %v", fields)
	}
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, "Geheim") {
				t.Fatalf("cv content leaked into log %q", entry.Message)
			}
		}
	}
	if logs.FilterMessage("export.completed").Len() != 1 {
		t.Fatalf("expected completion log")
	}
}
