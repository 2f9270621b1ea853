package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func TestRenderWritesDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "cv.odt")
	renderCV = filepath.Join("testdata", "cv.json")
	renderCatalog = filepath.Join("testdata", "catalog.yaml")
	renderTemplate = ""
	renderOut = out

	cmd, stdout, stderr := testCommand()
	require.NoError(t, runRender(cmd, nil))

	assert.Contains(t, stdout.String(), "(3 skills)")
	assert.Contains(t, stderr.String(), "skill SK4 is not in the catalog")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, "mimetype", zr.File[0].Name)
}

func TestRenderRejectsMissingCV(t *testing.T) {
	renderCV = filepath.Join(t.TempDir(), "absent.json")
	renderCatalog = ""
	renderOut = filepath.Join(t.TempDir(), "cv.odt")

	cmd, _, _ := testCommand()
	assert.Error(t, runRender(cmd, nil))
}

func TestCheckTemplate(t *testing.T) {
	checkTemplatePath = ""
	cmd, stdout, _ := testCommand()
	require.NoError(t, runCheckTemplate(cmd, nil))
	assert.Contains(t, stdout.String(), "OK: embedded:")

	bad := filepath.Join(t.TempDir(), "bad.odt")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o600))
	checkTemplatePath = bad
	assert.Error(t, runCheckTemplate(cmd, nil))
}

func TestReadCatalog(t *testing.T) {
	reqs, err := readCatalog(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, reqs, 3)
	assert.Equal(t, "SK2", reqs[1].ID)
	assert.Equal(t, "database", reqs[1].Category)
}

func TestSeedSkillsRefusesMemoryStore(t *testing.T) {
	t.Setenv("CV_STORE", "memory")
	t.Setenv("DATABASE_URL", "")
	seedSkillsFile = filepath.Join("testdata", "catalog.yaml")

	cmd, _, _ := testCommand()
	assert.ErrorContains(t, runSeedSkills(cmd, nil), "persistent store")
}
