package projectfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

func TestNew(t *testing.T) {
	f := New(estimate.ProjectInfo{
		Name:           "쇼핑몰 리뉴얼",
		Description:    "모바일 중심 개편",
		Attachment:     "긴 자료",
		PackageBudgets: estimate.PackageBudgets{Basic: 15000000},
	}, "standard")

	assert.Equal(t, FileVersion, f.Version)
	assert.Equal(t, "standard", f.Template)
	assert.Equal(t, "15,000,000원", f.Packages.Basic)
	assert.Empty(t, f.Packages.Standard)
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "request.yaml")

	original := estimate.ProjectInfo{
		Name:                   "예약 앱",
		Description:            "병원 예약 모바일 앱",
		Client:                 "한빛병원",
		Budget:                 "3000만원",
		Timeline:               "3개월",
		AdditionalRequirements: "관리자 페이지 포함",
		Instructions:           "간결하게",
		PackageBudgets:         estimate.PackageBudgets{Basic: 15000000, Premium: 50000000},
	}

	require.NoError(t, Save(New(original, "detailed"), path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "detailed", loaded.Template)
	assert.Equal(t, original, loaded.ProjectInfo())
}

func TestLoad_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "request.yaml")
	content := `version: "1.0"
template: phased
project:
  name: 사내 메신저
  description: 보안 메신저 구축
  budget: 협의
packages:
  standard: 4000만원
attachments:
  - rfp.pdf
  - /abs/notes.docx
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := Load(path)
	require.NoError(t, err)

	p := f.ProjectInfo()
	assert.Equal(t, "사내 메신저", p.Name)
	assert.Equal(t, "협의", p.Budget)
	assert.Equal(t, int64(40000000), p.PackageBudgets.Standard)
	assert.Equal(t, []string{filepath.Join(tmpDir, "rfp.pdf"), "/abs/notes.docx"}, f.Attachments)
}

func TestLoad_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(filepath.Join(tmpDir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read project file")

	bad := filepath.Join(tmpDir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("project: [unclosed"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse project file")

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("version: \"1.0\"\nproject:\n  name: A\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "project description is required")
}

func TestSave_Invalid(t *testing.T) {
	err := Save(&File{Version: FileVersion}, filepath.Join(t.TempDir(), "x.yaml"))
	assert.ErrorContains(t, err, "invalid project file")
}
