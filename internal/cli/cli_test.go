package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stellarfs-api/internal/models"
	"github.com/noah-isme/stellarfs-api/internal/service"
	"github.com/noah-isme/stellarfs-api/internal/viewmodel"
)

const filesYAML = `
- id: f1
  name: Report.pdf
  type: pdf
  size: 2048
  last_modified: 2024-03-01T10:00:00Z
  owner: Ada
  permissions: [read, write]
  path: /docs
- id: f2
  name: photo.png
  type: image
  size: 1024
  last_modified: 2024-03-01T09:00:00Z
  owner: Bob
  permissions: [read]
  path: /pics
- id: f3
  name: notes.txt
  type: text
  size: 10
  last_modified: 2024-03-01T11:00:00Z
  owner: Ada
  permissions: []
  path: /docs
- id: f4
  name: report-2.pdf
  type: pdf
  size: 4096
  last_modified: 2024-03-01T08:00:00Z
  owner: Cy
  permissions: [read]
  path: /archive
`

var cliNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func() time.Time { return cliNow })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestViewMineTabUsesConfiguredUser(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "user = \"Ada\"\npage_size = 10\n")

	out, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "--tab", "mine",
		"--sort-by", "size", "--sort-dir", "desc", "-o", "tsv")
	require.NoError(t, err)

	rows := lines(out)
	require.Len(t, rows, 3)
	assert.True(t, strings.HasPrefix(rows[0], "id\tname\ttype\tsize"))
	assert.True(t, strings.HasPrefix(rows[1], "f1\tReport.pdf\tpdf\t2048\t2024-03-01T10:00:00Z\tAda\tread, write"))
	assert.True(t, strings.HasPrefix(rows[2], "f3\t"))
}

func TestViewUserFlagOverridesConfig(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "user = \"Ada\"\n")

	out, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "--tab", "mine", "--user", "Bob", "-o", "tsv")
	require.NoError(t, err)

	rows := lines(out)
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[1], "f2\t"))
}

func TestViewRecentHonoursConfiguredLimit(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "recent_limit = 2\n")

	out, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "--tab", "recent", "-o", "tsv")
	require.NoError(t, err)

	rows := lines(out)
	require.Len(t, rows, 3)
	assert.True(t, strings.HasPrefix(rows[1], "f3\t"))
	assert.True(t, strings.HasPrefix(rows[2], "f1\t"))
}

func TestViewJSONPagination(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "")

	out, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "-s", "REPORT",
		"--sort-by", "name", "--page", "1", "--page-size", "1", "-o", "json")
	require.NoError(t, err)

	var got viewOutput[models.File]
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "f1", got.Items[0].ID)
	assert.Equal(t, 2, got.Pagination.TotalCount)
	assert.Equal(t, 1, got.Pagination.Page)
	assert.Equal(t, int64(2048+4096), got.Stats.TotalSize)
}

func TestViewTableHumanizesCells(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "")

	out, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "--filter", "owner=Ada", "-o", "table")
	require.NoError(t, err)

	assert.Contains(t, out, "Report.pdf")
	assert.Contains(t, out, "2 KB")
	assert.Contains(t, out, "2 hours ago")
	assert.NotContains(t, out, "photo.png")
	assert.Contains(t, out, "page 1/1 · 2 records")
}

func TestViewReadsJSONFromStdin(t *testing.T) {
	cfg := writeFile(t, "cfg.toml", "")
	stdin := `[{"id":"f1","name":"a.txt","type":"text","size":1,"last_modified":"2024-03-01T10:00:00Z","owner":"Ada"}]`

	out, err := runCLI(t, stdin, "view", "--config", cfg, "-i", "-", "-o", "tsv")
	require.NoError(t, err)
	assert.Len(t, lines(out), 2)
}

func TestViewRejectsInvalidParameters(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "")

	_, err := runCLI(t, "", "view", "--config", cfg, "-i", input, "--tab", "shared", "-o", "tsv")
	var invalid *viewmodel.InvalidParameterError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "tab", invalid.Param)

	_, err = runCLI(t, "", "view", "--config", cfg, "-i", input, "--page-size", "0", "-o", "tsv")
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "page_size", invalid.Param)

	_, err = runCLI(t, "", "view", "--config", cfg, "-k", "planets", "-i", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")

	_, err = runCLI(t, "", "view", "--config", cfg, "-i", input, "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestStatsTSV(t *testing.T) {
	input := writeFile(t, "files.yaml", filesYAML)
	cfg := writeFile(t, "cfg.toml", "")

	out, err := runCLI(t, "", "stats", "--config", cfg, "-i", input, "-o", "tsv")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"count\t4",
		"total_size\t7178",
		"unique_types\t3",
		"unique_tags\t2",
		"type:image\t1",
		"type:pdf\t2",
		"type:text\t1",
	}, lines(out))
}

func TestTokenIsAcceptedByAuthService(t *testing.T) {
	cfg := writeFile(t, "cfg.toml", "user = \"Ada\"\nsecret = \"s3cret\"\n")

	out, err := runCLI(t, "", "token", "--config", cfg, "--user-id", "u-1", "--role", "admin", "-o", "json")
	require.NoError(t, err)

	var got tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "s3cret"})
	claims, err := auth.ValidateToken(got.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "Ada", claims.FullName)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenErrors(t *testing.T) {
	cfg := writeFile(t, "cfg.toml", "")

	_, err := runCLI(t, "", "token", "--config", cfg, "--user-id", "u-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signing secret")

	_, err = runCLI(t, "", "token", "--config", cfg, "--user-id", "u-1", "--secret", "x", "--role", "ROOT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")

	_, err = runCLI(t, "", "token", "--config", cfg, "--secret", "x")
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "cfg.toml", "user = \"Ada\"\npage_size = 25\nrecent_limit = 3\n"))
	require.NoError(t, err)
	assert.Equal(t, &Config{User: "Ada", PageSize: 25, RecentLimit: 3}, cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.toml", "page_size = -1\n"))
	require.Error(t, err)
}

func TestResolveOutputAutoOnBuffer(t *testing.T) {
	mode, err := resolveOutput(outputAuto, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, outputTSV, mode)
}
