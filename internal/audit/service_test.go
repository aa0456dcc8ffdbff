package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/audit"
	"github.com/repofleet/repofleet/internal/githubapi"
	"github.com/repofleet/repofleet/internal/shared"
)

const auditOwnerConstant = "fleet-owner"

type fakeInspector struct {
	repositories []githubapi.RepositoryMetadata
	files        map[string]map[string][]byte
	directories  map[string]map[string][]githubapi.DirectoryEntry
	listCalls    int
}

func (inspector *fakeInspector) ListRepositoriesByOwner(_ context.Context, _ string, limit int) ([]githubapi.RepositoryMetadata, error) {
	inspector.listCalls++
	if limit < len(inspector.repositories) {
		return inspector.repositories[:limit], nil
	}
	return inspector.repositories, nil
}

func (inspector *fakeInspector) GetFileContent(_ context.Context, _ string, repository string, path string) (githubapi.FileContent, error) {
	contents, exists := inspector.files[repository][path]
	if !exists {
		return githubapi.FileContent{}, nil
	}
	return githubapi.FileContent{Found: true, Content: contents}, nil
}

func (inspector *fakeInspector) ListDirectory(_ context.Context, _ string, repository string, path string) ([]githubapi.DirectoryEntry, error) {
	return inspector.directories[repository][path], nil
}

func (inspector *fakeInspector) PathExists(_ context.Context, _ string, repository string, path string) (bool, error) {
	_, exists := inspector.files[repository][path]
	return exists, nil
}

type memoryFileSystem struct {
	files map[string][]byte
}

func newMemoryFileSystem() *memoryFileSystem {
	return &memoryFileSystem{files: map[string][]byte{}}
}

func (fileSystem *memoryFileSystem) ReadFile(path string) ([]byte, error) {
	contents, exists := fileSystem.files[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return contents, nil
}

func (fileSystem *memoryFileSystem) WriteFile(path string, contents []byte, _ fs.FileMode) error {
	fileSystem.files[path] = contents
	return nil
}

func (fileSystem *memoryFileSystem) MkdirAll(_ string, _ fs.FileMode) error {
	return nil
}

type fixedClock struct {
	now time.Time
}

func (clock fixedClock) Now() time.Time { return clock.now }

func newAuditFixture() (*fakeInspector, *memoryFileSystem, fixedClock) {
	pushedAt := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	inspector := &fakeInspector{
		repositories: []githubapi.RepositoryMetadata{
			{
				Name:     "alpha",
				FullName: auditOwnerConstant + "/alpha",
				HTMLURL:  "https://github.com/" + auditOwnerConstant + "/alpha",
				Language: "Go",
				PushedAt: pushedAt,
				Stars:    3,
			},
			{
				Name:     "bravo",
				FullName: auditOwnerConstant + "/bravo",
				HTMLURL:  "https://github.com/" + auditOwnerConstant + "/bravo",
				IsFork:   true,
				PushedAt: pushedAt,
			},
		},
		files: map[string]map[string][]byte{
			"alpha": {
				"README.md":                       []byte("# alpha\n\nDocs on DeepWiki.\nhttps://example.com\n"),
				".github/copilot-instructions.md": []byte("instructions\n"),
			},
			"bravo": {},
		},
		directories: map[string]map[string][]githubapi.DirectoryEntry{
			"alpha": {
				"": {
					{Name: "README.md", Type: "file"},
					{Name: "google1234.html", Type: "file"},
					{Name: "_config.yml", Type: "file"},
				},
				".github/workflows": {
					{Name: "ci.yml", Type: "file"},
				},
			},
			"bravo": {
				"": {
					{Name: "main.go", Type: "file"},
				},
			},
		},
	}
	clock := fixedClock{now: time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC)}
	return inspector, newMemoryFileSystem(), clock
}

func defaultAuditOptions() audit.Options {
	return audit.Options{
		Owner:          auditOwnerConstant,
		Limit:          20,
		ReadmePath:     "README.md",
		MarkerPatterns: []string{"deepwiki.com", "deepwiki", "DeepWiki"},
		CacheDirectory: "cache",
		RegistryPath:   "config/repositories.yaml",
	}
}

func TestServiceRunAuditsRepositories(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	outputBuffer := &bytes.Buffer{}
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(outputBuffer), clock)

	require.NoError(t, service.Run(context.Background(), defaultAuditOptions()))

	consoleOutput := outputBuffer.String()
	require.Contains(t, consoleOutput, "readme:yes | markers:yes | verification:yes | agents:yes | ci:yes | jekyll:yes")
	require.Contains(t, consoleOutput, "readme:no | markers:no | verification:no | agents:no | ci:no | jekyll:no")
	require.Contains(t, consoleOutput, "Repositories audited: 2 (forks: 1, archived: 0)")
	require.Contains(t, consoleOutput, "missing: bravo")

	require.Contains(t, fileSystem.files, "cache/repositories.json")
	require.Contains(t, fileSystem.files, "cache/history.json")
	require.Contains(t, string(fileSystem.files["config/repositories.yaml"]), "repository: alpha")
	require.Contains(t, string(fileSystem.files["config/repositories.yaml"]), "repository: bravo")
}

func TestServiceRunWritesReportDocument(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(&bytes.Buffer{}), clock)

	options := defaultAuditOptions()
	options.OutputPath = "repo_analysis.json"
	require.NoError(t, service.Run(context.Background(), options))

	var document audit.ReportDocument
	require.NoError(t, json.Unmarshal(fileSystem.files["repo_analysis.json"], &document))
	require.Equal(t, auditOwnerConstant, document.Owner)
	require.Equal(t, 2, document.Total)
	require.Len(t, document.Repositories, 2)

	alpha := document.Repositories[0]
	require.Equal(t, "alpha", alpha.Name)
	require.True(t, alpha.ReadmeExists)
	require.NotNil(t, alpha.ReadmeMetrics)
	require.Equal(t, []string{"DeepWiki"}, alpha.Markers.MatchedPatterns)
	require.Equal(t, []string{"google1234.html"}, alpha.VerificationHTML.Files)
	require.Equal(t, []string{".github/copilot-instructions.md"}, alpha.AgentsFiles.Files)
	require.Equal(t, []string{"ci.yml"}, alpha.Workflows.Files)
	require.True(t, alpha.JekyllConfig)

	bravo := document.Repositories[1]
	require.False(t, bravo.ReadmeExists)
	require.Nil(t, bravo.ReadmeMetrics)
	require.False(t, bravo.Markers.Found)
}

func TestServiceRunChecksConfiguredPaths(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	outputBuffer := &bytes.Buffer{}
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(outputBuffer), clock)

	options := defaultAuditOptions()
	options.CheckPaths = []string{".github/copilot-instructions.md", "LICENSE"}
	options.OutputPath = "repo_analysis.json"
	require.NoError(t, service.Run(context.Background(), options))

	consoleOutput := outputBuffer.String()
	require.Contains(t, consoleOutput, ".github/copilot-instructions.md:yes | LICENSE:no")
	require.Contains(t, consoleOutput, "path .github/copilot-instructions.md  [1/2 present, 1/2 missing]")
	require.Contains(t, consoleOutput, "path LICENSE  [0/2 present, 2/2 missing]")

	var document audit.ReportDocument
	require.NoError(t, json.Unmarshal(fileSystem.files["repo_analysis.json"], &document))
	require.Equal(t, map[string]bool{".github/copilot-instructions.md": true, "LICENSE": false}, document.Repositories[0].CheckPaths)
	require.Equal(t, map[string]bool{".github/copilot-instructions.md": false, "LICENSE": false}, document.Repositories[1].CheckPaths)
}

func TestServiceRunServesListingFromCache(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	outputBuffer := &bytes.Buffer{}
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(outputBuffer), clock)

	require.NoError(t, service.Run(context.Background(), defaultAuditOptions()))
	require.Equal(t, 1, inspector.listCalls)

	require.NoError(t, service.Run(context.Background(), defaultAuditOptions()))
	require.Equal(t, 1, inspector.listCalls)
	require.Contains(t, outputBuffer.String(), "served from cache")
}

func TestServiceRunRefreshesStaleCache(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(&bytes.Buffer{}), clock)
	require.NoError(t, service.Run(context.Background(), defaultAuditOptions()))

	nextDayClock := fixedClock{now: clock.now.Add(24 * time.Hour)}
	staleService := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(&bytes.Buffer{}), nextDayClock)
	require.NoError(t, staleService.Run(context.Background(), defaultAuditOptions()))
	require.Equal(t, 2, inspector.listCalls)
}

func TestServiceRunRequiresOwner(t *testing.T) {
	inspector, fileSystem, clock := newAuditFixture()
	service := audit.NewService(inspector, fileSystem, shared.NewWriterReporter(&bytes.Buffer{}), clock)

	options := defaultAuditOptions()
	options.Owner = "   "
	require.ErrorIs(t, service.Run(context.Background(), options), audit.ErrOwnerNotConfigured)
}
