package syncer_test

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/syncer"
)

// fakeFileSystem serves file contents from memory and records writes.
type fakeFileSystem struct {
	files   map[string][]byte
	written map[string][]byte
	created []string
}

func newFakeFileSystem(files map[string][]byte) *fakeFileSystem {
	if files == nil {
		files = map[string][]byte{}
	}
	return &fakeFileSystem{files: files, written: map[string][]byte{}}
}

func (fileSystem *fakeFileSystem) ReadFile(path string) ([]byte, error) {
	contents, exists := fileSystem.files[path]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return contents, nil
}

func (fileSystem *fakeFileSystem) WriteFile(path string, contents []byte, _ fs.FileMode) error {
	fileSystem.files[path] = contents
	fileSystem.written[path] = contents
	return nil
}

func (fileSystem *fakeFileSystem) MkdirAll(path string, _ fs.FileMode) error {
	fileSystem.created = append(fileSystem.created, path)
	return nil
}

func (fileSystem *fakeFileSystem) Stat(path string) (fs.FileInfo, error) {
	if _, exists := fileSystem.files[path]; !exists {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return fakeFileInfo{name: filepath.Base(path)}, nil
}

type fakeFileInfo struct {
	name string
}

func (info fakeFileInfo) Name() string       { return info.name }
func (info fakeFileInfo) Size() int64        { return 0 }
func (info fakeFileInfo) Mode() fs.FileMode  { return 0o644 }
func (info fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (info fakeFileInfo) IsDir() bool        { return false }
func (info fakeFileInfo) Sys() any           { return nil }

func TestComputeMajorityDigest(t *testing.T) {
	digestA := syncer.BytesDigest([]byte("alpha"))
	digestB := syncer.BytesDigest([]byte("bravo"))

	testCases := []struct {
		name             string
		digests          []syncer.RepositoryDigest
		expectedMajority string
		expectedFound    bool
	}{
		{
			name: "two_against_one",
			digests: []syncer.RepositoryDigest{
				{RepositoryPath: "/fleet/one", Digest: digestA, HasFile: true},
				{RepositoryPath: "/fleet/two", Digest: digestA, HasFile: true},
				{RepositoryPath: "/fleet/three", Digest: digestB, HasFile: true},
			},
			expectedMajority: digestA,
			expectedFound:    true,
		},
		{
			name: "tie_resolves_to_smallest_digest",
			digests: []syncer.RepositoryDigest{
				{RepositoryPath: "/fleet/one", Digest: digestA, HasFile: true},
				{RepositoryPath: "/fleet/two", Digest: digestB, HasFile: true},
			},
			expectedMajority: minDigest(digestA, digestB),
			expectedFound:    true,
		},
		{
			name: "absent_everywhere",
			digests: []syncer.RepositoryDigest{
				{RepositoryPath: "/fleet/one"},
				{RepositoryPath: "/fleet/two"},
			},
			expectedFound: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			majority, found := syncer.ComputeMajorityDigest(testCase.digests)
			require.Equal(t, testCase.expectedFound, found)
			require.Equal(t, testCase.expectedMajority, majority)
		})
	}
}

func minDigest(left string, right string) string {
	if left < right {
		return left
	}
	return right
}

func TestDetectOutliersKeepsInputOrder(t *testing.T) {
	digestA := syncer.BytesDigest([]byte("alpha"))
	digests := []syncer.RepositoryDigest{
		{RepositoryPath: "/fleet/one", Digest: digestA, HasFile: true},
		{RepositoryPath: "/fleet/two", HasFile: false},
		{RepositoryPath: "/fleet/three", Digest: syncer.BytesDigest([]byte("bravo")), HasFile: true},
	}

	outliers := syncer.DetectOutliers(digests, digestA)
	require.Len(t, outliers, 2)
	require.Equal(t, "/fleet/two", outliers[0].RepositoryPath)
	require.Equal(t, "/fleet/three", outliers[1].RepositoryPath)
}

func TestSelectSource(t *testing.T) {
	digestA := syncer.BytesDigest([]byte("alpha"))
	digestB := syncer.BytesDigest([]byte("bravo"))
	digests := []syncer.RepositoryDigest{
		{RepositoryPath: "/fleet/alpha-repo", Digest: digestA, HasFile: true},
		{RepositoryPath: "/fleet/bravo-repo", Digest: digestB, HasFile: true},
		{RepositoryPath: "/fleet/missing-repo", HasFile: false},
	}

	testCases := []struct {
		name             string
		masterRepository string
		expectedSource   string
		expectedFound    bool
		expectedFallback bool
	}{
		{
			name:           "majority_holder_without_master",
			expectedSource: "/fleet/alpha-repo",
			expectedFound:  true,
		},
		{
			name:             "named_master_overrides_majority",
			masterRepository: "bravo-repo",
			expectedSource:   "/fleet/bravo-repo",
			expectedFound:    true,
		},
		{
			name:             "master_without_file_falls_back_to_majority",
			masterRepository: "missing-repo",
			expectedSource:   "/fleet/alpha-repo",
			expectedFound:    true,
			expectedFallback: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			source, found, fellBack := syncer.SelectSource(digests, digestA, testCase.masterRepository)
			require.Equal(t, testCase.expectedFound, found)
			require.Equal(t, testCase.expectedFallback, fellBack)
			require.Equal(t, testCase.expectedSource, source.RepositoryPath)
		})
	}
}

func TestPlanFile(t *testing.T) {
	repositories := []string{"/fleet/one", "/fleet/two", "/fleet/three"}
	sharedContent := []byte("name: ci\n")

	t.Run("all_absent_is_a_skip", func(t *testing.T) {
		plan, planError := syncer.PlanFile(newFakeFileSystem(nil), repositories, ".github/workflows/ci.yml", "")
		require.NoError(t, planError)
		require.True(t, plan.AllAbsent)
		require.False(t, plan.RequiresAction())
	})

	t.Run("agreement_requires_no_action", func(t *testing.T) {
		fileSystem := newFakeFileSystem(map[string][]byte{
			filepath.Join("/fleet/one", "ci.yml"):   sharedContent,
			filepath.Join("/fleet/two", "ci.yml"):   sharedContent,
			filepath.Join("/fleet/three", "ci.yml"): sharedContent,
		})
		plan, planError := syncer.PlanFile(fileSystem, repositories, "ci.yml", "")
		require.NoError(t, planError)
		require.Empty(t, plan.Outliers)
		require.False(t, plan.RequiresAction())
	})

	t.Run("missing_and_divergent_repositories_are_outliers", func(t *testing.T) {
		fileSystem := newFakeFileSystem(map[string][]byte{
			filepath.Join("/fleet/one", "ci.yml"):   sharedContent,
			filepath.Join("/fleet/two", "ci.yml"):   sharedContent,
			filepath.Join("/fleet/three", "ci.yml"): []byte("name: release\n"),
		})
		plan, planError := syncer.PlanFile(fileSystem, repositories, "ci.yml", "")
		require.NoError(t, planError)
		require.True(t, plan.RequiresAction())
		require.Equal(t, "/fleet/one", plan.SourceRepository)
		require.Len(t, plan.Outliers, 1)
		require.Equal(t, "/fleet/three", plan.Outliers[0].RepositoryPath)
	})

	t.Run("plan_is_idempotent_after_apply", func(t *testing.T) {
		fileSystem := newFakeFileSystem(map[string][]byte{
			filepath.Join("/fleet/one", "ci.yml"): sharedContent,
			filepath.Join("/fleet/two", "ci.yml"): sharedContent,
		})
		firstPlan, firstError := syncer.PlanFile(fileSystem, repositories, "ci.yml", "")
		require.NoError(t, firstError)
		require.True(t, firstPlan.RequiresAction())

		require.NoError(t, fileSystem.WriteFile(filepath.Join("/fleet/three", "ci.yml"), sharedContent, 0o644))

		secondPlan, secondError := syncer.PlanFile(fileSystem, repositories, "ci.yml", "")
		require.NoError(t, secondError)
		require.False(t, secondPlan.RequiresAction())
		require.Empty(t, secondPlan.Outliers)
	})
}
