package syncer

import (
	"context"
	"io/fs"
)

// RepositoryDiscoverer lists sibling repositories beneath a parent directory.
type RepositoryDiscoverer interface {
	DiscoverRepositories(parentDirectory string) ([]string, error)
}

// GitRepositoryManager exposes the git operations the synchronizer needs.
type GitRepositoryManager interface {
	IsGitRepository(executionContext context.Context, repositoryPath string) bool
	FetchRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	ResolveUpstreamReference(executionContext context.Context, repositoryPath string, fallbackReferences []string) (string, error)
	ShowRemoteFile(executionContext context.Context, repositoryPath string, remoteReference string, relativeFilePath string) ([]byte, error)
	DiffFiles(executionContext context.Context, leftPath string, rightPath string) (string, error)
	StageFile(executionContext context.Context, repositoryPath string, relativeFilePath string) error
	HasStagedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	Commit(executionContext context.Context, repositoryPath string, commitMessage string) error
	Push(executionContext context.Context, repositoryPath string) error
}

// FileSystem provides the filesystem operations used when applying sync plans.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, contents []byte, permissions fs.FileMode) error
	MkdirAll(path string, permissions fs.FileMode) error
}
