package status

import (
	"context"
	"io/fs"

	"github.com/repofleet/repofleet/internal/gitrepo"
)

// RepositoryDiscoverer lists sibling repositories beneath a parent directory.
type RepositoryDiscoverer interface {
	DiscoverRepositories(parentDirectory string) ([]string, error)
}

// GitRepositoryManager exposes the repository-level git operations the status
// checker needs.
type GitRepositoryManager interface {
	IsGitRepository(executionContext context.Context, repositoryPath string) bool
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	FetchRemote(executionContext context.Context, repositoryPath string, remoteName string) error
	CountBehindAhead(executionContext context.Context, repositoryPath string, remoteName string, branchName string) gitrepo.BehindAheadCounts
	PullFastForward(executionContext context.Context, repositoryPath string) error
}

// FileSystem provides the filesystem operations used for report output.
type FileSystem interface {
	Abs(path string) (string, error)
	WriteFile(path string, contents []byte, permissions fs.FileMode) error
}
