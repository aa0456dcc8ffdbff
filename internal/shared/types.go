package shared

import (
	"context"
	"io/fs"
	"time"

	"github.com/repofleet/repofleet/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the default upstream remote used for GitHub repositories.
	OriginRemoteNameConstant = "origin"
	// GitProtocolURLPrefixConstant matches git protocol remote URLs.
	GitProtocolURLPrefixConstant = "git@github.com:"
	// SSHProtocolURLPrefixConstant matches ssh protocol remote URLs.
	SSHProtocolURLPrefixConstant = "ssh://git@github.com/"
	// HTTPSProtocolURLPrefixConstant matches https protocol remote URLs.
	HTTPSProtocolURLPrefixConstant = "https://github.com/"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes filesystem operations required by fleet services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, contents []byte, permissions fs.FileMode) error
}

// ConfirmationResult captures the outcome of a user confirmation prompt.
type ConfirmationResult struct {
	Confirmed  bool
	ApplyToAll bool
}

// ConfirmationPrompter collects user confirmations prior to mutating actions.
type ConfirmationPrompter interface {
	Confirm(prompt string) (ConfirmationResult, error)
}

// GitExecutor exposes the subset of shell execution used by fleet services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryDiscoverer locates sibling Git repositories for bulk operations.
type RepositoryDiscoverer interface {
	DiscoverRepositories(parentDirectory string) ([]string, error)
}
