package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/repofleet/repofleet/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant = "git executor not configured"
	unexpectedCountOutputTemplateConstant   = "unexpected rev-list count output: %q"
	detachedHeadReferenceConstant           = "HEAD"
	commitMessageFlagConstant               = "-m"
	revListLeftRightFlagConstant            = "--left-right"
	revListCountFlagConstant                = "--count"
	revisionRangeTemplateConstant           = "%s/%s...HEAD"
	remoteFileReferenceTemplateConstant     = "%s:%s"
	countFieldCountConstant                 = 2
	unknownCommitCountConstant              = -1
)

// ErrGitExecutorNotConfigured reports construction without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitExecutor runs git commands on behalf of the repository manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// BehindAheadCounts captures how a local branch relates to its remote
// counterpart. Negative counts mean the comparison could not be computed.
type BehindAheadCounts struct {
	Behind int
	Ahead  int
}

// Unknown reports whether either count could not be determined.
func (counts BehindAheadCounts) Unknown() bool {
	return counts.Behind < 0 || counts.Ahead < 0
}

// RepositoryManager performs structured Git operations against local repositories.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager validates dependencies and constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsGitRepository reports whether the path sits inside a Git work tree.
func (manager *RepositoryManager) IsGitRepository(executionContext context.Context, repositoryPath string) bool {
	result, executionError := manager.run(executionContext, repositoryPath, "rev-parse", "--is-inside-work-tree")
	if executionError != nil {
		return false
	}
	return strings.TrimSpace(result.StandardOutput) == "true"
}

// CheckCleanWorktree reports whether the repository has no uncommitted changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	result, executionError := manager.run(executionContext, repositoryPath, "status", "--porcelain")
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(result.StandardOutput)) == 0, nil
}

// GetCurrentBranch resolves the checked-out branch name. Detached heads are
// reported as "HEAD".
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, "rev-parse", "--abbrev-ref", detachedHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// HeadCommit resolves the commit hash the worktree currently points at.
func (manager *RepositoryManager) HeadCommit(executionContext context.Context, repositoryPath string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, "rev-parse", detachedHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// IsDetachedHead reports whether the branch name denotes a detached HEAD state.
func IsDetachedHead(branchName string) bool {
	return strings.EqualFold(strings.TrimSpace(branchName), detachedHeadReferenceConstant)
}

// GetRemoteURL reads the URL configured for the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, "remote", "get-url", remoteName)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(result.StandardOutput), nil
}

// FetchRemote updates remote tracking references for the named remote.
func (manager *RepositoryManager) FetchRemote(executionContext context.Context, repositoryPath string, remoteName string) error {
	_, executionError := manager.run(executionContext, repositoryPath, "fetch", remoteName)
	return executionError
}

// CountBehindAhead compares the local branch with its remote counterpart using
// rev-list left-right counts. Comparison failures yield negative counts rather
// than an error so callers can classify the repository as unknown.
func (manager *RepositoryManager) CountBehindAhead(executionContext context.Context, repositoryPath string, remoteName string, branchName string) BehindAheadCounts {
	revisionRange := fmt.Sprintf(revisionRangeTemplateConstant, remoteName, branchName)
	result, executionError := manager.run(executionContext, repositoryPath, "rev-list", revListLeftRightFlagConstant, revListCountFlagConstant, revisionRange)
	if executionError != nil {
		return BehindAheadCounts{Behind: unknownCommitCountConstant, Ahead: unknownCommitCountConstant}
	}

	counts, parseError := parseBehindAheadOutput(result.StandardOutput)
	if parseError != nil {
		return BehindAheadCounts{Behind: unknownCommitCountConstant, Ahead: unknownCommitCountConstant}
	}
	return counts
}

func parseBehindAheadOutput(output string) (BehindAheadCounts, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) != countFieldCountConstant {
		return BehindAheadCounts{}, fmt.Errorf(unexpectedCountOutputTemplateConstant, output)
	}

	behindCount, behindError := strconv.Atoi(fields[0])
	if behindError != nil {
		return BehindAheadCounts{}, behindError
	}
	aheadCount, aheadError := strconv.Atoi(fields[1])
	if aheadError != nil {
		return BehindAheadCounts{}, aheadError
	}
	return BehindAheadCounts{Behind: behindCount, Ahead: aheadCount}, nil
}

// PullFastForward integrates remote changes, refusing non-fast-forward merges.
func (manager *RepositoryManager) PullFastForward(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, "pull", "--ff-only")
	return executionError
}

// ShowRemoteFile reads a file's contents at the named remote reference.
func (manager *RepositoryManager) ShowRemoteFile(executionContext context.Context, repositoryPath string, remoteReference string, relativeFilePath string) ([]byte, error) {
	fileReference := fmt.Sprintf(remoteFileReferenceTemplateConstant, remoteReference, relativeFilePath)
	result, executionError := manager.run(executionContext, repositoryPath, "show", fileReference)
	if executionError != nil {
		return nil, executionError
	}
	return []byte(result.StandardOutput), nil
}

// ResolveUpstreamReference resolves the upstream tracking reference for the
// current branch, falling back to the provided candidates when no upstream is
// configured.
func (manager *RepositoryManager) ResolveUpstreamReference(executionContext context.Context, repositoryPath string, fallbackReferences []string) (string, error) {
	result, executionError := manager.run(executionContext, repositoryPath, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	if executionError == nil {
		upstreamReference := strings.TrimSpace(result.StandardOutput)
		if len(upstreamReference) > 0 {
			return upstreamReference, nil
		}
	}

	for _, candidateReference := range fallbackReferences {
		if _, verifyError := manager.run(executionContext, repositoryPath, "rev-parse", "--verify", candidateReference); verifyError == nil {
			return candidateReference, nil
		}
	}

	if executionError != nil {
		return "", executionError
	}
	return "", fmt.Errorf(unexpectedCountOutputTemplateConstant, result.StandardOutput)
}

// StageFile adds the named file to the index.
func (manager *RepositoryManager) StageFile(executionContext context.Context, repositoryPath string, relativeFilePath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, "add", relativeFilePath)
	return executionError
}

// HasStagedChanges reports whether the index differs from HEAD.
func (manager *RepositoryManager) HasStagedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	_, executionError := manager.run(executionContext, repositoryPath, "diff", "--cached", "--quiet")
	if executionError == nil {
		return false, nil
	}

	var failure execshell.CommandFailedError
	if errors.As(executionError, &failure) && failure.Result.ExitCode == 1 {
		return true, nil
	}
	return false, executionError
}

// Commit records the staged changes with the supplied message.
func (manager *RepositoryManager) Commit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	_, executionError := manager.run(executionContext, repositoryPath, "commit", commitMessageFlagConstant, commitMessage)
	return executionError
}

// Push publishes local commits to the default upstream.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, "push")
	return executionError
}

// DiffFiles compares two paths outside the index and returns the textual diff.
// A non-empty diff is not treated as an error.
func (manager *RepositoryManager) DiffFiles(executionContext context.Context, leftPath string, rightPath string) (string, error) {
	result, executionError := manager.run(executionContext, "", "diff", "--no-index", "--", leftPath, rightPath)
	if executionError == nil {
		return result.StandardOutput, nil
	}

	var failure execshell.CommandFailedError
	if errors.As(executionError, &failure) && failure.Result.ExitCode == 1 {
		return failure.Result.StandardOutput, nil
	}
	return "", executionError
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	details := execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath}
	return manager.executor.ExecuteGit(executionContext, details)
}
