// Package selfupdate refreshes a repofleet checkout before long-running
// commands so operators always run the latest committed tooling.
package selfupdate

import (
	"context"
	"fmt"
	"strings"

	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/gitrepo"
	"github.com/repofleet/repofleet/internal/shared"
)

const (
	DisableEnvironmentVariableName = "REPOFLEET_DISABLE_SELF_UPDATE"

	disableEnvironmentValueConstant   = "1"
	upstreamSeparatorConstant         = "/"
	commitsEndpointTemplateConstant   = "repos/%s/%s/commits"
	branchFieldTemplateConstant       = "sha=%s"
	singleCommitPageFieldConstant     = "per_page=1"
	latestCommitJQSelectorConstant    = ".[0].sha"
	dirtyWorktreeMessageConstant      = "Self-update skipped: local changes detected.\n"
	pullFailedMessageTemplateConstant = "Self-update skipped: git pull failed (%v).\n"
	updateAppliedMessageConstant      = "Self-update applied: restart repofleet to run the latest code.\n"
)

// GitManager exposes the repository operations the updater needs.
type GitManager interface {
	ResolveUpstreamReference(executionContext context.Context, repositoryPath string, fallbackReferences []string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	HeadCommit(executionContext context.Context, repositoryPath string) (string, error)
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	PullFastForward(executionContext context.Context, repositoryPath string) error
}

// GitHubCLIExecutor runs gh commands for the remote commit lookup.
type GitHubCLIExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Updater pulls the checkout at repositoryRoot forward when its upstream
// branch has new commits. Every precondition failure degrades to a silent
// no-op so an unusual environment never blocks the command that asked for
// the update.
type Updater struct {
	gitManager  GitManager
	gitHubCLI   GitHubCLIExecutor
	reporter    shared.Reporter
	environment func(string) string
}

// NewUpdater constructs an Updater. The environment lookup defaults are
// supplied by the caller so tests can control the disable switch.
func NewUpdater(gitManager GitManager, gitHubCLI GitHubCLIExecutor, reporter shared.Reporter, environment func(string) string) *Updater {
	if environment == nil {
		environment = func(string) string { return "" }
	}
	return &Updater{gitManager: gitManager, gitHubCLI: gitHubCLI, reporter: reporter, environment: environment}
}

// MaybeUpdate checks whether the upstream branch of the checkout at
// repositoryRoot has commits the local HEAD lacks and fast-forwards when it
// does. It returns true when an update was pulled.
func (updater *Updater) MaybeUpdate(executionContext context.Context, repositoryRoot string) (bool, error) {
	if updater.environment(DisableEnvironmentVariableName) == disableEnvironmentValueConstant {
		return false, nil
	}
	if len(strings.TrimSpace(repositoryRoot)) == 0 {
		return false, nil
	}

	upstreamReference, upstreamError := updater.gitManager.ResolveUpstreamReference(executionContext, repositoryRoot, nil)
	if upstreamError != nil {
		return false, nil
	}
	remoteName, branchName, splitOK := splitUpstreamReference(upstreamReference)
	if !splitOK {
		return false, nil
	}

	remoteURLText, remoteURLError := updater.gitManager.GetRemoteURL(executionContext, repositoryRoot, remoteName)
	if remoteURLError != nil {
		return false, nil
	}
	remoteURL, parseError := gitrepo.ParseRemoteURL(remoteURLText)
	if parseError != nil {
		return false, nil
	}

	localCommit, localCommitError := updater.gitManager.HeadCommit(executionContext, repositoryRoot)
	if localCommitError != nil || len(localCommit) == 0 {
		return false, nil
	}

	remoteCommit := updater.latestRemoteCommit(executionContext, repositoryRoot, remoteURL.Owner, remoteURL.Repository, branchName)
	if len(remoteCommit) == 0 || remoteCommit == localCommit {
		return false, nil
	}

	clean, cleanError := updater.gitManager.CheckCleanWorktree(executionContext, repositoryRoot)
	if cleanError != nil {
		return false, nil
	}
	if !clean {
		updater.reporter.Printf(dirtyWorktreeMessageConstant)
		return false, nil
	}

	if pullError := updater.gitManager.PullFastForward(executionContext, repositoryRoot); pullError != nil {
		updater.reporter.Printf(pullFailedMessageTemplateConstant, pullError)
		return false, nil
	}

	updater.reporter.Printf(updateAppliedMessageConstant)
	return true, nil
}

// latestRemoteCommit asks the GitHub CLI for the newest commit hash on the
// upstream branch. Any failure yields an empty hash so the update is skipped.
func (updater *Updater) latestRemoteCommit(executionContext context.Context, repositoryRoot string, owner string, repository string, branchName string) string {
	details := execshell.CommandDetails{
		Arguments: []string{
			"api",
			fmt.Sprintf(commitsEndpointTemplateConstant, owner, repository),
			"-F", fmt.Sprintf(branchFieldTemplateConstant, branchName),
			"-F", singleCommitPageFieldConstant,
			"--jq", latestCommitJQSelectorConstant,
		},
		WorkingDirectory: repositoryRoot,
	}
	result, executionError := updater.gitHubCLI.ExecuteGitHubCLI(executionContext, details)
	if executionError != nil {
		return ""
	}
	return strings.TrimSpace(result.StandardOutput)
}

func splitUpstreamReference(upstreamReference string) (string, string, bool) {
	trimmedReference := strings.TrimSpace(upstreamReference)
	separatorIndex := strings.Index(trimmedReference, upstreamSeparatorConstant)
	if separatorIndex <= 0 || separatorIndex == len(trimmedReference)-1 {
		return "", "", false
	}
	return trimmedReference[:separatorIndex], trimmedReference[separatorIndex+1:], true
}
