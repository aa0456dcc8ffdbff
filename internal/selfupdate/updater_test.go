package selfupdate_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/selfupdate"
	"github.com/repofleet/repofleet/internal/shared"
)

const (
	testCheckoutRootConstant = "/opt/repofleet"
	testLocalCommitConstant  = "1111111111111111111111111111111111111111"
	testRemoteCommitConstant = "2222222222222222222222222222222222222222"
)

type updaterStubGitManager struct {
	upstreamReference string
	upstreamError     error
	remoteURL         string
	headCommit        string
	cleanWorktree     bool
	pullError         error

	pullCalls     int
	upstreamCalls int
}

func (manager *updaterStubGitManager) ResolveUpstreamReference(_ context.Context, _ string, _ []string) (string, error) {
	manager.upstreamCalls++
	return manager.upstreamReference, manager.upstreamError
}

func (manager *updaterStubGitManager) GetRemoteURL(_ context.Context, _ string, _ string) (string, error) {
	return manager.remoteURL, nil
}

func (manager *updaterStubGitManager) HeadCommit(_ context.Context, _ string) (string, error) {
	return manager.headCommit, nil
}

func (manager *updaterStubGitManager) CheckCleanWorktree(_ context.Context, _ string) (bool, error) {
	return manager.cleanWorktree, nil
}

func (manager *updaterStubGitManager) PullFastForward(_ context.Context, _ string) error {
	manager.pullCalls++
	return manager.pullError
}

type updaterStubGitHubCLI struct {
	output       string
	failure      error
	requestCalls int
}

func (executor *updaterStubGitHubCLI) ExecuteGitHubCLI(_ context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.requestCalls++
	if executor.failure != nil {
		return execshell.ExecutionResult{}, executor.failure
	}
	return execshell.ExecutionResult{StandardOutput: executor.output + "\n"}, nil
}

func newUpdaterFixture() (*updaterStubGitManager, *updaterStubGitHubCLI) {
	gitManager := &updaterStubGitManager{
		upstreamReference: "origin/main",
		remoteURL:         "git@github.com:fleet-owner/repofleet.git",
		headCommit:        testLocalCommitConstant,
		cleanWorktree:     true,
	}
	gitHubCLI := &updaterStubGitHubCLI{output: testRemoteCommitConstant}
	return gitManager, gitHubCLI
}

func TestUpdaterMaybeUpdate(t *testing.T) {
	testCases := []struct {
		name            string
		mutate          func(gitManager *updaterStubGitManager, gitHubCLI *updaterStubGitHubCLI)
		environment     map[string]string
		expectedUpdated bool
		expectedPulls   int
		expectedOutput  string
	}{
		{
			name:            "new_commits_pull_fast_forward",
			mutate:          func(*updaterStubGitManager, *updaterStubGitHubCLI) {},
			expectedUpdated: true,
			expectedPulls:   1,
			expectedOutput:  "Self-update applied",
		},
		{
			name: "already_current",
			mutate: func(_ *updaterStubGitManager, gitHubCLI *updaterStubGitHubCLI) {
				gitHubCLI.output = testLocalCommitConstant
			},
		},
		{
			name: "no_upstream_configured",
			mutate: func(gitManager *updaterStubGitManager, _ *updaterStubGitHubCLI) {
				gitManager.upstreamError = errors.New("no upstream configured")
			},
		},
		{
			name: "unparseable_remote",
			mutate: func(gitManager *updaterStubGitManager, _ *updaterStubGitHubCLI) {
				gitManager.remoteURL = "/local/mirror.git"
			},
		},
		{
			name: "dirty_worktree_skips_pull",
			mutate: func(gitManager *updaterStubGitManager, _ *updaterStubGitHubCLI) {
				gitManager.cleanWorktree = false
			},
			expectedOutput: "local changes detected",
		},
		{
			name: "pull_failure_reported",
			mutate: func(gitManager *updaterStubGitManager, _ *updaterStubGitHubCLI) {
				gitManager.pullError = errors.New("not a fast-forward")
			},
			expectedPulls:  1,
			expectedOutput: "git pull failed",
		},
		{
			name: "remote_lookup_failure",
			mutate: func(_ *updaterStubGitManager, gitHubCLI *updaterStubGitHubCLI) {
				gitHubCLI.failure = errors.New("gh not installed")
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			gitManager, gitHubCLI := newUpdaterFixture()
			testCase.mutate(gitManager, gitHubCLI)

			outputBuffer := &bytes.Buffer{}
			environment := func(name string) string { return testCase.environment[name] }
			updater := selfupdate.NewUpdater(gitManager, gitHubCLI, shared.NewWriterReporter(outputBuffer), environment)

			updated, updateError := updater.MaybeUpdate(context.Background(), testCheckoutRootConstant)
			require.NoError(t, updateError)
			require.Equal(t, testCase.expectedUpdated, updated)
			require.Equal(t, testCase.expectedPulls, gitManager.pullCalls)
			if len(testCase.expectedOutput) > 0 {
				require.Contains(t, outputBuffer.String(), testCase.expectedOutput)
			} else if !testCase.expectedUpdated {
				require.Empty(t, outputBuffer.String())
			}
		})
	}
}

func TestUpdaterHonorsDisableSwitch(t *testing.T) {
	gitManager, gitHubCLI := newUpdaterFixture()
	environment := func(name string) string {
		if name == selfupdate.DisableEnvironmentVariableName {
			return "1"
		}
		return ""
	}
	updater := selfupdate.NewUpdater(gitManager, gitHubCLI, shared.NewWriterReporter(&bytes.Buffer{}), environment)

	updated, updateError := updater.MaybeUpdate(context.Background(), testCheckoutRootConstant)
	require.NoError(t, updateError)
	require.False(t, updated)
	require.Zero(t, gitManager.upstreamCalls)
	require.Zero(t, gitHubCLI.requestCalls)
}
