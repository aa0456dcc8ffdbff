package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/fleet/example"
	testRemoteNameConstant     = "origin"
	testBranchNameConstant     = "main"
)

type scriptedGitExecutor struct {
	results          map[string]execshell.ExecutionResult
	failures         map[string]error
	recordedCommands []execshell.ShellCommand
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{
		results:  map[string]execshell.ExecutionResult{},
		failures: map[string]error{},
	}
}

func (executor *scriptedGitExecutor) scriptResult(arguments []string, result execshell.ExecutionResult) {
	executor.results[strings.Join(arguments, " ")] = result
}

func (executor *scriptedGitExecutor) scriptFailure(arguments []string, failure error) {
	executor.failures[strings.Join(arguments, " ")] = failure
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, execshell.ShellCommand{Name: execshell.CommandGit, Details: details})
	key := strings.Join(details.Arguments, " ")
	if failure, hasFailure := executor.failures[key]; hasFailure {
		return execshell.ExecutionResult{}, failure
	}
	return executor.results[key], nil
}

func commandFailure(arguments []string, exitCode int) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{ExitCode: exitCode},
	}
}

func TestNewRepositoryManagerValidatesExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestRepositoryManagerIsGitRepository(testInstance *testing.T) {
	testCases := []struct {
		name           string
		scriptedOutput string
		scriptedError  error
		expected       bool
	}{
		{name: "inside_work_tree", scriptedOutput: "true\n", expected: true},
		{name: "outside_work_tree", scriptedOutput: "false\n"},
		{name: "git_failure", scriptedError: commandFailure([]string{"rev-parse", "--is-inside-work-tree"}, 128)},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			arguments := []string{"rev-parse", "--is-inside-work-tree"}
			if testCase.scriptedError != nil {
				executor.scriptFailure(arguments, testCase.scriptedError)
			} else {
				executor.scriptResult(arguments, execshell.ExecutionResult{StandardOutput: testCase.scriptedOutput})
			}

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)
			require.Equal(testInstance, testCase.expected, manager.IsGitRepository(context.Background(), testRepositoryPathConstant))
		})
	}
}

func TestRepositoryManagerCheckCleanWorktree(testInstance *testing.T) {
	testCases := []struct {
		name           string
		scriptedOutput string
		scriptedError  error
		expectedClean  bool
		expectError    bool
	}{
		{name: "clean_worktree", scriptedOutput: "", expectedClean: true},
		{name: "dirty_worktree", scriptedOutput: " M README.md\n"},
		{name: "status_failure", scriptedError: commandFailure([]string{"status", "--porcelain"}, 128), expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			arguments := []string{"status", "--porcelain"}
			if testCase.scriptedError != nil {
				executor.scriptFailure(arguments, testCase.scriptedError)
			} else {
				executor.scriptResult(arguments, execshell.ExecutionResult{StandardOutput: testCase.scriptedOutput})
			}

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			clean, checkError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.Error(testInstance, checkError)
				return
			}
			require.NoError(testInstance, checkError)
			require.Equal(testInstance, testCase.expectedClean, clean)
		})
	}
}

func TestRepositoryManagerGetCurrentBranch(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.scriptResult([]string{"rev-parse", "--abbrev-ref", "HEAD"}, execshell.ExecutionResult{StandardOutput: "main\n"})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	branchName, branchError := manager.GetCurrentBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, testBranchNameConstant, branchName)
	require.False(testInstance, gitrepo.IsDetachedHead(branchName))
	require.True(testInstance, gitrepo.IsDetachedHead("HEAD"))
}

func TestRepositoryManagerHeadCommit(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.scriptResult([]string{"rev-parse", "HEAD"}, execshell.ExecutionResult{StandardOutput: "0123456789abcdef0123456789abcdef01234567\n"})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitHash, commitError := manager.HeadCommit(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, commitError)
	require.Equal(testInstance, "0123456789abcdef0123456789abcdef01234567", commitHash)
}

func TestRepositoryManagerCountBehindAhead(testInstance *testing.T) {
	revListArguments := []string{"rev-list", "--left-right", "--count", "origin/main...HEAD"}

	testCases := []struct {
		name           string
		scriptedOutput string
		scriptedError  error
		expectedCounts gitrepo.BehindAheadCounts
	}{
		{
			name:           "behind_and_ahead",
			scriptedOutput: "3\t2\n",
			expectedCounts: gitrepo.BehindAheadCounts{Behind: 3, Ahead: 2},
		},
		{
			name:           "in_sync",
			scriptedOutput: "0\t0\n",
			expectedCounts: gitrepo.BehindAheadCounts{Behind: 0, Ahead: 0},
		},
		{
			name:           "missing_remote_branch",
			scriptedError:  commandFailure(revListArguments, 128),
			expectedCounts: gitrepo.BehindAheadCounts{Behind: -1, Ahead: -1},
		},
		{
			name:           "garbled_output",
			scriptedOutput: "not numbers",
			expectedCounts: gitrepo.BehindAheadCounts{Behind: -1, Ahead: -1},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			if testCase.scriptedError != nil {
				executor.scriptFailure(revListArguments, testCase.scriptedError)
			} else {
				executor.scriptResult(revListArguments, execshell.ExecutionResult{StandardOutput: testCase.scriptedOutput})
			}

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			counts := manager.CountBehindAhead(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testBranchNameConstant)
			require.Equal(testInstance, testCase.expectedCounts, counts)
			require.Equal(testInstance, testCase.expectedCounts.Behind < 0, counts.Unknown())
		})
	}
}

func TestRepositoryManagerHasStagedChanges(testInstance *testing.T) {
	diffArguments := []string{"diff", "--cached", "--quiet"}

	testCases := []struct {
		name           string
		scriptedError  error
		expectedStaged bool
		expectError    bool
	}{
		{name: "nothing_staged"},
		{name: "staged_changes", scriptedError: commandFailure(diffArguments, 1), expectedStaged: true},
		{name: "diff_failure", scriptedError: commandFailure(diffArguments, 128), expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := newScriptedGitExecutor()
			if testCase.scriptedError != nil {
				executor.scriptFailure(diffArguments, testCase.scriptedError)
			}

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			staged, stagedError := manager.HasStagedChanges(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.Error(testInstance, stagedError)
				return
			}
			require.NoError(testInstance, stagedError)
			require.Equal(testInstance, testCase.expectedStaged, staged)
		})
	}
}

func TestRepositoryManagerShowRemoteFile(testInstance *testing.T) {
	executor := newScriptedGitExecutor()
	executor.scriptResult([]string{"show", "origin/main:Makefile"}, execshell.ExecutionResult{StandardOutput: "all:\n"})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	contents, showError := manager.ShowRemoteFile(context.Background(), testRepositoryPathConstant, "origin/main", "Makefile")
	require.NoError(testInstance, showError)
	require.Equal(testInstance, []byte("all:\n"), contents)
}

func TestRepositoryManagerDiffFilesTreatsDifferencesAsSuccess(testInstance *testing.T) {
	diffArguments := []string{"diff", "--no-index", "--", "/tmp/a", "/tmp/b"}

	executor := newScriptedGitExecutor()
	executor.scriptFailure(diffArguments, execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: diffArguments}},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardOutput: "--- a\n+++ b\n"},
	})

	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	diffOutput, diffError := manager.DiffFiles(context.Background(), "/tmp/a", "/tmp/b")
	require.NoError(testInstance, diffError)
	require.Contains(testInstance, diffOutput, "+++ b")
}

func TestRepositoryManagerResolveUpstreamReference(testInstance *testing.T) {
	upstreamArguments := []string{"rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}"}

	testInstance.Run("configured_upstream", func(testInstance *testing.T) {
		executor := newScriptedGitExecutor()
		executor.scriptResult(upstreamArguments, execshell.ExecutionResult{StandardOutput: "origin/main\n"})

		manager, creationError := gitrepo.NewRepositoryManager(executor)
		require.NoError(testInstance, creationError)

		reference, resolveError := manager.ResolveUpstreamReference(context.Background(), testRepositoryPathConstant, []string{"origin/main", "origin/master"})
		require.NoError(testInstance, resolveError)
		require.Equal(testInstance, "origin/main", reference)
	})

	testInstance.Run("fallback_to_candidate", func(testInstance *testing.T) {
		executor := newScriptedGitExecutor()
		executor.scriptFailure(upstreamArguments, commandFailure(upstreamArguments, 128))
		executor.scriptFailure([]string{"rev-parse", "--verify", "origin/main"}, commandFailure([]string{"rev-parse", "--verify", "origin/main"}, 128))
		executor.scriptResult([]string{"rev-parse", "--verify", "origin/master"}, execshell.ExecutionResult{StandardOutput: "abc123\n"})

		manager, creationError := gitrepo.NewRepositoryManager(executor)
		require.NoError(testInstance, creationError)

		reference, resolveError := manager.ResolveUpstreamReference(context.Background(), testRepositoryPathConstant, []string{"origin/main", "origin/master"})
		require.NoError(testInstance, resolveError)
		require.Equal(testInstance, "origin/master", reference)
	})

	testInstance.Run("no_reference_available", func(testInstance *testing.T) {
		executor := newScriptedGitExecutor()
		executor.scriptFailure(upstreamArguments, commandFailure(upstreamArguments, 128))
		executor.scriptFailure([]string{"rev-parse", "--verify", "origin/main"}, commandFailure([]string{"rev-parse", "--verify", "origin/main"}, 128))

		manager, creationError := gitrepo.NewRepositoryManager(executor)
		require.NoError(testInstance, creationError)

		_, resolveError := manager.ResolveUpstreamReference(context.Background(), testRepositoryPathConstant, []string{"origin/main"})
		require.Error(testInstance, resolveError)
	})
}
