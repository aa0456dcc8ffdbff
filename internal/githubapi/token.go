package githubapi

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/repofleet/repofleet/internal/execshell"
)

// Environment variable names consulted for GitHub authentication tokens.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const (
	authSubcommandConstant  = "auth"
	tokenSubcommandConstant = "token"
)

// ErrTokenNotFound indicates no token was available from the environment or
// the GitHub CLI.
var ErrTokenNotFound = errors.New("github token not found in environment or gh auth token")

var tokenEnvironmentPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// GitHubCLIExecutor runs gh commands used as a token source of last resort.
type GitHubCLIExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// TokenResolver locates a GitHub token from environment variables, preferring
// GH_TOKEN, and falls back to the gh CLI session token.
type TokenResolver struct {
	executor GitHubCLIExecutor
}

// NewTokenResolver builds a resolver. A nil executor disables the CLI
// fallback.
func NewTokenResolver(executor GitHubCLIExecutor) *TokenResolver {
	return &TokenResolver{executor: executor}
}

// ResolveToken returns the first non-empty token found in the provided
// environment map, the process environment, or the gh CLI.
func (resolver *TokenResolver) ResolveToken(executionContext context.Context, environment map[string]string) (string, error) {
	for _, key := range tokenEnvironmentPreference {
		if value, found := lookupEnvironmentValue(environment, key); found {
			return value, nil
		}
	}
	for _, key := range tokenEnvironmentPreference {
		if value, found := os.LookupEnv(key); found {
			trimmedValue := strings.TrimSpace(value)
			if len(trimmedValue) > 0 {
				return trimmedValue, nil
			}
		}
	}
	if resolver.executor != nil {
		commandDetails := execshell.CommandDetails{Arguments: []string{authSubcommandConstant, tokenSubcommandConstant}}
		executionResult, executionError := resolver.executor.ExecuteGitHubCLI(executionContext, commandDetails)
		if executionError == nil {
			cliToken := strings.TrimSpace(executionResult.StandardOutput)
			if len(cliToken) > 0 {
				return cliToken, nil
			}
		}
	}
	return "", ErrTokenNotFound
}

func lookupEnvironmentValue(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return "", false
	}
	return trimmedValue, true
}
