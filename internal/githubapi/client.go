package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"
)

const (
	repositorySortFieldConstant     = "pushed"
	repositorySortDirectionConstant = "desc"
	rateLimiterBurstConstant        = 1
	rateLimiterWaitTemplateConstant = "rate limiter wait: %w"
)

// RepositoryMetadata captures the repository fields surfaced by audit reports.
type RepositoryMetadata struct {
	Name        string
	FullName    string
	HTMLURL     string
	Description string
	Language    string
	PushedAt    time.Time
	CreatedAt   time.Time
	Stars       int
	IsFork      bool
	IsArchived  bool
}

// FileContent holds the decoded bytes of a repository file. Found is false
// when the path does not exist on the default branch.
type FileContent struct {
	Found   bool
	Content []byte
}

// DirectoryEntry describes one item of a repository directory listing.
type DirectoryEntry struct {
	Name string
	Type string
}

// RepositoryInspector is the read-only GitHub surface consumed by audits.
type RepositoryInspector interface {
	ListRepositoriesByOwner(executionContext context.Context, owner string, limit int) ([]RepositoryMetadata, error)
	GetFileContent(executionContext context.Context, owner string, repository string, path string) (FileContent, error)
	ListDirectory(executionContext context.Context, owner string, repository string, path string) ([]DirectoryEntry, error)
	PathExists(executionContext context.Context, owner string, repository string, path string) (bool, error)
}

// Client implements RepositoryInspector over go-github with request pacing.
type Client struct {
	apiClient   *github.Client
	rateLimiter *rate.Limiter
}

// NewClient builds a client authenticated with the provided token. An empty
// token yields an anonymous client subject to unauthenticated rate limits.
func NewClient(token string, requestsPerSecond float64) *Client {
	apiClient := github.NewClient(nil)
	if len(token) > 0 {
		apiClient = apiClient.WithAuthToken(token)
	}
	return &Client{
		apiClient:   apiClient,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), rateLimiterBurstConstant),
	}
}

// NewClientWithAPIClient wires an externally configured go-github client,
// primarily for tests targeting a local HTTP server.
func NewClientWithAPIClient(apiClient *github.Client, requestsPerSecond float64) *Client {
	return &Client{
		apiClient:   apiClient,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), rateLimiterBurstConstant),
	}
}

// ListRepositoriesByOwner returns up to limit repositories of the owner
// ordered by most recent push.
func (client *Client) ListRepositoriesByOwner(executionContext context.Context, owner string, limit int) ([]RepositoryMetadata, error) {
	if waitError := client.rateLimiter.Wait(executionContext); waitError != nil {
		return nil, fmt.Errorf(rateLimiterWaitTemplateConstant, waitError)
	}
	listOptions := &github.RepositoryListByUserOptions{
		Sort:        repositorySortFieldConstant,
		Direction:   repositorySortDirectionConstant,
		ListOptions: github.ListOptions{PerPage: limit},
	}
	repositories, _, listError := client.apiClient.Repositories.ListByUser(executionContext, owner, listOptions)
	if listError != nil {
		return nil, fmt.Errorf("list repositories for %s: %w", owner, listError)
	}
	metadata := make([]RepositoryMetadata, 0, len(repositories))
	for _, repository := range repositories {
		metadata = append(metadata, RepositoryMetadata{
			Name:        repository.GetName(),
			FullName:    repository.GetFullName(),
			HTMLURL:     repository.GetHTMLURL(),
			Description: repository.GetDescription(),
			Language:    repository.GetLanguage(),
			PushedAt:    repository.GetPushedAt().Time,
			CreatedAt:   repository.GetCreatedAt().Time,
			Stars:       repository.GetStargazersCount(),
			IsFork:      repository.GetFork(),
			IsArchived:  repository.GetArchived(),
		})
	}
	return metadata, nil
}

// GetFileContent fetches and decodes a file from the repository default
// branch. A missing path is reported through Found rather than an error.
func (client *Client) GetFileContent(executionContext context.Context, owner string, repository string, path string) (FileContent, error) {
	if waitError := client.rateLimiter.Wait(executionContext); waitError != nil {
		return FileContent{}, fmt.Errorf(rateLimiterWaitTemplateConstant, waitError)
	}
	fileContent, _, response, contentError := client.apiClient.Repositories.GetContents(executionContext, owner, repository, path, nil)
	if contentError != nil {
		if isNotFound(contentError, response) {
			return FileContent{Found: false}, nil
		}
		return FileContent{}, fmt.Errorf("get %s/%s:%s: %w", owner, repository, path, contentError)
	}
	if fileContent == nil {
		return FileContent{Found: false}, nil
	}
	decoded, decodeError := fileContent.GetContent()
	if decodeError != nil {
		return FileContent{}, fmt.Errorf("decode %s/%s:%s: %w", owner, repository, path, decodeError)
	}
	return FileContent{Found: true, Content: []byte(decoded)}, nil
}

// ListDirectory returns the entries of a repository directory. A missing
// directory yields an empty listing.
func (client *Client) ListDirectory(executionContext context.Context, owner string, repository string, path string) ([]DirectoryEntry, error) {
	if waitError := client.rateLimiter.Wait(executionContext); waitError != nil {
		return nil, fmt.Errorf(rateLimiterWaitTemplateConstant, waitError)
	}
	_, directoryContent, response, listError := client.apiClient.Repositories.GetContents(executionContext, owner, repository, path, nil)
	if listError != nil {
		if isNotFound(listError, response) {
			return []DirectoryEntry{}, nil
		}
		return nil, fmt.Errorf("list %s/%s:%s: %w", owner, repository, path, listError)
	}
	entries := make([]DirectoryEntry, 0, len(directoryContent))
	for _, item := range directoryContent {
		entries = append(entries, DirectoryEntry{Name: item.GetName(), Type: item.GetType()})
	}
	return entries, nil
}

// PathExists reports whether the path resolves to a file or directory on the
// repository default branch.
func (client *Client) PathExists(executionContext context.Context, owner string, repository string, path string) (bool, error) {
	if waitError := client.rateLimiter.Wait(executionContext); waitError != nil {
		return false, fmt.Errorf(rateLimiterWaitTemplateConstant, waitError)
	}
	_, _, response, contentError := client.apiClient.Repositories.GetContents(executionContext, owner, repository, path, nil)
	if contentError != nil {
		if isNotFound(contentError, response) {
			return false, nil
		}
		return false, fmt.Errorf("inspect %s/%s:%s: %w", owner, repository, path, contentError)
	}
	return true, nil
}

func isNotFound(requestError error, response *github.Response) bool {
	if response != nil && response.StatusCode == http.StatusNotFound {
		return true
	}
	var errorResponse *github.ErrorResponse
	if errors.As(requestError, &errorResponse) {
		return errorResponse.Response != nil && errorResponse.Response.StatusCode == http.StatusNotFound
	}
	return false
}
