package audit

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/repofleet/repofleet/internal/githubapi"
	"github.com/repofleet/repofleet/internal/shared"
)

const (
	historyFileNameConstant           = "history.json"
	repositoryCacheFileNameConstant   = "repositories.json"
	cacheFilePermissionsConstant      = 0o644
	cacheDirectoryPermissionsConstant = 0o755
)

type cacheHistory struct {
	LastSaved string `json:"last_saved"`
}

// ListingCache persists repository listings under a cache directory and
// serves them back for the rest of the day.
type ListingCache struct {
	fileSystem FileSystem
	clock      shared.Clock
	directory  string
}

// NewListingCache builds a cache rooted at the given directory. A nil clock
// falls back to system time.
func NewListingCache(fileSystem FileSystem, clock shared.Clock, directory string) *ListingCache {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &ListingCache{fileSystem: fileSystem, clock: clock, directory: directory}
}

// Load returns the cached repository listing when it was saved today.
// Corrupt or stale cache files are treated as a miss, never an error.
func (cache *ListingCache) Load() ([]githubapi.RepositoryMetadata, bool) {
	if !cache.savedToday() {
		return nil, false
	}
	contents, readError := cache.fileSystem.ReadFile(filepath.Join(cache.directory, repositoryCacheFileNameConstant))
	if readError != nil {
		return nil, false
	}
	var repositories []githubapi.RepositoryMetadata
	if unmarshalError := json.Unmarshal(contents, &repositories); unmarshalError != nil {
		return nil, false
	}
	if len(repositories) == 0 {
		return nil, false
	}
	return repositories, true
}

// Save writes the repository listing and stamps the cache history with the
// current time.
func (cache *ListingCache) Save(repositories []githubapi.RepositoryMetadata) error {
	if directoryError := cache.fileSystem.MkdirAll(cache.directory, cacheDirectoryPermissionsConstant); directoryError != nil {
		return directoryError
	}
	listingContents, marshalError := json.MarshalIndent(repositories, "", "  ")
	if marshalError != nil {
		return marshalError
	}
	listingPath := filepath.Join(cache.directory, repositoryCacheFileNameConstant)
	if writeError := cache.fileSystem.WriteFile(listingPath, listingContents, cacheFilePermissionsConstant); writeError != nil {
		return writeError
	}

	history := cacheHistory{LastSaved: cache.clock.Now().Format(time.RFC3339)}
	historyContents, historyMarshalError := json.MarshalIndent(history, "", "  ")
	if historyMarshalError != nil {
		return historyMarshalError
	}
	historyPath := filepath.Join(cache.directory, historyFileNameConstant)
	return cache.fileSystem.WriteFile(historyPath, historyContents, cacheFilePermissionsConstant)
}

func (cache *ListingCache) savedToday() bool {
	contents, readError := cache.fileSystem.ReadFile(filepath.Join(cache.directory, historyFileNameConstant))
	if readError != nil {
		return false
	}
	var history cacheHistory
	if unmarshalError := json.Unmarshal(contents, &history); unmarshalError != nil {
		return false
	}
	savedAt, parseError := time.Parse(time.RFC3339, history.LastSaved)
	if parseError != nil {
		return false
	}
	now := cache.clock.Now()
	savedYear, savedMonth, savedDay := savedAt.Date()
	nowYear, nowMonth, nowDay := now.Date()
	return savedYear == nowYear && savedMonth == nowMonth && savedDay == nowDay
}
