// Package discovery locates the sibling Git repositories a fleet command
// operates on.
package discovery

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/repofleet/repofleet/internal/utils/pathutils"
)

const gitMetadataDirectoryNameConstant = ".git"

// SiblingRepositoryDiscoverer lists Git repositories that are immediate
// children of a parent directory.
type SiblingRepositoryDiscoverer struct {
	homeExpander *pathutils.HomeExpander
}

// NewSiblingRepositoryDiscoverer constructs a discoverer backed by os.ReadDir.
func NewSiblingRepositoryDiscoverer() *SiblingRepositoryDiscoverer {
	return &SiblingRepositoryDiscoverer{homeExpander: pathutils.NewHomeExpander()}
}

// DiscoverRepositories returns the sorted absolute paths of directories under
// parentDirectory that contain a .git entry. A leading tilde in
// parentDirectory is expanded to the user's home directory. Entries that are
// not directories are ignored.
func (discoverer *SiblingRepositoryDiscoverer) DiscoverRepositories(parentDirectory string) ([]string, error) {
	parentDirectory = discoverer.homeExpander.Expand(parentDirectory)
	directoryEntries, readError := os.ReadDir(parentDirectory)
	if readError != nil {
		return nil, readError
	}

	var repositories []string
	for _, directoryEntry := range directoryEntries {
		if !directoryEntry.IsDir() {
			continue
		}
		repositoryPath := filepath.Join(parentDirectory, directoryEntry.Name())
		gitMetadataPath := filepath.Join(repositoryPath, gitMetadataDirectoryNameConstant)
		if _, statError := os.Stat(gitMetadataPath); statError != nil {
			continue
		}
		repositories = append(repositories, repositoryPath)
	}

	sort.Strings(repositories)
	return repositories, nil
}
