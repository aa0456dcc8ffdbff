package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/repofleet/repofleet/internal/shared"
	"github.com/repofleet/repofleet/internal/syncer"
)

const (
	missingDigestLabelConstant          = "(missing)"
	driftDetectedMessageConstant        = "file drift detected across repositories"
	noTargetsMessageConstant            = "no repositories carry the prerequisite file"
	installPermissionsConstant          = 0o644
	installDirectoryPermissionsConstant = 0o755
	installReadErrorTemplateConstant    = "unable to read install source %s: %w"
	installWriteErrorTemplateConstant   = "unable to install %s: %w"
)

// ErrDriftDetected reports that at least one file disagrees across the fleet.
var ErrDriftDetected = errors.New(driftDetectedMessageConstant)

// ErrNoTargetRepositories indicates no sibling repository qualified for verification.
var ErrNoTargetRepositories = errors.New(noTargetsMessageConstant)

// RepositoryDiscoverer lists sibling repositories beneath a parent directory.
type RepositoryDiscoverer interface {
	DiscoverRepositories(parentDirectory string) ([]string, error)
}

// GitRepositoryManager exposes the git checks used to qualify target repositories.
type GitRepositoryManager interface {
	IsGitRepository(executionContext context.Context, repositoryPath string) bool
}

// FileSystem provides the filesystem operations used by verification and install.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, contents []byte, permissions fs.FileMode) error
	MkdirAll(path string, permissions fs.FileMode) error
}

// Options carries the resolved settings for one verify run.
type Options struct {
	Roots            []string
	Files            []string
	PrerequisiteFile string
	Install          bool
	InstallFile      string
}

// Service compares file digests across target repositories.
type Service struct {
	discoverer RepositoryDiscoverer
	gitManager GitRepositoryManager
	fileSystem FileSystem
	reporter   shared.Reporter
}

// NewService constructs a Service using the provided collaborators.
func NewService(discoverer RepositoryDiscoverer, gitManager GitRepositoryManager, fileSystem FileSystem, reporter shared.Reporter) *Service {
	return &Service{
		discoverer: discoverer,
		gitManager: gitManager,
		fileSystem: fileSystem,
		reporter:   reporter,
	}
}

// Run verifies every configured file and returns ErrDriftDetected when any
// repository disagrees with the majority.
func (service *Service) Run(executionContext context.Context, options Options) error {
	targetRepositories, discoveryError := service.collectTargetRepositories(executionContext, options)
	if discoveryError != nil {
		return discoveryError
	}
	if len(targetRepositories) == 0 {
		return ErrNoTargetRepositories
	}

	service.reporter.Printf("Target repositories: %d\n", len(targetRepositories))
	for _, repositoryPath := range targetRepositories {
		service.reporter.Printf("  %s\n", filepath.Base(repositoryPath))
	}
	service.reporter.Printf("\n")

	allMatch := true
	for _, relativePath := range options.Files {
		fileMatches, checkError := service.checkFile(targetRepositories, relativePath)
		if checkError != nil {
			return checkError
		}
		allMatch = allMatch && fileMatches
	}

	if options.Install && len(options.InstallFile) > 0 {
		installed, installError := service.installNewestCopy(targetRepositories, options.InstallFile)
		if installError != nil {
			return installError
		}
		allMatch = allMatch && installed
	}

	if !allMatch {
		return ErrDriftDetected
	}
	service.reporter.Printf("All files match across repositories.\n")
	return nil
}

func (service *Service) collectTargetRepositories(executionContext context.Context, options Options) ([]string, error) {
	targets := make([]string, 0)
	for _, root := range options.Roots {
		candidates, discoveryError := service.discoverer.DiscoverRepositories(root)
		if discoveryError != nil {
			return nil, discoveryError
		}
		for _, candidatePath := range candidates {
			if !service.gitManager.IsGitRepository(executionContext, candidatePath) {
				continue
			}
			if len(options.PrerequisiteFile) > 0 {
				info, statError := service.fileSystem.Stat(filepath.Join(candidatePath, options.PrerequisiteFile))
				if statError != nil || info.IsDir() {
					continue
				}
			}
			targets = append(targets, candidatePath)
		}
	}
	sort.Strings(targets)
	return targets, nil
}

// checkFile prints the per-repository digest table for one file and reports
// whether every repository agrees. Missing copies count as mismatches.
func (service *Service) checkFile(targetRepositories []string, relativePath string) (bool, error) {
	service.reporter.Printf("=== %s ===\n", relativePath)

	digests, collectError := syncer.CollectDigests(service.fileSystem, targetRepositories, relativePath)
	if collectError != nil {
		return false, collectError
	}

	for _, digest := range digests {
		label := missingDigestLabelConstant
		if digest.HasFile {
			label = digest.Digest
		}
		service.reporter.Printf("  %-30s  %s\n", digest.RepositoryName(), label)
	}

	majorityDigest, hasMajority := syncer.ComputeMajorityDigest(digests)
	if !hasMajority {
		service.reporter.Printf("[WARN] missing in every repository\n\n")
		return false, nil
	}

	outliers := syncer.DetectOutliers(digests, majorityDigest)
	if len(outliers) == 0 {
		service.reporter.Printf("[OK] all repositories match\n\n")
		return true, nil
	}

	service.reporter.Printf("[WARN] mismatch detected\n")
	service.reporter.Printf("  majority digest: %s\n", majorityDigest)
	for _, outlier := range outliers {
		label := missingDigestLabelConstant
		if outlier.HasFile {
			label = outlier.Digest
		}
		service.reporter.Printf("  outlier: %-30s  %s\n", outlier.RepositoryName(), label)
	}
	service.reporter.Printf("\n")
	return false, nil
}

// installNewestCopy copies the most recently modified existing copy of the
// install file into every repository lacking it. Returns false when no
// repository holds a copy to install from.
func (service *Service) installNewestCopy(targetRepositories []string, relativePath string) (bool, error) {
	service.reporter.Printf("=== %s (install) ===\n", relativePath)

	sourcePath := ""
	var sourceModTime time.Time
	for _, repositoryPath := range targetRepositories {
		candidatePath := filepath.Join(repositoryPath, relativePath)
		info, statError := service.fileSystem.Stat(candidatePath)
		if statError != nil || info.IsDir() {
			continue
		}
		if len(sourcePath) == 0 || info.ModTime().After(sourceModTime) {
			sourcePath = candidatePath
			sourceModTime = info.ModTime()
		}
	}
	if len(sourcePath) == 0 {
		service.reporter.Printf("[WARN] missing in every repository; nothing to install from\n\n")
		return false, nil
	}
	service.reporter.Printf("  install source (newest): %s\n", sourcePath)

	contents, readError := service.fileSystem.ReadFile(sourcePath)
	if readError != nil {
		return false, fmt.Errorf(installReadErrorTemplateConstant, sourcePath, readError)
	}

	for _, repositoryPath := range targetRepositories {
		destinationPath := filepath.Join(repositoryPath, relativePath)
		if _, statError := service.fileSystem.Stat(destinationPath); statError == nil {
			service.reporter.Printf("  [OK]   %s\n", filepath.Base(repositoryPath))
			continue
		}
		if mkdirError := service.fileSystem.MkdirAll(filepath.Dir(destinationPath), installDirectoryPermissionsConstant); mkdirError != nil {
			return false, fmt.Errorf(installWriteErrorTemplateConstant, destinationPath, mkdirError)
		}
		if writeError := service.fileSystem.WriteFile(destinationPath, contents, installPermissionsConstant); writeError != nil {
			return false, fmt.Errorf(installWriteErrorTemplateConstant, destinationPath, writeError)
		}
		service.reporter.Printf("  [COPY] %s\n", filepath.Base(repositoryPath))
	}
	service.reporter.Printf("\n")
	return true, nil
}
