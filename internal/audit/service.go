package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repofleet/repofleet/internal/githubapi"
	"github.com/repofleet/repofleet/internal/shared"
)

const (
	ownerMissingMessageConstant   = "github owner is not configured; set common.owner or pass --owner"
	reportFilePermissionsConstant = 0o644
	summarySeparatorWidthConstant = 70
	rootDirectoryPathConstant     = ""
	presentFlagLabelConstant      = "yes"
	absentFlagLabelConstant       = "no"
)

// ErrOwnerNotConfigured indicates the GitHub owner was neither configured nor
// passed on the command line.
var ErrOwnerNotConfigured = errors.New(ownerMissingMessageConstant)

// Options carries the resolved settings for one audit run.
type Options struct {
	Owner          string
	Limit          int
	ReadmePath     string
	MarkerPatterns []string
	CacheDirectory string
	RegistryPath   string
	OutputPath     string
	CheckPaths     []string
	SelfUpdate     bool
}

// Service audits the owner's repositories through the GitHub REST API.
type Service struct {
	inspector  githubapi.RepositoryInspector
	fileSystem FileSystem
	reporter   shared.Reporter
	clock      shared.Clock
}

// NewService wires an audit service. A nil clock falls back to system time.
func NewService(inspector githubapi.RepositoryInspector, fileSystem FileSystem, reporter shared.Reporter, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{inspector: inspector, fileSystem: fileSystem, reporter: reporter, clock: clock}
}

// Run lists the owner's repositories, audits each one, prints the summary,
// and writes the JSON report when an output path is configured.
func (service *Service) Run(executionContext context.Context, options Options) error {
	if len(strings.TrimSpace(options.Owner)) == 0 {
		return ErrOwnerNotConfigured
	}

	repositories, listingError := service.fetchRepositories(executionContext, options)
	if listingError != nil {
		return listingError
	}

	if registryError := service.updateRegistry(repositories, options.RegistryPath); registryError != nil {
		return registryError
	}

	service.reporter.Printf("\n[2/3] Auditing %d repositories...\n", len(repositories))
	results := make([]RepositoryAudit, 0, len(repositories))
	for index, metadata := range repositories {
		service.reporter.Printf("  [%2d/%d] %s\n", index+1, len(repositories), metadata.Name)
		result, auditError := service.auditRepository(executionContext, options, metadata)
		if auditError != nil {
			return fmt.Errorf("audit %s: %w", metadata.Name, auditError)
		}
		service.printRepositoryFlags(options, result)
		results = append(results, result)
	}

	service.printSummary(options, results)

	if len(options.OutputPath) > 0 {
		if writeError := service.writeReport(options, results); writeError != nil {
			return writeError
		}
		service.reporter.Printf("Report written to %s\n", options.OutputPath)
	}
	return nil
}

func (service *Service) fetchRepositories(executionContext context.Context, options Options) ([]githubapi.RepositoryMetadata, error) {
	cache := NewListingCache(service.fileSystem, service.clock, options.CacheDirectory)
	if cached, hit := cache.Load(); hit {
		service.reporter.Printf("[1/3] Repository listing for %s served from cache (%d repositories)\n", options.Owner, len(cached))
		return cached, nil
	}

	service.reporter.Printf("[1/3] Fetching repositories for %s...\n", options.Owner)
	repositories, listError := service.inspector.ListRepositoriesByOwner(executionContext, options.Owner, options.Limit)
	if listError != nil {
		return nil, listError
	}
	if len(repositories) == 0 {
		return nil, fmt.Errorf("no repositories found for %s", options.Owner)
	}
	service.reporter.Printf("      %d repositories fetched\n", len(repositories))
	if saveError := cache.Save(repositories); saveError != nil {
		return nil, saveError
	}
	return repositories, nil
}

func (service *Service) updateRegistry(repositories []githubapi.RepositoryMetadata, registryPath string) error {
	registry := NewRegistry(service.fileSystem, registryPath)
	knownNames, knownError := registry.KnownNames()
	if knownError != nil {
		return knownError
	}
	known := make(map[string]bool, len(knownNames))
	for _, name := range knownNames {
		known[name] = true
	}

	newNames := make([]string, 0)
	for _, metadata := range repositories {
		if !known[metadata.Name] {
			newNames = append(newNames, metadata.Name)
		}
	}
	if len(newNames) == 0 {
		return nil
	}
	if appendError := registry.Append(newNames); appendError != nil {
		return appendError
	}
	service.reporter.Printf("Registered new repositories in %s: %s\n", registryPath, strings.Join(newNames, ", "))
	return nil
}

func (service *Service) auditRepository(executionContext context.Context, options Options, metadata githubapi.RepositoryMetadata) (RepositoryAudit, error) {
	result := RepositoryAudit{
		Name:        metadata.Name,
		FullName:    metadata.FullName,
		HTMLURL:     metadata.HTMLURL,
		Description: metadata.Description,
		Language:    metadata.Language,
		PushedAt:    metadata.PushedAt,
		CreatedAt:   metadata.CreatedAt,
		Stars:       metadata.Stars,
		IsFork:      metadata.IsFork,
		IsArchived:  metadata.IsArchived,
		Markers:     MarkerCheck{MatchedPatterns: []string{}, Occurrences: []MarkerOccurrence{}},
	}

	rootEntries, rootError := service.inspector.ListDirectory(executionContext, options.Owner, metadata.Name, rootDirectoryPathConstant)
	if rootError != nil {
		return result, rootError
	}

	readme, readmeError := service.inspector.GetFileContent(executionContext, options.Owner, metadata.Name, options.ReadmePath)
	if readmeError != nil {
		return result, readmeError
	}
	if readme.Found {
		result.ReadmeExists = true
		metrics := AnalyzeReadme(string(readme.Content))
		result.ReadmeMetrics = &metrics
		result.Markers = FindMarkers(string(readme.Content), options.MarkerPatterns)
	}

	result.VerificationHTML = CheckVerificationHTML(rootEntries)

	agentsCheck, agentsError := service.checkAgentsFiles(executionContext, options.Owner, metadata.Name, rootEntries)
	if agentsError != nil {
		return result, agentsError
	}
	result.AgentsFiles = agentsCheck

	workflowEntries, workflowsError := service.inspector.ListDirectory(executionContext, options.Owner, metadata.Name, workflowsDirectoryPathConstant)
	if workflowsError != nil {
		return result, workflowsError
	}
	result.Workflows = CheckWorkflowFiles(workflowEntries)
	result.JekyllConfig = CheckJekyllConfig(rootEntries)

	if len(options.CheckPaths) > 0 {
		result.CheckPaths = make(map[string]bool, len(options.CheckPaths))
		for _, checkPath := range options.CheckPaths {
			exists, existsError := service.inspector.PathExists(executionContext, options.Owner, metadata.Name, checkPath)
			if existsError != nil {
				return result, existsError
			}
			result.CheckPaths[checkPath] = exists
		}
	}
	return result, nil
}

// checkAgentsFiles looks for agent instruction files at the repository root
// and at the conventional .github location.
func (service *Service) checkAgentsFiles(executionContext context.Context, owner string, repository string, rootEntries []githubapi.DirectoryEntry) (FileMatchCheck, error) {
	check := FileMatchCheck{Files: []string{}}
	for _, entry := range rootEntries {
		if entry.Type != directoryEntryFileTypeConstant {
			continue
		}
		if entry.Name == agentsFileNameConstant || entry.Name == copilotInstructionsNameConstant {
			check.Files = append(check.Files, entry.Name)
		}
	}

	githubCopyExists, existsError := service.inspector.PathExists(executionContext, owner, repository, copilotInstructionsPathConstant)
	if existsError != nil {
		return check, existsError
	}
	if githubCopyExists {
		check.Files = append(check.Files, copilotInstructionsPathConstant)
	}
	check.Found = len(check.Files) > 0
	return check, nil
}

func (service *Service) printRepositoryFlags(options Options, result RepositoryAudit) {
	flags := []string{
		fmt.Sprintf("readme:%s", presenceLabel(result.ReadmeExists)),
		fmt.Sprintf("markers:%s", presenceLabel(result.Markers.Found)),
		fmt.Sprintf("verification:%s", presenceLabel(result.VerificationHTML.Found)),
		fmt.Sprintf("agents:%s", presenceLabel(result.AgentsFiles.Found)),
		fmt.Sprintf("ci:%s", presenceLabel(result.Workflows.Found)),
		fmt.Sprintf("jekyll:%s", presenceLabel(result.JekyllConfig)),
	}
	for _, checkPath := range options.CheckPaths {
		flags = append(flags, fmt.Sprintf("%s:%s", checkPath, presenceLabel(result.CheckPaths[checkPath])))
	}
	service.reporter.Printf("          %s\n", strings.Join(flags, " | "))
}

func (service *Service) printSummary(options Options, results []RepositoryAudit) {
	separator := strings.Repeat("=", summarySeparatorWidthConstant)
	service.reporter.Printf("\n[3/3] Summary\n%s\n", separator)

	forkCount := 0
	archivedCount := 0
	for _, result := range results {
		if result.IsFork {
			forkCount++
		}
		if result.IsArchived {
			archivedCount++
		}
	}
	service.reporter.Printf("Repositories audited: %d (forks: %d, archived: %d)\n", len(results), forkCount, archivedCount)

	service.printCheckSection("readme", results, func(result RepositoryAudit) bool { return result.ReadmeExists })
	service.printCheckSection("readme markers", results, func(result RepositoryAudit) bool { return result.Markers.Found })
	service.printCheckSection("verification html (root)", results, func(result RepositoryAudit) bool { return result.VerificationHTML.Found })
	service.printCheckSection("agents instructions", results, func(result RepositoryAudit) bool { return result.AgentsFiles.Found })
	service.printCheckSection("workflow yml/yaml", results, func(result RepositoryAudit) bool { return result.Workflows.Found })
	service.printCheckSection("jekyll _config.yml", results, func(result RepositoryAudit) bool { return result.JekyllConfig })
	for _, checkPath := range options.CheckPaths {
		service.printCheckSection("path "+checkPath, results, func(result RepositoryAudit) bool { return result.CheckPaths[checkPath] })
	}
}

func (service *Service) printCheckSection(title string, results []RepositoryAudit, passed func(RepositoryAudit) bool) {
	missing := make([]RepositoryAudit, 0)
	for _, result := range results {
		if !passed(result) {
			missing = append(missing, result)
		}
	}

	total := len(results)
	service.reporter.Printf("\n%s  [%d/%d present, %d/%d missing]\n", title, total-len(missing), total, len(missing), total)
	if len(missing) == 0 {
		service.reporter.Printf("  present in every repository\n")
		return
	}
	for _, result := range missing {
		service.reporter.Printf("  missing: %s\n", result.Name)
		service.reporter.Printf("           %s\n", result.HTMLURL)
	}
}

func (service *Service) writeReport(options Options, results []RepositoryAudit) error {
	document := ReportDocument{
		GeneratedAt:  service.clock.Now().Format(time.RFC3339),
		Owner:        options.Owner,
		Total:        len(results),
		Repositories: results,
	}
	contents, marshalError := json.MarshalIndent(document, "", "  ")
	if marshalError != nil {
		return fmt.Errorf("marshal audit report: %w", marshalError)
	}
	contents = append(contents, '\n')
	return service.fileSystem.WriteFile(options.OutputPath, contents, reportFilePermissionsConstant)
}

func presenceLabel(found bool) string {
	if found {
		return presentFlagLabelConstant
	}
	return absentFlagLabelConstant
}
