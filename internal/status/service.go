package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/repofleet/repofleet/internal/gitrepo"
	"github.com/repofleet/repofleet/internal/shared"
)

const (
	notGitRepositoryMessageConstant      = "not a git repository"
	missingOriginMessageConstant         = "origin remote is not configured"
	detachedHeadMessageConstant          = "detached HEAD or branch name unavailable"
	fetchFailedTemplateConstant          = "git fetch failed: %v"
	trackingBranchMissingNoteConstant    = "tracking branch not found on origin"
	errorNoteSeparatorConstant           = " / "
	pullSucceededMessageConstant         = "fast-forward pull completed"
	reportPermissionsConstant            = 0o644
	reportIndentConstant                 = "  "
	ownerRequiredMessageConstant         = "github owner must be configured"
	reportMarshalErrorTemplateConstant   = "unable to encode status report: %w"
	reportWriteErrorTemplateConstant     = "unable to write status report %s: %w"
	discoveryFailedErrorTemplateConstant = "unable to discover repositories under %s: %w"
)

// ErrOwnerNotConfigured indicates the GitHub owner setting was left empty.
var ErrOwnerNotConfigured = errors.New(ownerRequiredMessageConstant)

// Options carries the resolved settings for one status run.
type Options struct {
	Owner      string
	Roots      []string
	DoPull     bool
	OutputPath string
}

// RepositoryRecord captures the inspection outcome for one directory. Nil
// pointer fields mean the value was never determined.
type RepositoryRecord struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	IsTarget  bool       `json:"is_target"`
	RemoteURL string     `json:"remote_url,omitempty"`
	Branch    string     `json:"branch,omitempty"`
	Dirty     *bool      `json:"dirty"`
	Behind    *int       `json:"behind"`
	Ahead     *int       `json:"ahead"`
	Status    SyncStatus `json:"status,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// PullResult records the outcome of one fast-forward pull attempt.
type PullResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ReportSummary aggregates per-status counts across a run.
type ReportSummary struct {
	TotalScanned int `json:"total_scanned"`
	TargetRepos  int `json:"target_repos"`
	Pullable     int `json:"pullable"`
	Diverged     int `json:"diverged"`
	UpToDate     int `json:"up_to_date"`
	Unknown      int `json:"unknown"`
}

// ReportDocument is the JSON document written by --output.
type ReportDocument struct {
	GeneratedAt  string                `json:"generated_at"`
	Owner        string                `json:"owner"`
	ScannedFrom  []string              `json:"scanned_from"`
	DoPull       bool                  `json:"do_pull"`
	Summary      ReportSummary         `json:"summary"`
	PullResults  map[string]PullResult `json:"pull_results"`
	Repositories []RepositoryRecord    `json:"repositories"`
}

// Service inspects discovered repositories and assembles the status report.
type Service struct {
	discoverer RepositoryDiscoverer
	gitManager GitRepositoryManager
	fileSystem FileSystem
	reporter   shared.Reporter
	clock      shared.Clock
}

// NewService constructs a Service using the provided collaborators.
func NewService(discoverer RepositoryDiscoverer, gitManager GitRepositoryManager, fileSystem FileSystem, reporter shared.Reporter, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{
		discoverer: discoverer,
		gitManager: gitManager,
		fileSystem: fileSystem,
		reporter:   reporter,
		clock:      clock,
	}
}

// Run inspects every repository below the configured roots, prints the
// console report, optionally pulls pullable repositories, and returns the
// report document.
func (service *Service) Run(executionContext context.Context, options Options) (*ReportDocument, error) {
	if len(strings.TrimSpace(options.Owner)) == 0 {
		return nil, ErrOwnerNotConfigured
	}

	repositoryPaths, scannedFrom, discoveryError := service.collectRepositories(options.Roots)
	if discoveryError != nil {
		return nil, discoveryError
	}

	service.reporter.Printf("GitHub owner     : %s\n", options.Owner)
	service.reporter.Printf("Scanned from     : %s\n", strings.Join(scannedFrom, ", "))
	service.reporter.Printf("Directories found: %d\n", len(repositoryPaths))
	service.reporter.Printf("%s\n", strings.Repeat("-", 64))

	records := make([]RepositoryRecord, 0, len(repositoryPaths))
	for _, repositoryPath := range repositoryPaths {
		record := service.inspectRepository(executionContext, repositoryPath, options.Owner)
		records = append(records, record)
		service.printRecord(record)
	}
	service.reporter.Printf("%s\n", strings.Repeat("-", 64))

	summary := summarize(records)
	service.printSummary(summary, records)

	pullResults := map[string]PullResult{}
	if options.DoPull {
		pullResults = service.pullPullableRepositories(executionContext, records)
	}

	document := &ReportDocument{
		GeneratedAt:  service.clock.Now().Format(time.RFC3339),
		Owner:        options.Owner,
		ScannedFrom:  scannedFrom,
		DoPull:       options.DoPull,
		Summary:      summary,
		PullResults:  pullResults,
		Repositories: records,
	}

	if len(options.OutputPath) > 0 {
		if writeError := service.writeReport(document, options.OutputPath); writeError != nil {
			return nil, writeError
		}
		service.reporter.Printf("\nSaved JSON report: %s\n", options.OutputPath)
	}

	return document, nil
}

func (service *Service) collectRepositories(roots []string) ([]string, []string, error) {
	repositoryPaths := make([]string, 0)
	scannedFrom := make([]string, 0, len(roots))
	for _, root := range roots {
		discovered, discoveryError := service.discoverer.DiscoverRepositories(root)
		if discoveryError != nil {
			return nil, nil, fmt.Errorf(discoveryFailedErrorTemplateConstant, root, discoveryError)
		}
		repositoryPaths = append(repositoryPaths, discovered...)

		absoluteRoot, absError := service.fileSystem.Abs(root)
		if absError != nil {
			absoluteRoot = root
		}
		scannedFrom = append(scannedFrom, absoluteRoot)
	}
	return repositoryPaths, scannedFrom, nil
}

func (service *Service) inspectRepository(executionContext context.Context, repositoryPath string, owner string) RepositoryRecord {
	record := RepositoryRecord{
		Path: repositoryPath,
		Name: filepath.Base(repositoryPath),
	}

	if !service.gitManager.IsGitRepository(executionContext, repositoryPath) {
		record.Error = notGitRepositoryMessageConstant
		return record
	}

	remoteURL, remoteError := service.gitManager.GetRemoteURL(executionContext, repositoryPath, shared.OriginRemoteNameConstant)
	if remoteError != nil || len(remoteURL) == 0 {
		record.Error = missingOriginMessageConstant
		return record
	}
	record.RemoteURL = remoteURL

	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil || !parsedRemote.BelongsToOwner(owner) {
		return record
	}
	record.IsTarget = true

	branchName, branchError := service.gitManager.GetCurrentBranch(executionContext, repositoryPath)
	record.Branch = branchName
	if branchError != nil || gitrepo.IsDetachedHead(branchName) {
		record.Error = detachedHeadMessageConstant
		record.Status = StatusUnknown
		return record
	}

	var errorNotes []string

	clean, cleanError := service.gitManager.CheckCleanWorktree(executionContext, repositoryPath)
	dirty := cleanError != nil || !clean
	record.Dirty = &dirty

	if fetchError := service.gitManager.FetchRemote(executionContext, repositoryPath, shared.OriginRemoteNameConstant); fetchError != nil {
		errorNotes = append(errorNotes, fmt.Sprintf(fetchFailedTemplateConstant, fetchError))
	}

	counts := service.gitManager.CountBehindAhead(executionContext, repositoryPath, shared.OriginRemoteNameConstant, branchName)
	if counts.Unknown() {
		errorNotes = append(errorNotes, trackingBranchMissingNoteConstant)
	} else {
		behind := counts.Behind
		ahead := counts.Ahead
		record.Behind = &behind
		record.Ahead = &ahead
	}

	record.Status = Classify(RepoState{Dirty: dirty, Behind: counts.Behind, Ahead: counts.Ahead})

	if len(errorNotes) > 0 {
		record.Error = strings.Join(errorNotes, errorNoteSeparatorConstant)
	}

	return record
}

var statusLabels = map[SyncStatus]string{
	StatusPullable: "PULLABLE  ",
	StatusDiverged: "DIVERGED  ",
	StatusUpToDate: "UP-TO-DATE",
	StatusUnknown:  "UNKNOWN   ",
}

func (service *Service) printRecord(record RepositoryRecord) {
	if !record.IsTarget {
		service.reporter.Printf("  [SKIP      ]  %s\n", record.Name)
		return
	}

	detailParts := make([]string, 0, 3)
	if record.Dirty != nil && *record.Dirty {
		detailParts = append(detailParts, "dirty")
	}
	if record.Behind != nil && *record.Behind > 0 {
		detailParts = append(detailParts, fmt.Sprintf("behind %d", *record.Behind))
	}
	if record.Ahead != nil && *record.Ahead > 0 {
		detailParts = append(detailParts, fmt.Sprintf("ahead %d", *record.Ahead))
	}
	detail := "clean"
	if len(detailParts) > 0 {
		detail = strings.Join(detailParts, ", ")
	}

	line := fmt.Sprintf("  [%s]  %s  (%s)", statusLabels[record.Status], record.Name, detail)
	if len(record.Error) > 0 {
		line += fmt.Sprintf("  ! %s", record.Error)
	}
	service.reporter.Printf("%s\n", line)
}

func summarize(records []RepositoryRecord) ReportSummary {
	summary := ReportSummary{TotalScanned: len(records)}
	for _, record := range records {
		if !record.IsTarget {
			continue
		}
		summary.TargetRepos++
		switch record.Status {
		case StatusPullable:
			summary.Pullable++
		case StatusDiverged:
			summary.Diverged++
		case StatusUpToDate:
			summary.UpToDate++
		default:
			summary.Unknown++
		}
	}
	return summary
}

func (service *Service) printSummary(summary ReportSummary, records []RepositoryRecord) {
	service.reporter.Printf("\nSummary\n")
	service.reporter.Printf("  scanned directories : %d\n", summary.TotalScanned)
	service.reporter.Printf("  target repositories : %d\n", summary.TargetRepos)
	service.reporter.Printf("  pullable            : %d\n", summary.Pullable)
	service.reporter.Printf("  diverged            : %d\n", summary.Diverged)
	service.reporter.Printf("  up_to_date          : %d\n", summary.UpToDate)
	if summary.Unknown > 0 {
		service.reporter.Printf("  unknown             : %d\n", summary.Unknown)
	}

	pullable := filterByStatus(records, StatusPullable)
	if len(pullable) > 0 {
		service.reporter.Printf("\n  Ready to pull:\n")
		for _, record := range pullable {
			service.reporter.Printf("    - %s (behind %d)\n", record.Name, derefCount(record.Behind))
		}
	}

	diverged := filterByStatus(records, StatusDiverged)
	if len(diverged) > 0 {
		service.reporter.Printf("\n  Diverged:\n")
		for _, record := range diverged {
			service.reporter.Printf("    - %s (behind %d, ahead %d)\n", record.Name, derefCount(record.Behind), derefCount(record.Ahead))
		}
	}
}

func (service *Service) pullPullableRepositories(executionContext context.Context, records []RepositoryRecord) map[string]PullResult {
	pullResults := map[string]PullResult{}
	pullable := filterByStatus(records, StatusPullable)
	if len(pullable) == 0 {
		service.reporter.Printf("\n  --pull: nothing to pull (no pullable repositories)\n")
		return pullResults
	}

	service.reporter.Printf("\nPulling pullable repositories\n")
	for _, record := range pullable {
		pullError := service.gitManager.PullFastForward(executionContext, record.Path)
		result := PullResult{Success: pullError == nil, Message: pullSucceededMessageConstant}
		marker := "ok"
		if pullError != nil {
			result.Message = pullError.Error()
			marker = "failed"
		}
		pullResults[record.Name] = result
		service.reporter.Printf("  [%s] %s: %s\n", marker, record.Name, result.Message)
	}
	return pullResults
}

func (service *Service) writeReport(document *ReportDocument, outputPath string) error {
	encoded, marshalError := json.MarshalIndent(document, "", reportIndentConstant)
	if marshalError != nil {
		return fmt.Errorf(reportMarshalErrorTemplateConstant, marshalError)
	}
	if writeError := service.fileSystem.WriteFile(outputPath, append(encoded, '\n'), reportPermissionsConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, outputPath, writeError)
	}
	return nil
}

func filterByStatus(records []RepositoryRecord, wanted SyncStatus) []RepositoryRecord {
	filtered := make([]RepositoryRecord, 0)
	for _, record := range records {
		if record.IsTarget && record.Status == wanted {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func derefCount(value *int) int {
	if value == nil {
		return UnknownCountSentinel
	}
	return *value
}
