package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/repofleet/repofleet/internal/shared"
)

const (
	copiedFilePermissionsConstant       = 0o644
	createdDirectoryPermissionsConstant = 0o755
	missingFileLabelConstant            = "(missing)"
	remoteCopyFilePrefixConstant        = "repofleet-remote-"
	noTargetsMessageConstant            = "no repositories carry the prerequisite file"
	fetchErrorTemplateConstant          = "unable to fetch %s: %w"
	stageErrorTemplateConstant          = "unable to stage %s in %s: %w"
	commitErrorTemplateConstant         = "unable to commit in %s: %w"
	pushErrorTemplateConstant           = "unable to push %s: %w"
	copyReadErrorTemplateConstant       = "unable to read source file %s: %w"
	copyWriteErrorTemplateConstant      = "unable to write %s: %w"
	promptCommitTemplateConstant        = "Commit and push local changes in %d repositories? [y/N] "
	promptCopyTemplateConstant          = "Copy files from %s into %d repositories and commit & push? [y/N] "
	abortedMessageConstant              = "[ABORT] cancelled by user\n"
)

// ErrNoTargetRepositories indicates no sibling repository qualified for sync.
var ErrNoTargetRepositories = errors.New(noTargetsMessageConstant)

var upstreamFallbackReferences = []string{"origin/HEAD", "origin/main", "origin/master"}

// Options carries the resolved settings for one sync run.
type Options struct {
	Roots            []string
	Files            []string
	MasterRepository string
	CommitMessage    string
	PrerequisiteFile string
	DryRun           bool
	AssumeYes        bool
}

// localDrift records one file whose worktree copy differs from the remote HEAD.
type localDrift struct {
	relativePath    string
	localDigest     string
	remoteDigest    string
	lineEndingsOnly bool
	localEndings    LineEndingCounts
	remoteEndings   LineEndingCounts
}

// Service orchestrates the three sync phases across target repositories.
type Service struct {
	discoverer      RepositoryDiscoverer
	gitManager      GitRepositoryManager
	fileSystem      FileSystem
	prompter        shared.ConfirmationPrompter
	reporter        shared.Reporter
	tempDirectory   string
	blanketApproval bool
}

// NewService constructs a Service using the provided collaborators.
func NewService(discoverer RepositoryDiscoverer, gitManager GitRepositoryManager, fileSystem FileSystem, prompter shared.ConfirmationPrompter, reporter shared.Reporter) *Service {
	return &Service{
		discoverer:    discoverer,
		gitManager:    gitManager,
		fileSystem:    fileSystem,
		prompter:      prompter,
		reporter:      reporter,
		tempDirectory: os.TempDir(),
	}
}

// Run executes the phases: commit local drift back to each remote, plan
// cross-repository copies, and apply the plan after confirmation.
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

	driftByRepository, driftError := service.reportRemoteDrift(executionContext, targetRepositories, options.Files)
	if driftError != nil {
		return driftError
	}

	copyPlans, planError := service.planCrossRepositorySync(executionContext, targetRepositories, options)
	if planError != nil {
		return planError
	}

	executionPolicy := shared.ExecutionPolicyFromBool(!options.DryRun)
	if !executionPolicy.ShouldApply() {
		service.reporter.Printf("\nDry run: no changes applied.\n")
		return nil
	}

	if len(driftByRepository) > 0 {
		confirmed, confirmError := service.confirm(options, fmt.Sprintf(promptCommitTemplateConstant, len(driftByRepository)))
		if confirmError != nil {
			return confirmError
		}
		if !confirmed {
			service.reporter.Printf(abortedMessageConstant)
			return nil
		}
		if commitError := service.commitLocalDrift(executionContext, driftByRepository, options.CommitMessage); commitError != nil {
			return commitError
		}
	}

	if len(copyPlans) == 0 {
		service.reporter.Printf("\n[OK] all files match across repositories\n")
		return nil
	}

	sourceNames := sourceRepositoryNames(copyPlans)
	confirmed, confirmError := service.confirm(options, fmt.Sprintf(promptCopyTemplateConstant, strings.Join(sourceNames, ", "), len(copyPlans)))
	if confirmError != nil {
		return confirmError
	}
	if !confirmed {
		service.reporter.Printf(abortedMessageConstant)
		return nil
	}

	return service.applyCopyPlans(executionContext, copyPlans, options.CommitMessage)
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

// reportRemoteDrift fetches every target repository and byte-compares each
// synchronized file against the remote HEAD copy.
func (service *Service) reportRemoteDrift(executionContext context.Context, targetRepositories []string, files []string) (map[string][]localDrift, error) {
	service.reporter.Printf("[PHASE 1] local worktree vs remote HEAD\n")

	driftByRepository := map[string][]localDrift{}
	for _, repositoryPath := range targetRepositories {
		if fetchError := service.gitManager.FetchRemote(executionContext, repositoryPath, shared.OriginRemoteNameConstant); fetchError != nil {
			return nil, fmt.Errorf(fetchErrorTemplateConstant, repositoryPath, fetchError)
		}

		upstreamReference, upstreamError := service.gitManager.ResolveUpstreamReference(executionContext, repositoryPath, upstreamFallbackReferences)
		if upstreamError != nil {
			service.reporter.Printf("  %s: no upstream reference, skipping remote comparison\n", filepath.Base(repositoryPath))
			continue
		}

		drifts, compareError := service.compareAgainstRemote(executionContext, repositoryPath, upstreamReference, files)
		if compareError != nil {
			return nil, compareError
		}
		if len(drifts) == 0 {
			service.reporter.Printf("  %s: clean\n", filepath.Base(repositoryPath))
			continue
		}
		driftByRepository[repositoryPath] = drifts
	}

	if len(driftByRepository) == 0 {
		service.reporter.Printf("[OK] every repository matches its remote\n")
	} else {
		service.reporter.Printf("[WARN] uncommitted drift detected in %d repositories\n", len(driftByRepository))
	}
	return driftByRepository, nil
}

func (service *Service) compareAgainstRemote(executionContext context.Context, repositoryPath string, upstreamReference string, files []string) ([]localDrift, error) {
	drifts := make([]localDrift, 0)
	for _, relativePath := range files {
		localPath := filepath.Join(repositoryPath, relativePath)
		localBytes, readError := service.fileSystem.ReadFile(localPath)
		if readError != nil {
			continue // missing locally; phase 2 owns absent files
		}

		remoteBytes, showError := service.gitManager.ShowRemoteFile(executionContext, repositoryPath, upstreamReference, relativePath)
		if showError != nil {
			continue // absent on the remote as well
		}

		localDigest := BytesDigest(localBytes)
		remoteDigest := BytesDigest(remoteBytes)
		if localDigest == remoteDigest {
			continue
		}

		drift := localDrift{
			relativePath:    relativePath,
			localDigest:     localDigest,
			remoteDigest:    remoteDigest,
			lineEndingsOnly: LineEndingOnlyDifference(localBytes, remoteBytes),
			localEndings:    CountLineEndings(localBytes),
			remoteEndings:   CountLineEndings(remoteBytes),
		}
		drifts = append(drifts, drift)

		service.reporter.Printf("  %s: drift in %s\n", filepath.Base(repositoryPath), relativePath)
		service.reporter.Printf("    local  %s\n", drift.localDigest)
		service.reporter.Printf("    remote %s\n", drift.remoteDigest)
		if drift.lineEndingsOnly {
			service.reporter.Printf("    line endings only (local %s, remote %s)\n", drift.localEndings, drift.remoteEndings)
		}
		service.showRemoteDiff(executionContext, localPath, relativePath, remoteBytes)
	}
	return drifts, nil
}

func (service *Service) showRemoteDiff(executionContext context.Context, localPath string, relativePath string, remoteBytes []byte) {
	remoteCopyPath := filepath.Join(service.tempDirectory, fmt.Sprintf("%s%d%s", remoteCopyFilePrefixConstant, time.Now().UnixNano(), filepath.Ext(relativePath)))
	if writeError := service.fileSystem.WriteFile(remoteCopyPath, remoteBytes, copiedFilePermissionsConstant); writeError != nil {
		return
	}
	defer func() { _ = os.Remove(remoteCopyPath) }()

	diffOutput, diffError := service.gitManager.DiffFiles(executionContext, remoteCopyPath, localPath)
	if diffError != nil || len(diffOutput) == 0 {
		return
	}
	service.reporter.Printf("%s\n", diffOutput)
}

func (service *Service) commitLocalDrift(executionContext context.Context, driftByRepository map[string][]localDrift, commitMessage string) error {
	service.reporter.Printf("\n[PHASE 1a] commit & push local drift\n")
	for _, repositoryPath := range sortedKeys(driftByRepository) {
		service.reporter.Printf("--- %s ---\n", filepath.Base(repositoryPath))
		for _, drift := range driftByRepository[repositoryPath] {
			if stageError := service.gitManager.StageFile(executionContext, repositoryPath, drift.relativePath); stageError != nil {
				return fmt.Errorf(stageErrorTemplateConstant, drift.relativePath, repositoryPath, stageError)
			}
			service.reporter.Printf("  [ADD]  %s\n", drift.relativePath)
		}
		if commitPushError := service.commitAndPush(executionContext, repositoryPath, commitMessage); commitPushError != nil {
			return commitPushError
		}
	}
	return nil
}

// planCrossRepositorySync runs the majority-digest planner for every file and
// prints the resulting plan.
func (service *Service) planCrossRepositorySync(executionContext context.Context, targetRepositories []string, options Options) (map[string][]FilePlan, error) {
	service.reporter.Printf("\n[PHASE 2] cross-repository comparison\n")

	plansByRepository := map[string][]FilePlan{}
	for _, relativePath := range options.Files {
		plan, planError := PlanFile(service.fileSystem, targetRepositories, relativePath, options.MasterRepository)
		if planError != nil {
			return nil, planError
		}

		switch {
		case plan.AllAbsent:
			service.reporter.Printf("  [SKIP] %s: absent in every repository\n", relativePath)
			continue
		case len(plan.Outliers) == 0:
			service.reporter.Printf("  [OK]   %s: all repositories match\n", relativePath)
			continue
		case plan.Unresolvable:
			service.reporter.Printf("  [SKIP] %s: no source repository could be resolved\n", relativePath)
			continue
		}

		if plan.MasterFellBack {
			service.reporter.Printf("  [WARN] master repository %q lacks %s; falling back to the majority copy\n", options.MasterRepository, relativePath)
		}
		service.reporter.Printf("  [DIFF] %s: majority %s, source %s\n", relativePath, plan.MajorityDigest, filepath.Base(plan.SourceRepository))
		for _, outlier := range plan.Outliers {
			digestLabel := missingFileLabelConstant
			if outlier.HasFile {
				digestLabel = outlier.Digest
			}
			service.reporter.Printf("         outlier %s %s\n", outlier.RepositoryName(), digestLabel)
			if outlier.HasFile {
				service.showPlannedDiff(executionContext, outlier.RepositoryPath, plan.SourceRepository, relativePath)
			}
			plansByRepository[outlier.RepositoryPath] = append(plansByRepository[outlier.RepositoryPath], plan)
		}
	}
	return plansByRepository, nil
}

func (service *Service) showPlannedDiff(executionContext context.Context, outlierPath string, sourcePath string, relativePath string) {
	diffOutput, diffError := service.gitManager.DiffFiles(executionContext, filepath.Join(outlierPath, relativePath), filepath.Join(sourcePath, relativePath))
	if diffError != nil || len(diffOutput) == 0 {
		return
	}
	service.reporter.Printf("%s\n", diffOutput)
}

// applyCopyPlans copies the source file over every outlier, then stages,
// commits, and pushes per repository.
func (service *Service) applyCopyPlans(executionContext context.Context, plansByRepository map[string][]FilePlan, commitMessage string) error {
	service.reporter.Printf("\n[PHASE 3] apply sync plan\n")
	for _, repositoryPath := range sortedKeys(plansByRepository) {
		service.reporter.Printf("--- %s ---\n", filepath.Base(repositoryPath))
		for _, plan := range plansByRepository[repositoryPath] {
			sourcePath := filepath.Join(plan.SourceRepository, plan.RelativePath)
			contents, readError := service.fileSystem.ReadFile(sourcePath)
			if readError != nil {
				return fmt.Errorf(copyReadErrorTemplateConstant, sourcePath, readError)
			}

			destinationPath := filepath.Join(repositoryPath, plan.RelativePath)
			if mkdirError := service.fileSystem.MkdirAll(filepath.Dir(destinationPath), createdDirectoryPermissionsConstant); mkdirError != nil {
				return fmt.Errorf(copyWriteErrorTemplateConstant, destinationPath, mkdirError)
			}
			if writeError := service.fileSystem.WriteFile(destinationPath, contents, copiedFilePermissionsConstant); writeError != nil {
				return fmt.Errorf(copyWriteErrorTemplateConstant, destinationPath, writeError)
			}
			service.reporter.Printf("  [COPY] %s\n", plan.RelativePath)

			if stageError := service.gitManager.StageFile(executionContext, repositoryPath, plan.RelativePath); stageError != nil {
				return fmt.Errorf(stageErrorTemplateConstant, plan.RelativePath, repositoryPath, stageError)
			}
			service.reporter.Printf("  [ADD]  %s\n", plan.RelativePath)
		}
		if commitPushError := service.commitAndPush(executionContext, repositoryPath, commitMessage); commitPushError != nil {
			return commitPushError
		}
	}
	service.reporter.Printf("\n[OK] sync completed\n")
	return nil
}

func (service *Service) commitAndPush(executionContext context.Context, repositoryPath string, commitMessage string) error {
	staged, stagedError := service.gitManager.HasStagedChanges(executionContext, repositoryPath)
	if stagedError != nil {
		return stagedError
	}
	if !staged {
		service.reporter.Printf("  [SKIP] nothing staged; commit skipped\n")
		return nil
	}
	if commitError := service.gitManager.Commit(executionContext, repositoryPath, commitMessage); commitError != nil {
		return fmt.Errorf(commitErrorTemplateConstant, repositoryPath, commitError)
	}
	service.reporter.Printf("  [COMMIT] %q\n", commitMessage)
	if pushError := service.gitManager.Push(executionContext, repositoryPath); pushError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, repositoryPath, pushError)
	}
	service.reporter.Printf("  [PUSH] done\n")
	return nil
}

func (service *Service) confirm(options Options, prompt string) (bool, error) {
	if service.blanketApproval || shared.ConfirmationPolicyFromBool(options.AssumeYes).ShouldAssumeYes() {
		return true, nil
	}
	result, promptError := service.prompter.Confirm(prompt)
	if promptError != nil {
		return false, promptError
	}
	if result.ApplyToAll {
		service.blanketApproval = true
	}
	return result.Confirmed, nil
}

func sourceRepositoryNames(plansByRepository map[string][]FilePlan) []string {
	seen := map[string]struct{}{}
	names := make([]string, 0)
	for _, plans := range plansByRepository {
		for _, plan := range plans {
			name := filepath.Base(plan.SourceRepository)
			if _, exists := seen[name]; exists {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func sortedKeys[V any](byRepository map[string]V) []string {
	keys := make([]string, 0, len(byRepository))
	for key := range byRepository {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
