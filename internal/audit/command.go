package audit

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repofleet/repofleet/internal/dependencies"
	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/githubapi"
	"github.com/repofleet/repofleet/internal/selfupdate"
	"github.com/repofleet/repofleet/internal/shared"
	"github.com/repofleet/repofleet/internal/utils"
)

const (
	commandUseConstant              = "audit"
	commandShortDescriptionConstant = "Audit the owner's GitHub repositories for required files and readme markers"
	commandLongDescriptionConstant  = "audit lists the configured owner's repositories through the GitHub REST API and checks each one for a readme, configured marker phrases, verification HTML files, agents instructions, CI workflows, and Jekyll configuration."
	flagOutputNameConstant          = "output"
	flagOutputDescriptionConstant   = "Write the JSON audit report to the given path"
	flagLimitNameConstant           = "limit"
	flagLimitDescriptionConstant    = "Maximum number of repositories to audit"
	flagOwnerNameConstant           = "owner"
	flagOwnerDescriptionConstant    = "GitHub user or organization owning the target repositories"

	inspectorRequestsPerSecondConstant = 5
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current audit configuration.
type ConfigurationProvider func() CommandConfiguration

// OwnerProvider returns the configured GitHub owner.
type OwnerProvider func() string

// SelfUpdater refreshes the local repofleet checkout before the audit runs.
type SelfUpdater interface {
	MaybeUpdate(executionContext context.Context, repositoryRoot string) (bool, error)
}

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	OwnerProvider         OwnerProvider
	Inspector             githubapi.RepositoryInspector
	GitExecutor           shared.GitExecutor
	FileSystem            FileSystem
	CommandEventsObserver execshell.CommandEventObserver
	SelfUpdater           SelfUpdater
}

// Build constructs the cobra command for repository audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagOutputNameConstant, "", flagOutputDescriptionConstant)
	command.Flags().Int(flagLimitNameConstant, defaultRepositoryLimitConstant, flagLimitDescriptionConstant)
	command.Flags().String(flagOwnerNameConstant, "", flagOwnerDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	options := builder.resolveOptions(command)

	logger := builder.resolveLogger()
	reporter := shared.NewWriterReporter(utils.NewFlushingWriter(command.OutOrStdout()))

	if options.SelfUpdate {
		if updateError := builder.runSelfUpdate(command, logger, reporter); updateError != nil {
			return updateError
		}
	}

	inspector, fileSystem, wiringError := builder.resolveCollaborators(command, logger)
	if wiringError != nil {
		return wiringError
	}

	service := NewService(inspector, fileSystem, reporter, nil)
	return service.Run(command.Context(), options)
}

// runSelfUpdate fast-forwards the checkout holding the running binary when
// its upstream branch has new commits. A binary installed outside a checkout
// makes the updater a silent no-op.
func (builder *CommandBuilder) runSelfUpdate(command *cobra.Command, logger *zap.Logger, reporter shared.Reporter) error {
	updater := builder.SelfUpdater
	if updater == nil {
		gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
		if executorError != nil {
			return executorError
		}
		gitManager, managerError := dependencies.ResolveRepositoryManager(gitExecutor)
		if managerError != nil {
			return managerError
		}
		updater = selfupdate.NewUpdater(gitManager, gitExecutor, reporter, os.Getenv)
	}

	executablePath, executableError := os.Executable()
	if executableError != nil {
		return nil
	}
	_, updateError := updater.MaybeUpdate(command.Context(), filepath.Dir(executablePath))
	return updateError
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command) Options {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	outputFlag, _ := command.Flags().GetString(flagOutputNameConstant)
	limitFlag, _ := command.Flags().GetInt(flagLimitNameConstant)
	ownerFlag, _ := command.Flags().GetString(flagOwnerNameConstant)

	options := Options{
		Owner:          resolveOwner(builder.OwnerProvider),
		Limit:          configuration.Limit,
		ReadmePath:     configuration.Readme,
		MarkerPatterns: configuration.MarkerPatterns,
		CacheDirectory: configuration.CacheDirectory,
		RegistryPath:   configuration.Registry,
		OutputPath:     configuration.Output,
		CheckPaths:     configuration.CheckPaths,
		SelfUpdate:     configuration.SelfUpdate,
	}
	if command.Flags().Changed(flagOutputNameConstant) {
		options.OutputPath = outputFlag
	}
	if command.Flags().Changed(flagLimitNameConstant) {
		options.Limit = limitFlag
	}
	if command.Flags().Changed(flagOwnerNameConstant) {
		options.Owner = ownerFlag
	}

	return options
}

func resolveOwner(provider OwnerProvider) string {
	if provider == nil {
		return ""
	}
	return provider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveCollaborators(command *cobra.Command, logger *zap.Logger) (githubapi.RepositoryInspector, FileSystem, error) {
	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = dependencies.ResolveFileSystem(nil)
	}

	inspector := builder.Inspector
	if inspector == nil {
		gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
		if executorError != nil {
			return nil, nil, executorError
		}
		tokenResolver := githubapi.NewTokenResolver(gitExecutor)
		token, tokenError := tokenResolver.ResolveToken(command.Context(), nil)
		if tokenError != nil {
			return nil, nil, tokenError
		}
		inspector = githubapi.NewClient(token, inspectorRequestsPerSecondConstant)
	}

	return inspector, fileSystem, nil
}
