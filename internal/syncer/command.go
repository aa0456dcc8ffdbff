package syncer

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repofleet/repofleet/internal/dependencies"
	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/shared"
	"github.com/repofleet/repofleet/internal/utils"
)

const (
	commandUseConstant              = "sync [roots...]"
	commandShortDescriptionConstant = "Align shared files across sibling repositories"
	commandLongDescriptionConstant  = "sync compares the configured files across every sibling repository, commits local drift back to each remote, and copies the authoritative version over outliers after confirmation."
	flagDryRunNameConstant          = "dry-run"
	flagDryRunDescriptionConstant   = "Print the sync plan without touching any repository"
	flagYesNameConstant             = "yes"
	flagYesDescriptionConstant      = "Apply the plan without asking for confirmation"
	missingFilesMessageConstant     = "no files configured for synchronization"
)

// ErrNoFilesConfigured indicates the sync file list is empty.
var ErrNoFilesConfigured = errors.New(missingFilesMessageConstant)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current sync configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the sync cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Discoverer            RepositoryDiscoverer
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	FileSystem            FileSystem
	Prompter              shared.ConfirmationPrompter
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the cobra command for cross-repository file sync.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)
	command.Flags().Bool(flagYesNameConstant, false, flagYesDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.resolveOptions(command, arguments)
	if len(options.Files) == 0 {
		return ErrNoFilesConfigured
	}

	logger := builder.resolveLogger()
	gitManager, fileSystem, discoverer, prompter, wiringError := builder.resolveCollaborators(command, logger)
	if wiringError != nil {
		return wiringError
	}

	reporter := shared.NewWriterReporter(utils.NewFlushingWriter(command.OutOrStdout()))
	service := NewService(discoverer, gitManager, fileSystem, prompter, reporter)
	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, arguments []string) Options {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	options := Options{
		Roots:            configuration.Roots,
		Files:            configuration.Files,
		MasterRepository: configuration.Master,
		CommitMessage:    configuration.CommitMessage,
		PrerequisiteFile: configuration.Prerequisite,
		DryRun:           configuration.DryRun,
		AssumeYes:        configuration.AssumeYes,
	}
	if len(arguments) > 0 {
		options.Roots = append([]string{}, arguments...)
	}
	if command.Flags().Changed(flagDryRunNameConstant) {
		options.DryRun, _ = command.Flags().GetBool(flagDryRunNameConstant)
	}
	if command.Flags().Changed(flagYesNameConstant) {
		options.AssumeYes, _ = command.Flags().GetBool(flagYesNameConstant)
	}
	return options
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

func (builder *CommandBuilder) resolveCollaborators(command *cobra.Command, logger *zap.Logger) (GitRepositoryManager, FileSystem, RepositoryDiscoverer, shared.ConfirmationPrompter, error) {
	gitManager := builder.GitManager
	if gitManager == nil {
		gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
		if executorError != nil {
			return nil, nil, nil, nil, executorError
		}
		resolvedManager, managerError := dependencies.ResolveRepositoryManager(gitExecutor)
		if managerError != nil {
			return nil, nil, nil, nil, managerError
		}
		gitManager = resolvedManager
	}

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = dependencies.ResolveFileSystem(nil)
	}

	discoverer := builder.Discoverer
	if discoverer == nil {
		discoverer = dependencies.ResolveRepositoryDiscoverer(nil)
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = shared.NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
	}

	return gitManager, fileSystem, discoverer, prompter, nil
}
