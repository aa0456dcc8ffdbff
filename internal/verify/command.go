package verify

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
	commandUseConstant              = "verify [roots...]"
	commandShortDescriptionConstant = "Compare shared-file digests across sibling repositories"
	commandLongDescriptionConstant  = "verify hashes the configured files in every sibling repository and exits non-zero when any repository disagrees with the majority. No repository is modified unless --install is given."
	flagInstallNameConstant         = "install"
	flagInstallDescriptionConstant  = "Copy the newest existing install file into repositories lacking it"
	missingFilesMessageConstant     = "no files configured for verification"
)

// ErrNoFilesConfigured indicates the verify file list is empty.
var ErrNoFilesConfigured = errors.New(missingFilesMessageConstant)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current verify configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the verify cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Discoverer            RepositoryDiscoverer
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	FileSystem            FileSystem
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the cobra command for cross-repository verification.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagInstallNameConstant, false, flagInstallDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.resolveOptions(command, arguments)
	if len(options.Files) == 0 {
		return ErrNoFilesConfigured
	}

	logger := builder.resolveLogger()
	gitManager, fileSystem, discoverer, wiringError := builder.resolveCollaborators(logger)
	if wiringError != nil {
		return wiringError
	}

	reporter := shared.NewWriterReporter(utils.NewFlushingWriter(command.OutOrStdout()))
	service := NewService(discoverer, gitManager, fileSystem, reporter)
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
		PrerequisiteFile: configuration.Prerequisite,
		Install:          configuration.Install,
		InstallFile:      configuration.InstallFile,
	}
	if len(arguments) > 0 {
		options.Roots = append([]string{}, arguments...)
	}
	if command.Flags().Changed(flagInstallNameConstant) {
		options.Install, _ = command.Flags().GetBool(flagInstallNameConstant)
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

func (builder *CommandBuilder) resolveCollaborators(logger *zap.Logger) (GitRepositoryManager, FileSystem, RepositoryDiscoverer, error) {
	gitManager := builder.GitManager
	if gitManager == nil {
		gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.CommandEventsObserver)
		if executorError != nil {
			return nil, nil, nil, executorError
		}
		resolvedManager, managerError := dependencies.ResolveRepositoryManager(gitExecutor)
		if managerError != nil {
			return nil, nil, nil, managerError
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

	return gitManager, fileSystem, discoverer, nil
}
