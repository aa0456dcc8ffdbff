package status

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/repofleet/repofleet/internal/dependencies"
	"github.com/repofleet/repofleet/internal/execshell"
	"github.com/repofleet/repofleet/internal/shared"
	"github.com/repofleet/repofleet/internal/utils"
)

const (
	commandUseConstant              = "status [roots...]"
	commandShortDescriptionConstant = "Classify sibling repositories against their GitHub remotes"
	commandLongDescriptionConstant  = "status fetches every sibling repository owned by the configured GitHub user and reports whether it is pullable, diverged, up to date, or unknown."
	flagPullNameConstant            = "pull"
	flagPullDescriptionConstant     = "Fast-forward pull every pullable repository after the scan"
	flagOutputNameConstant          = "output"
	flagOutputDescriptionConstant   = "Write the JSON report to the given path"
	flagOwnerNameConstant           = "owner"
	flagOwnerDescriptionConstant    = "GitHub user or organization owning the target repositories"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current status configuration.
type ConfigurationProvider func() CommandConfiguration

// OwnerProvider returns the configured GitHub owner.
type OwnerProvider func() string

// CommandBuilder assembles the status cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	OwnerProvider         OwnerProvider
	Discoverer            RepositoryDiscoverer
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	FileSystem            FileSystem
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the cobra command for repository status scans.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagPullNameConstant, false, flagPullDescriptionConstant)
	command.Flags().String(flagOutputNameConstant, "", flagOutputDescriptionConstant)
	command.Flags().String(flagOwnerNameConstant, "", flagOwnerDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options := builder.resolveOptions(command, arguments)

	logger := builder.resolveLogger()
	gitManager, fileSystem, discoverer, wiringError := builder.resolveCollaborators(logger)
	if wiringError != nil {
		return wiringError
	}

	reporter := shared.NewWriterReporter(utils.NewFlushingWriter(command.OutOrStdout()))
	service := NewService(discoverer, gitManager, fileSystem, reporter, nil)
	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) resolveOptions(command *cobra.Command, arguments []string) Options {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	configuration = configuration.sanitize()

	pullFlag, _ := command.Flags().GetBool(flagPullNameConstant)
	outputFlag, _ := command.Flags().GetString(flagOutputNameConstant)
	ownerFlag, _ := command.Flags().GetString(flagOwnerNameConstant)

	options := Options{
		Owner:      resolveOwner(builder.OwnerProvider),
		Roots:      configuration.Roots,
		DoPull:     configuration.Pull,
		OutputPath: configuration.Output,
	}
	if len(arguments) > 0 {
		options.Roots = append([]string{}, arguments...)
	}
	if command.Flags().Changed(flagPullNameConstant) {
		options.DoPull = pullFlag
	}
	if command.Flags().Changed(flagOutputNameConstant) {
		options.OutputPath = outputFlag
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
