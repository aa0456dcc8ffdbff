package syncer

import "strings"

const (
	configurationFilesKeyConstant         = "files"
	configurationMasterKeyConstant        = "master"
	configurationCommitMessageKeyConstant = "commit_message"
	configurationPrerequisiteKeyConstant  = "prerequisite"
	configurationRootsKeyConstant         = "roots"
	configurationDryRunKeyConstant        = "dry_run"
	configurationAssumeYesKeyConstant     = "assume_yes"

	defaultRepositoryRootConstant = ".."
	defaultCommitMessageConstant  = "chore: sync files to match majority"
	defaultPrerequisiteConstant   = "README.md"
)

// CommandConfiguration captures persistent settings for the sync command.
type CommandConfiguration struct {
	Files         []string `mapstructure:"files"`
	Master        string   `mapstructure:"master"`
	CommitMessage string   `mapstructure:"commit_message"`
	Prerequisite  string   `mapstructure:"prerequisite"`
	Roots         []string `mapstructure:"roots"`
	DryRun        bool     `mapstructure:"dry_run"`
	AssumeYes     bool     `mapstructure:"assume_yes"`
}

// DefaultCommandConfiguration returns baseline configuration values for the sync command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Files:         nil,
		Master:        "",
		CommitMessage: defaultCommitMessageConstant,
		Prerequisite:  defaultPrerequisiteConstant,
		Roots:         []string{defaultRepositoryRootConstant},
		DryRun:        false,
		AssumeYes:     false,
	}
}

// DefaultConfigurationValues produces viper defaults for the sync command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationFilesKeyConstant:         defaults.Files,
		rootKey + "." + configurationMasterKeyConstant:        defaults.Master,
		rootKey + "." + configurationCommitMessageKeyConstant: defaults.CommitMessage,
		rootKey + "." + configurationPrerequisiteKeyConstant:  defaults.Prerequisite,
		rootKey + "." + configurationRootsKeyConstant:         defaults.Roots,
		rootKey + "." + configurationDryRunKeyConstant:        defaults.DryRun,
		rootKey + "." + configurationAssumeYesKeyConstant:     defaults.AssumeYes,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Files = trimValues(configuration.Files)
	sanitized.Master = strings.TrimSpace(configuration.Master)
	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = defaultCommitMessageConstant
	}
	sanitized.Prerequisite = strings.TrimSpace(configuration.Prerequisite)
	sanitized.Roots = trimValues(configuration.Roots)
	if len(sanitized.Roots) == 0 {
		sanitized.Roots = []string{defaultRepositoryRootConstant}
	}
	return sanitized
}

func trimValues(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
