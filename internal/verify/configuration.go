package verify

import "strings"

const (
	configurationFilesKeyConstant        = "files"
	configurationPrerequisiteKeyConstant = "prerequisite"
	configurationRootsKeyConstant        = "roots"
	configurationInstallKeyConstant      = "install"
	configurationInstallFileKeyConstant  = "install_file"

	defaultRepositoryRootConstant = ".."
	defaultPrerequisiteConstant   = "README.md"
)

// CommandConfiguration captures persistent settings for the verify command.
type CommandConfiguration struct {
	Files        []string `mapstructure:"files"`
	Prerequisite string   `mapstructure:"prerequisite"`
	Roots        []string `mapstructure:"roots"`
	Install      bool     `mapstructure:"install"`
	InstallFile  string   `mapstructure:"install_file"`
}

// DefaultCommandConfiguration returns baseline configuration values for the verify command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Files:        nil,
		Prerequisite: defaultPrerequisiteConstant,
		Roots:        []string{defaultRepositoryRootConstant},
		Install:      false,
		InstallFile:  "",
	}
}

// DefaultConfigurationValues produces viper defaults for the verify command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationFilesKeyConstant:        defaults.Files,
		rootKey + "." + configurationPrerequisiteKeyConstant: defaults.Prerequisite,
		rootKey + "." + configurationRootsKeyConstant:        defaults.Roots,
		rootKey + "." + configurationInstallKeyConstant:      defaults.Install,
		rootKey + "." + configurationInstallFileKeyConstant:  defaults.InstallFile,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Files = trimValues(configuration.Files)
	sanitized.Prerequisite = strings.TrimSpace(configuration.Prerequisite)
	sanitized.Roots = trimValues(configuration.Roots)
	if len(sanitized.Roots) == 0 {
		sanitized.Roots = []string{defaultRepositoryRootConstant}
	}
	sanitized.InstallFile = strings.TrimSpace(configuration.InstallFile)
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
