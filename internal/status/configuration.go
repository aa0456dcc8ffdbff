package status

import "strings"

const (
	configurationRootsKeyConstant  = "roots"
	configurationOutputKeyConstant = "output"
	configurationPullKeyConstant   = "pull"

	defaultRepositoryRootConstant = ".."
)

// CommandConfiguration captures persistent settings for the status command.
type CommandConfiguration struct {
	Roots  []string `mapstructure:"roots"`
	Output string   `mapstructure:"output"`
	Pull   bool     `mapstructure:"pull"`
}

// DefaultCommandConfiguration returns baseline configuration values for the status command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Roots:  []string{defaultRepositoryRootConstant},
		Output: "",
		Pull:   false,
	}
}

// DefaultConfigurationValues produces viper defaults for the status command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationRootsKeyConstant:  defaults.Roots,
		rootKey + "." + configurationOutputKeyConstant: defaults.Output,
		rootKey + "." + configurationPullKeyConstant:   defaults.Pull,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Roots = sanitizeRoots(configuration.Roots)
	if len(sanitized.Roots) == 0 {
		sanitized.Roots = []string{defaultRepositoryRootConstant}
	}
	sanitized.Output = strings.TrimSpace(configuration.Output)
	return sanitized
}

func sanitizeRoots(raw []string) []string {
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
