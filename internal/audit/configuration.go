package audit

import "strings"

const (
	configurationLimitKeyConstant          = "limit"
	configurationReadmeKeyConstant         = "readme"
	configurationMarkerPatternsKeyConstant = "marker_patterns"
	configurationCacheDirectoryKeyConstant = "cache_dir"
	configurationRegistryKeyConstant       = "registry"
	configurationOutputKeyConstant         = "output"
	configurationCheckPathsKeyConstant     = "check_paths"
	configurationSelfUpdateKeyConstant     = "self_update"

	defaultRepositoryLimitConstant = 20
	defaultReadmePathConstant      = "README.md"
	defaultCacheDirectoryConstant  = "cache"
	defaultRegistryPathConstant    = "config/repositories.yaml"
)

var defaultMarkerPatterns = []string{"deepwiki.com", "deepwiki", "DeepWiki"}

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	Limit          int      `mapstructure:"limit"`
	Readme         string   `mapstructure:"readme"`
	MarkerPatterns []string `mapstructure:"marker_patterns"`
	CacheDirectory string   `mapstructure:"cache_dir"`
	Registry       string   `mapstructure:"registry"`
	Output         string   `mapstructure:"output"`
	CheckPaths     []string `mapstructure:"check_paths"`
	SelfUpdate     bool     `mapstructure:"self_update"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Limit:          defaultRepositoryLimitConstant,
		Readme:         defaultReadmePathConstant,
		MarkerPatterns: append([]string{}, defaultMarkerPatterns...),
		CacheDirectory: defaultCacheDirectoryConstant,
		Registry:       defaultRegistryPathConstant,
		Output:         "",
		CheckPaths:     []string{},
		SelfUpdate:     true,
	}
}

// DefaultConfigurationValues produces viper defaults for the audit command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + "." + configurationLimitKeyConstant:          defaults.Limit,
		rootKey + "." + configurationReadmeKeyConstant:         defaults.Readme,
		rootKey + "." + configurationMarkerPatternsKeyConstant: defaults.MarkerPatterns,
		rootKey + "." + configurationCacheDirectoryKeyConstant: defaults.CacheDirectory,
		rootKey + "." + configurationRegistryKeyConstant:       defaults.Registry,
		rootKey + "." + configurationOutputKeyConstant:         defaults.Output,
		rootKey + "." + configurationCheckPathsKeyConstant:     defaults.CheckPaths,
		rootKey + "." + configurationSelfUpdateKeyConstant:     defaults.SelfUpdate,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.Limit <= 0 {
		sanitized.Limit = defaultRepositoryLimitConstant
	}
	sanitized.Readme = strings.TrimSpace(configuration.Readme)
	if len(sanitized.Readme) == 0 {
		sanitized.Readme = defaultReadmePathConstant
	}
	sanitized.MarkerPatterns = trimValues(configuration.MarkerPatterns)
	if len(sanitized.MarkerPatterns) == 0 {
		sanitized.MarkerPatterns = append([]string{}, defaultMarkerPatterns...)
	}
	sanitized.CacheDirectory = strings.TrimSpace(configuration.CacheDirectory)
	if len(sanitized.CacheDirectory) == 0 {
		sanitized.CacheDirectory = defaultCacheDirectoryConstant
	}
	sanitized.Registry = strings.TrimSpace(configuration.Registry)
	if len(sanitized.Registry) == 0 {
		sanitized.Registry = defaultRegistryPathConstant
	}
	sanitized.Output = strings.TrimSpace(configuration.Output)
	sanitized.CheckPaths = trimValues(configuration.CheckPaths)
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
