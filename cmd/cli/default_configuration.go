package cli

import _ "embed"

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the embedded default
// configuration together with its type identifier. Callers receive a copy so
// the embedded bytes cannot be mutated between invocations.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	configurationCopy := make([]byte, len(embeddedDefaultConfigurationContent))
	copy(configurationCopy, embeddedDefaultConfigurationContent)
	return configurationCopy, configurationTypeConstant
}
