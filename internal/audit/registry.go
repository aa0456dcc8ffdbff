package audit

import (
	"fmt"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	registryFilePermissionsConstant      = 0o644
	registryDirectoryPermissionsConstant = 0o755
)

// RegistryEntry configures fleet-level handling for one repository.
type RegistryEntry struct {
	Repository      string `yaml:"repository"`
	TranslateReadme bool   `yaml:"translate_readme,omitempty"`
	CheckLargeFiles bool   `yaml:"check_large_files,omitempty"`
}

type registryDocument struct {
	Repositories []RegistryEntry `yaml:"repositories"`
}

// Registry reads and extends the local repository registry file.
type Registry struct {
	fileSystem FileSystem
	path       string
}

// NewRegistry builds a registry over the given YAML file path.
func NewRegistry(fileSystem FileSystem, path string) *Registry {
	return &Registry{fileSystem: fileSystem, path: path}
}

// KnownNames returns the repository names currently recorded in the registry.
// A missing file yields an empty list.
func (registry *Registry) KnownNames() ([]string, error) {
	document, loadError := registry.load()
	if loadError != nil {
		return nil, loadError
	}
	names := make([]string, 0, len(document.Repositories))
	for _, entry := range document.Repositories {
		if len(entry.Repository) > 0 {
			names = append(names, entry.Repository)
		}
	}
	return names, nil
}

// Append adds the given repository names to the registry in sorted order,
// preserving existing entries.
func (registry *Registry) Append(newNames []string) error {
	if len(newNames) == 0 {
		return nil
	}
	document, loadError := registry.load()
	if loadError != nil {
		return loadError
	}

	sortedNames := append([]string{}, newNames...)
	sort.Strings(sortedNames)
	for _, name := range sortedNames {
		document.Repositories = append(document.Repositories, RegistryEntry{Repository: name})
	}

	contents, marshalError := yaml.Marshal(document)
	if marshalError != nil {
		return fmt.Errorf("marshal repository registry: %w", marshalError)
	}
	if directoryError := registry.fileSystem.MkdirAll(filepath.Dir(registry.path), registryDirectoryPermissionsConstant); directoryError != nil {
		return directoryError
	}
	return registry.fileSystem.WriteFile(registry.path, contents, registryFilePermissionsConstant)
}

func (registry *Registry) load() (registryDocument, error) {
	document := registryDocument{}
	contents, readError := registry.fileSystem.ReadFile(registry.path)
	if readError != nil {
		return document, nil
	}
	if unmarshalError := yaml.Unmarshal(contents, &document); unmarshalError != nil {
		return document, fmt.Errorf("parse repository registry %s: %w", registry.path, unmarshalError)
	}
	return document, nil
}
