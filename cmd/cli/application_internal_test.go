package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewApplicationRegistersFleetCommands(t *testing.T) {
	application := NewApplication()
	require.NotNil(t, application.rootCommand)

	registeredNames := map[string]bool{}
	for _, subcommand := range application.rootCommand.Commands() {
		registeredNames[subcommand.Name()] = true
	}

	for _, expectedName := range []string{"status", "sync", "verify", "audit"} {
		require.True(t, registeredNames[expectedName], expectedName)
	}
}

func TestPersistentFlagOverridesReplaceConfiguredLogging(t *testing.T) {
	application := NewApplication()
	rootCommand := application.rootCommand

	require.NoError(t, rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "debug"))
	require.NoError(t, rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, "console"))

	require.NoError(t, application.initializeConfiguration(rootCommand))
	require.Equal(t, "debug", application.configuration.Common.LogLevel)
	require.Equal(t, "console", application.configuration.Common.LogFormat)
}
