package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fsaudit/internal/utils"
)

type loaderTargetConfiguration struct {
	Common struct {
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"common"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testInstance.Run("explicit_file_overrides_defaults", func(subTest *testing.T) {
		configurationPath := filepath.Join(subTest.TempDir(), "config.yaml")
		configurationContents := "common:\n  log_level: debug\n"
		require.NoError(subTest, os.WriteFile(configurationPath, []byte(configurationContents), 0o644))

		loader := utils.NewConfigurationLoader("config", "yaml", "FSAUDIT", []string{"."})
		var target loaderTargetConfiguration
		metadata, loadError := loader.LoadConfiguration(configurationPath, map[string]any{
			"common.log_level":  "info",
			"common.log_format": "structured",
		}, &target)

		require.NoError(subTest, loadError)
		require.Equal(subTest, configurationPath, metadata.ConfigFileUsed)
		require.Equal(subTest, "debug", target.Common.LogLevel)
		require.Equal(subTest, "structured", target.Common.LogFormat)
	})

	testInstance.Run("missing_file_falls_back_to_defaults", func(subTest *testing.T) {
		loader := utils.NewConfigurationLoader("config", "yaml", "FSAUDIT", []string{subTest.TempDir()})
		var target loaderTargetConfiguration
		_, loadError := loader.LoadConfiguration("", map[string]any{
			"common.log_level": "warn",
		}, &target)

		require.NoError(subTest, loadError)
		require.Equal(subTest, "warn", target.Common.LogLevel)
	})

	testInstance.Run("environment_variable_overrides_default", func(subTest *testing.T) {
		subTest.Setenv("FSAUDIT_COMMON_LOG_LEVEL", "error")

		loader := utils.NewConfigurationLoader("config", "yaml", "FSAUDIT", []string{subTest.TempDir()})
		var target loaderTargetConfiguration
		_, loadError := loader.LoadConfiguration("", map[string]any{
			"common.log_level": "info",
		}, &target)

		require.NoError(subTest, loadError)
		require.Equal(subTest, "error", target.Common.LogLevel)
	})

	testInstance.Run("malformed_file_fails", func(subTest *testing.T) {
		configurationPath := filepath.Join(subTest.TempDir(), "config.yaml")
		require.NoError(subTest, os.WriteFile(configurationPath, []byte("common: [unclosed"), 0o644))

		loader := utils.NewConfigurationLoader("config", "yaml", "FSAUDIT", []string{"."})
		var target loaderTargetConfiguration
		_, loadError := loader.LoadConfiguration(configurationPath, nil, &target)
		require.Error(subTest, loadError)
	})
}

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name        string
		logLevel    utils.LogLevel
		logFormat   utils.LogFormat
		expectError bool
	}{
		{name: "structured_info", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormatStructured},
		{name: "console_debug", logLevel: utils.LogLevelDebug, logFormat: utils.LogFormatConsole},
		{name: "unsupported_level", logLevel: utils.LogLevel("verbose"), logFormat: utils.LogFormatStructured, expectError: true},
		{name: "unsupported_format", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormat("plain"), expectError: true},
	}

	factory := utils.NewLoggerFactory()
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			logger, creationError := factory.CreateLogger(testCase.logLevel, testCase.logFormat)
			if testCase.expectError {
				require.Error(subTest, creationError)
				require.Nil(subTest, logger)
				return
			}
			require.NoError(subTest, creationError)
			require.NotNil(subTest, logger)
		})
	}
}
