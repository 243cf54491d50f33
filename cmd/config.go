package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"skipguard.dev/pkg/skipguard/internal/domain"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "skipguard"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	verboseFlagName  = "verbose"
	profileFlagName  = "profile"
	dryRunFlagName   = "dry-run"
	quietFlagName    = "quiet"
	fragmentFlagName = "fragment"
	formatFlagName   = "output"

	patchProfileKey   = "patch.profile"
	patchDryRunKey    = "patch.dry_run"
	patchQuietKey     = "patch.quiet"
	profilesConfigKey = "profiles"
	profilesFormatKey = "profiles.output"

	checkNestedContainsKey = "check.nested_contains"
	checkNestedSuffixKey   = "check.nested_suffix"
	checkMemberContainsKey = "check.member_contains"
	checkMemberSuffixKey   = "check.member_suffix"
	checkFragmentsKey      = "check.fragments"

	defaultDryRun = false
	defaultQuiet  = false
	defaultFormat = "table"

	envPrefix = "SKIPGUARD"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".skipguard.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		fmt.Fprintf(os.Stderr, "skipguard: ignoring %s: %v\n", viper.ConfigFileUsed(), err)
	}
}

func setDefaults() {
	spec := domain.DefaultArchiveSpec()

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(patchProfileKey, domain.DefaultProfile)
	viper.SetDefault(patchDryRunKey, defaultDryRun)
	viper.SetDefault(patchQuietKey, defaultQuiet)
	viper.SetDefault(profilesFormatKey, defaultFormat)

	viper.SetDefault(checkNestedContainsKey, spec.NestedContains)
	viper.SetDefault(checkNestedSuffixKey, spec.NestedSuffix)
	viper.SetDefault(checkMemberContainsKey, spec.MemberContains)
	viper.SetDefault(checkMemberSuffixKey, spec.MemberSuffix)
	viper.SetDefault(checkFragmentsKey, spec.Fragments)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// archiveSpecFromConfig reads the check.* keys one by one so a config file
// overriding a single key keeps the defaults of the others.
func archiveSpecFromConfig() m.ArchiveSpec {
	return m.ArchiveSpec{
		NestedContains: viper.GetString(checkNestedContainsKey),
		NestedSuffix:   viper.GetString(checkNestedSuffixKey),
		MemberContains: viper.GetString(checkMemberContainsKey),
		MemberSuffix:   viper.GetString(checkMemberSuffixKey),
		Fragments:      viper.GetStringSlice(checkFragmentsKey),
	}
}

// profilesFromConfig decodes the user defined profiles from the global config.
func profilesFromConfig() ([]m.Profile, error) {
	return decodeProfiles(viper.GetViper())
}

// decodeProfiles reads profiles.custom. Markers may be written either as
// plain strings or as {contains, unless} maps.
func decodeProfiles(v *viper.Viper) ([]m.Profile, error) {
	var profiles []m.Profile

	err := v.UnmarshalKey(profilesConfigKey+".custom", &profiles, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			markerFromString(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s.custom: %w", profilesConfigKey, err)
	}

	return profiles, nil
}

func markerFromString() mapstructure.DecodeHookFuncType {
	markerType := reflect.TypeOf(m.Marker{})

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != markerType {
			return data, nil
		}

		s, _ := data.(string)

		return m.Contains(s), nil
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
