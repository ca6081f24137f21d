package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/tripboard/internal/support/exception"
	"github.com/tigerroll/tripboard/internal/support/logger"
)

const moduleName = "config"

// LoadConfig loads configuration from the embedded YAML file and environment variables.
// Precedence, lowest first: NewConfig() defaults, embedded YAML, environment variables
// derived from the yaml tags (e.g. TRIPBOARD_SOURCE_CACHE_DIR).
// An optional .env file is loaded first so it can supply those variables.
// This function is expected to be called only once during application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to unmarshal embedded config", err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewPipelineError(moduleName, "failed to load config from environment variables", err)
	}
	return cfg, nil
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite corresponding values in destConfig
// when they are not zero values for their type.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeTripboardConfig(&destConfig.Tripboard, &sourceConfig.Tripboard)
}

// mergeTripboardConfig merges source into dest.
func mergeTripboardConfig(dest, source *TripboardConfig) {
	if source.System.Timezone != "" {
		dest.System.Timezone = source.System.Timezone
	}
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Source.BaseURL != "" {
		dest.Source.BaseURL = source.Source.BaseURL
	}
	if source.Source.ZoneLookupURL != "" {
		dest.Source.ZoneLookupURL = source.Source.ZoneLookupURL
	}
	if source.Source.CacheDir != "" {
		dest.Source.CacheDir = source.Source.CacheDir
	}
	if source.Source.Months != nil {
		dest.Source.Months = source.Source.Months
	}

	if source.Engine.ChunkSize != 0 {
		dest.Engine.ChunkSize = source.Engine.ChunkSize
	}
	if source.Engine.NightTopZones != 0 {
		dest.Engine.NightTopZones = source.Engine.NightTopZones
	}

	if source.Report.OutputPath != "" {
		dest.Report.OutputPath = source.Report.OutputPath
	}
	if source.Report.Height != 0 {
		dest.Report.Height = source.Report.Height
	}
	if source.Report.PanelProperties != nil {
		if dest.Report.PanelProperties == nil {
			dest.Report.PanelProperties = make(map[string]map[string]interface{})
		}
		for key, value := range source.Report.PanelProperties {
			dest.Report.PanelProperties[key] = value
		}
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from
// environment variables. The variable name is the upper-cased chain of yaml tags
// joined with underscores. Map- and slice-typed fields are left to YAML.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}

		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
// String slices are split on commas; map fields are skipped.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}
