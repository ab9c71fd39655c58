package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
)

// Format is the on-disk configuration format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; TOML is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Errorf("Configuration file not found: %s", configFile)
		return nil, fmt.Errorf("configuration file not found: %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	config, err := ParseConfig(content, FormatFromPath(configFile))
	if err != nil {
		return nil, err
	}

	config._absConfigFilePath = configFile

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("Configured routers: %d", len(config.Routers))

	return config, nil
}

// ParseConfig decodes configuration content and applies defaults.
func ParseConfig(content []byte, format Format) (*Config, error) {
	var config Config

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	default:
		if err := toml.Unmarshal(content, &config); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				log.Errorf("%s", derr.String())
				row, col := derr.Position()
				log.Errorf("Error at line %d, column %d", row, col)
				return nil, fmt.Errorf("failed to parse config file at line %d, column %d", row, col)
			}
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.ApplyDefaults()
	return &config, nil
}
