// Package configs contains the system configurations.
package configs

import (
	"encoding/json"
	"fmt"
	"os"
)

const defaultSuggestionHorizonDays = 7

type configData struct {
	ServerPort            int32  `json:"port"`
	DatabaseDSN           string `json:"database_dsn"`
	DatabaseDriver        string `json:"database_driver"`
	NotificationURL       string `json:"notification_url"`
	SuggestionHorizonDays int32  `json:"suggestion_horizon_days"`
}

// Config holds the system configuration.
type Config interface {
	ServerPort() int32
	DatabaseDSN() string
	DatabaseDriver() string
	NotificationURL() string
	SuggestionHorizonDays() int32
}

type defaultConfig struct {
	data *configData
}

func (c *defaultConfig) ServerPort() int32 {
	return c.data.ServerPort
}

func (c *defaultConfig) DatabaseDSN() string {
	return c.data.DatabaseDSN
}

func (c *defaultConfig) DatabaseDriver() string {
	return c.data.DatabaseDriver
}

func (c *defaultConfig) NotificationURL() string {
	return c.data.NotificationURL
}

func (c *defaultConfig) SuggestionHorizonDays() int32 {
	if c.data.SuggestionHorizonDays <= 0 {
		return defaultSuggestionHorizonDays
	}
	return c.data.SuggestionHorizonDays
}

// Load loads the given configuration file.
func Load(configPath string) (Config, error) {
	data := &configData{}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while loading config file: %w", err)
	}
	defer func() {
		_ = configFile.Close()
	}()
	err = json.NewDecoder(configFile).Decode(data)
	if err != nil {
		return nil, fmt.Errorf("an error occurred while parsing config file: %w", err)
	}
	return &defaultConfig{data: data}, nil
}

// MustLoad loads the given configuration file and if any error occurs, will panic.
func MustLoad(configPath string) Config {
	config, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return config
}
