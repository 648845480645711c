// Package config loads docfront settings from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacentio/docfront/store"
)

// Settings is the on-disk configuration.
type Settings struct {
	Database DatabaseSettings `yaml:"database"`
	Store    StoreSettings    `yaml:"store"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// DatabaseSettings locate and authenticate the database.
type DatabaseSettings struct {
	Endpoint        string   `yaml:"endpoint"`
	Region          string   `yaml:"region"`
	AccessKeyID     string   `yaml:"access_key_id"`
	SecretAccessKey string   `yaml:"secret_access_key"`
	Collections     []string `yaml:"collections"`
}

// StoreSettings tune document operations.
type StoreSettings struct {
	Collection       string `yaml:"collection"`
	MaxItemCount     int32  `yaml:"max_item_count"`
	MaxBatchSize     int    `yaml:"max_batch_size"`
	BatchConcurrency int    `yaml:"batch_concurrency"`
}

// LoggingSettings configure the process logger.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// Default returns settings with the store defaults filled in.
func Default() *Settings {
	def := store.DefaultConfig()
	return &Settings{
		Store: StoreSettings{
			Collection:       def.Collection,
			MaxItemCount:     def.MaxItemCount,
			MaxBatchSize:     def.MaxBatchSize,
			BatchConcurrency: def.BatchConcurrency,
		},
		Logging: LoggingSettings{Level: "info"},
	}
}

// Load reads settings from path and applies environment overrides.
// A missing file is not an error; defaults plus the environment are used.
// An empty path skips the file.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := s.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyEnvOverrides applies DOCFRONT_* environment variables.
func (s *Settings) applyEnvOverrides() error {
	if v := os.Getenv("DOCFRONT_ENDPOINT"); v != "" {
		s.Database.Endpoint = v
	}
	if v := os.Getenv("DOCFRONT_REGION"); v != "" {
		s.Database.Region = v
	}
	if v := os.Getenv("DOCFRONT_ACCESS_KEY_ID"); v != "" {
		s.Database.AccessKeyID = v
	}
	if v := os.Getenv("DOCFRONT_SECRET_ACCESS_KEY"); v != "" {
		s.Database.SecretAccessKey = v
	}
	if v := os.Getenv("DOCFRONT_COLLECTIONS"); v != "" {
		s.Database.Collections = splitList(v)
	}
	if v := os.Getenv("DOCFRONT_COLLECTION"); v != "" {
		s.Store.Collection = v
	}
	if v := os.Getenv("DOCFRONT_MAX_ITEM_COUNT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DOCFRONT_MAX_ITEM_COUNT: %w", err)
		}
		s.Store.MaxItemCount = int32(n)
	}
	if v := os.Getenv("DOCFRONT_LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Conn returns the connection settings. The store collection is always probed.
func (s *Settings) Conn() store.ConnSettings {
	collections := append([]string(nil), s.Database.Collections...)
	if c := s.Store.Collection; c != "" && !slices.Contains(collections, c) {
		collections = append(collections, c)
	}
	return store.ConnSettings{
		Endpoint:        s.Database.Endpoint,
		Region:          s.Database.Region,
		AccessKeyID:     s.Database.AccessKeyID,
		SecretAccessKey: s.Database.SecretAccessKey,
		Collections:     collections,
	}
}

// StoreConfig returns the store configuration.
func (s *Settings) StoreConfig() store.Config {
	return store.Config{
		Collection:       s.Store.Collection,
		MaxItemCount:     s.Store.MaxItemCount,
		MaxBatchSize:     s.Store.MaxBatchSize,
		BatchConcurrency: s.Store.BatchConcurrency,
	}
}
