/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/registry"
	"gopkg.in/yaml.v3"
)

// Supported engine names
const (
	EngineMemory   = "memory"
	EngineMongo    = "mongo"
	EngineDynamoDB = "dynamodb"
)

// Config is the file-level configuration of a set of gateways.
type Config struct {
	Engine   string                 `yaml:"engine"`
	LogLevel string                 `yaml:"log_level"`
	Mongo    MongoConfig            `yaml:"mongo"`
	DynamoDB DynamoDBConfig         `yaml:"dynamodb"`
	Models   map[string]ModelConfig `yaml:"models"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DynamoDBConfig holds DynamoDB connection and scan settings
type DynamoDBConfig struct {
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	TableName       string        `yaml:"table_name"`
	Endpoint        string        `yaml:"endpoint"`
	GSI             *GSIConfig    `yaml:"gsi"`
	PageSize        int32         `yaml:"page_size"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

// GSIConfig names the secondary index used to list a collection
type GSIConfig struct {
	IndexName        string `yaml:"index_name"`
	PartitionKeyName string `yaml:"partition_key"`
	SortKeyName      string `yaml:"sort_key"`
}

// ModelConfig declares one model.
//
//	models:
//	  posts:
//	    collection: posts
//	    refs:
//	      tags: tags
//	    keys:
//	      PK: "POST#{_id}"
//	      SK: "POST#{_id}"
//	    relations:
//	      tags: populate
//	      author: {path: _id, transform: string}
type ModelConfig struct {
	Collection string                         `yaml:"collection"`
	Refs       map[string]string              `yaml:"refs"`
	Keys       map[string]string              `yaml:"keys"`
	Relations  map[string]registry.Definition `yaml:"relations"`
}

// CollectionName returns the collection of the model named name
func (m ModelConfig) CollectionName(name string) string {
	if m.Collection != "" {
		return m.Collection
	}
	return name
}

// Load reads a configuration file. A .env file next to the working
// directory is loaded first when present, then ${VAR} references in the file
// are expanded and environment overrides applied.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML, expanding ${VAR} references,
// applying environment overrides and defaults, then validating the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyEnv()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from well-known environment variables
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.Engine, "RECORDGATEWAY_ENGINE")
	override(&c.LogLevel, "LOG_LEVEL")
	override(&c.Mongo.URI, "MONGO_URI")
	override(&c.Mongo.Database, "MONGO_DATABASE")
	override(&c.DynamoDB.Region, "AWS_REGION")
	override(&c.DynamoDB.AccessKeyID, "AWS_ACCESS_KEY_ID")
	override(&c.DynamoDB.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	override(&c.DynamoDB.TableName, "DDB_TABLE_NAME")
	override(&c.DynamoDB.Endpoint, "DDB_ENDPOINT")
}

func (c *Config) setDefaults() {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if c.Engine == "" {
		c.Engine = EngineMemory
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Mongo.ConnectTimeout == 0 {
		c.Mongo.ConnectTimeout = 10 * time.Second
	}
}

// Validate checks that the selected engine has what it needs
func (c *Config) Validate() error {
	switch c.Engine {
	case EngineMemory:
	case EngineMongo:
		if c.Mongo.URI == "" {
			return errors.NewConfigurationError("", "mongo.uri is required for the mongo engine")
		}
		if c.Mongo.Database == "" {
			return errors.NewConfigurationError("", "mongo.database is required for the mongo engine")
		}
	case EngineDynamoDB:
		if c.DynamoDB.TableName == "" {
			return errors.NewConfigurationError("", "dynamodb.table_name is required for the dynamodb engine")
		}
		if c.DynamoDB.Region == "" {
			return errors.NewConfigurationError("", "dynamodb.region is required for the dynamodb engine")
		}
	default:
		return errors.NewConfigurationError("", fmt.Sprintf("unknown engine %q", c.Engine))
	}

	for _, name := range c.ModelNames() {
		m := c.Models[name]
		if c.Engine == EngineDynamoDB && len(m.Keys) == 0 {
			return errors.NewConfigurationError("", fmt.Sprintf("model %s: keys are required for the dynamodb engine", name))
		}
		if _, err := registry.Compile(m.Relations); err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
	}
	return nil
}

// ModelNames returns the configured model names in sorted order
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
