package config

import (
	"github.com/mvp-joe/triumph-js/internal/indexer"
	"github.com/mvp-joe/triumph-js/internal/parser"
)

// Config represents the complete triumph-js configuration.
// It can be loaded from .triumph/config.yml with environment variable overrides.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Indexer IndexerConfig `yaml:"indexer" mapstructure:"indexer"`
	Parser  ParserConfig  `yaml:"parser" mapstructure:"parser"`
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// StorageConfig defines where the index is written.
type StorageConfig struct {
	Output string `yaml:"output" mapstructure:"output"` // SQLite file; empty means it must be given on the command line
}

// IndexerConfig tunes the driver.
type IndexerConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // concurrent parsers, 0 = one per CPU
}

// ParserConfig bounds the parser.
type ParserConfig struct {
	MaxFileSize int `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.js",
				"**/*.mjs",
				"**/*.cjs",
			},
			Ignore: []string{
				"node_modules/**",
				"bower_components/**",
				".git/**",
				"dist/**",
				"build/**",
				"coverage/**",
				"**/*.min.js",
			},
		},
		Storage: StorageConfig{
			Output: "",
		},
		Indexer: IndexerConfig{
			Workers: 0,
		},
		Parser: ParserConfig{
			MaxFileSize: parser.DefaultMaxFileSize,
		},
	}
}

// ToIndexerConfig converts a Config to an indexer.Config.
func (c *Config) ToIndexerConfig() indexer.Config {
	return indexer.Config{
		Workers:         c.Indexer.Workers,
		IncludePatterns: c.Paths.Include,
		IgnorePatterns:  c.Paths.Ignore,
	}
}

// ParserOptions converts the parser section to parser options.
func (c *Config) ParserOptions() []parser.Option {
	return []parser.Option{parser.WithMaxFileSize(c.Parser.MaxFileSize)}
}
