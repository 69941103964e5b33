// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the server configuration: embedded YAML
// defaults, an optional config file layered on top, then environment
// variable overrides.
//
// # Thread Safety
//
// A loaded Config is immutable; share it freely.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize bounds config files to keep parse costs trivial.
const MaxYAMLFileSize = 1 << 20

//go:embed defaults.yaml
var defaultsYAML []byte

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// Debug enables Gin debug mode and request logging.
	Debug bool `yaml:"debug"`
}

// UploadConfig bounds archive uploads and their extraction.
type UploadConfig struct {
	// MaxUploadMB caps the multipart upload body, in MiB.
	MaxUploadMB int `yaml:"max_upload_mb"`

	// WorkDir is where unpacked projects live. Empty means a
	// subdirectory of the OS temp dir.
	WorkDir string `yaml:"work_dir"`

	// MaxArchiveFiles caps entries in one archive.
	MaxArchiveFiles int `yaml:"max_archive_files"`

	// MaxArchiveMB caps the total unpacked size, in MiB.
	MaxArchiveMB int `yaml:"max_archive_mb"`
}

// BuildConfig bounds graph construction.
type BuildConfig struct {
	// ExtractWorkers is the parser worker pool size.
	ExtractWorkers int `yaml:"extract_workers"`

	// MaxCachedProjects caps the in-memory project LRU.
	MaxCachedProjects int `yaml:"max_cached_projects"`

	// MaxNodes truncates builds past this node count.
	MaxNodes int `yaml:"max_nodes"`

	// MaxEdges truncates builds past this edge count.
	MaxEdges int `yaml:"max_edges"`
}

// QAConfig configures the optional Weaviate-backed question answering.
type QAConfig struct {
	// WeaviateURL is the vector store endpoint. Empty disables QA.
	WeaviateURL string `yaml:"weaviate_url"`

	// Vectorizer is the Weaviate vectorizer module name.
	Vectorizer string `yaml:"vectorizer"`
}

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Upload UploadConfig `yaml:"upload"`
	Build  BuildConfig  `yaml:"build"`
	QA     QAConfig     `yaml:"qa"`
}

// Default returns the embedded default configuration with environment
// overrides applied.
func Default() (*Config, error) {
	return Load(defaultsYAML)
}

// LoadFile reads a YAML config file, layers it over the embedded
// defaults, and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("config file exceeds maximum size (%d > %d)", info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return Load(data)
}

// Load parses YAML bytes over the embedded defaults, applies
// environment overrides, and validates the result.
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides layers environment variables over the parsed file.
// Variables win over the file so containers can tune a baked-in config.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt("RIPPLE_PORT"); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv("RIPPLE_DEBUG"); v != "" {
		cfg.Server.Debug = v == "1" || v == "true"
	}
	if v := os.Getenv("RIPPLE_WORK_DIR"); v != "" {
		cfg.Upload.WorkDir = v
	}
	if v, ok := envInt("RIPPLE_MAX_UPLOAD_MB"); ok {
		cfg.Upload.MaxUploadMB = v
	}
	if v, ok := envInt("RIPPLE_EXTRACT_WORKERS"); ok {
		cfg.Build.ExtractWorkers = v
	}
	if v, ok := envInt("RIPPLE_MAX_CACHED_PROJECTS"); ok {
		cfg.Build.MaxCachedProjects = v
	}
	if v := os.Getenv("WEAVIATE_URL"); v != "" {
		cfg.QA.WeaviateURL = v
	}
	if v := os.Getenv("WEAVIATE_VECTORIZER"); v != "" {
		cfg.QA.Vectorizer = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// validate rejects configurations that cannot serve requests.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Upload.MaxUploadMB < 1 {
		return fmt.Errorf("upload.max_upload_mb %d must be positive", cfg.Upload.MaxUploadMB)
	}
	if cfg.Upload.MaxArchiveFiles < 1 {
		return fmt.Errorf("upload.max_archive_files %d must be positive", cfg.Upload.MaxArchiveFiles)
	}
	if cfg.Upload.MaxArchiveMB < 1 {
		return fmt.Errorf("upload.max_archive_mb %d must be positive", cfg.Upload.MaxArchiveMB)
	}
	if cfg.Build.ExtractWorkers < 1 {
		return fmt.Errorf("build.extract_workers %d must be positive", cfg.Build.ExtractWorkers)
	}
	if cfg.Build.MaxCachedProjects < 1 {
		return fmt.Errorf("build.max_cached_projects %d must be positive", cfg.Build.MaxCachedProjects)
	}
	if cfg.Build.MaxNodes < 1 || cfg.Build.MaxEdges < 1 {
		return fmt.Errorf("build limits must be positive (nodes=%d, edges=%d)", cfg.Build.MaxNodes, cfg.Build.MaxEdges)
	}
	return nil
}
