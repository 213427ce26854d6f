/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads the daemon's configuration. JSON is the primary
// format; the legacy INI format of the original zk_watcher is kept as a
// drop-in fallback, selected by file extension.
package config

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/wfxiang08/zkwatcher/pkg/logger"
	"github.com/wfxiang08/zkwatcher/pkg/models"
	"github.com/wfxiang08/zkwatcher/pkg/registry"
)

// Loader loads configuration from a path into dst.
type Loader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Config is the daemon's full configuration file.
type Config struct {
	Registry     registry.Config            `json:"registry"`
	Auth         *models.Credentials        `json:"auth,omitempty"`
	ProbeTimeout models.Duration            `json:"probe_timeout,omitempty"`
	Logging      *logger.Config             `json:"logging,omitempty"`
	Services     []models.ServiceDefinition `json:"services"`
}

// systemHostname is swapped out in tests.
var systemHostname = defaultHostname

// Validate fills per-service defaults that need the environment: a service
// without an explicit hostname registers under the machine's fully
// qualified hostname. Per-service validation deliberately stays out; the
// supervisor skips invalid definitions one by one instead of rejecting the
// whole file.
func (c *Config) Validate() error {
	var host string

	for i := range c.Services {
		if c.Services[i].Hostname != "" {
			continue
		}

		if host == "" {
			host = systemHostname()
		}

		c.Services[i].Hostname = host
	}

	return nil
}

// loaderFor selects the loader by file extension: .cfg, .ini, and .conf are
// the legacy INI format, everything else is JSON.
func loaderFor(path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cfg", ".ini", ".conf":
		return &IniLoader{}
	default:
		return &FileLoader{}
	}
}

// Load reads, decodes, and validates the configuration file at path.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}

	if err := loaderFor(path).Load(ctx, path, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
