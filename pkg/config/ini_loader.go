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

package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"github.com/wfxiang08/zkwatcher/pkg/models"
)

var errIniTarget = errors.New("INI configuration can only be decoded into *config.Config")

// authSection is the reserved section holding registry credentials; every
// other section declares one service, keyed by the section name.
const authSection = "auth"

// IniLoader loads the legacy zk_watcher INI format:
//
//	[auth]
//	user: zkwatcher
//	password: secret
//
//	[memcache]
//	cmd: pgrep memcached
//	refresh: 30
//	service_port: 11211
//	service_hostname: 123.123.123.123
//	zookeeper_path: /services/prod-uswest1-mc
//	zookeeper_data: { "foo": "bar" }
type IniLoader struct{}

// Load implements Loader. dst must be a *Config.
func (*IniLoader) Load(_ context.Context, path string, dst interface{}) error {
	cfg, ok := dst.(*Config)
	if !ok {
		return errIniTarget
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	for _, section := range file.Sections() {
		name := section.Name()

		switch name {
		case ini.DefaultSection:
			continue
		case authSection:
			cfg.Auth = &models.Credentials{
				User:     section.Key("user").String(),
				Password: section.Key("password").String(),
			}

			continue
		}

		cfg.Services = append(cfg.Services, serviceFromSection(name, section))
	}

	return nil
}

func serviceFromSection(name string, section *ini.Section) models.ServiceDefinition {
	def := models.ServiceDefinition{
		Name:     name,
		Command:  section.Key("cmd").String(),
		Path:     section.Key("zookeeper_path").String(),
		Hostname: section.Key("service_hostname").String(),
		Port:     section.Key("service_port").MustInt(0),
	}

	if refresh := section.Key("refresh").MustInt(0); refresh > 0 {
		def.Refresh = models.Duration(time.Duration(refresh) * time.Second)
	}

	if raw := section.Key("zookeeper_data").String(); raw != "" {
		// Unparseable data degrades to no metadata, matching the original
		// daemon.
		if data, err := models.ParseMetadata(raw); err == nil {
			def.Metadata = data
		}
	}

	return def
}
