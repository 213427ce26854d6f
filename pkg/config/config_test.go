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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfxiang08/zkwatcher/pkg/models"
	"github.com/wfxiang08/zkwatcher/pkg/registry"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"registry": {
			"backend": "zookeeper",
			"server": "zk1:2181,zk2:2181",
			"session_timeout": "10s"
		},
		"auth": {"user": "svc", "password": "secret"},
		"probe_timeout": "90s",
		"services": [
			{
				"name": "memcache",
				"command": "pgrep memcached",
				"refresh": "30s",
				"path": "/services/mc",
				"hostname": "mc1.example.com",
				"port": 11211,
				"metadata": {"region": "uswest1"}
			},
			{
				"name": "redis",
				"command": "redis-cli ping",
				"path": "/services/redis",
				"hostname": "mc1.example.com",
				"port": 6379,
				"metadata": "weight=10, zone=a"
			}
		]
	}`)

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, registry.BackendZooKeeper, cfg.Registry.Backend)
	assert.Equal(t, "zk1:2181,zk2:2181", cfg.Registry.Server)
	assert.Equal(t, models.Duration(10*time.Second), cfg.Registry.SessionTimeout)

	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "svc", cfg.Auth.User)

	assert.Equal(t, models.Duration(90*time.Second), cfg.ProbeTimeout)

	require.Len(t, cfg.Services, 2)

	mc := cfg.Services[0]
	assert.Equal(t, "memcache", mc.Name)
	assert.Equal(t, models.Duration(30*time.Second), mc.Refresh)
	assert.Equal(t, models.Metadata{"region": "uswest1"}, mc.Metadata)

	// Legacy key=value metadata string decodes into the same canonical map.
	assert.Equal(t, models.Metadata{"weight": "10", "zone": "a"}, cfg.Services[1].Metadata)
}

func TestLoadLegacyIniConfig(t *testing.T) {
	path := writeConfig(t, "config.cfg", `
[auth]
user: zkwatcher
password: hunter2

[memcache]
cmd: pgrep memcached
refresh: 30
service_port: 11211
service_hostname: 123.123.123.123
zookeeper_path: /services/prod-uswest1-mc
zookeeper_data: { "foo": "bar", "bar": "foo" }

[mysql]
cmd: mysqladmin ping
refresh: 15
service_port: 3306
zookeeper_path: /services/prod-uswest1-mysql
zookeeper_data: foo=bar, bar=foo
`)

	old := systemHostname
	systemHostname = func() string { return "db1.example.com" }

	defer func() { systemHostname = old }()

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Auth)
	assert.Equal(t, "zkwatcher", cfg.Auth.User)
	assert.Equal(t, "hunter2", cfg.Auth.Password)

	require.Len(t, cfg.Services, 2)

	mc := cfg.Services[0]
	assert.Equal(t, "memcache", mc.Name)
	assert.Equal(t, "pgrep memcached", mc.Command)
	assert.Equal(t, models.Duration(30*time.Second), mc.Refresh)
	assert.Equal(t, 11211, mc.Port)
	assert.Equal(t, "123.123.123.123", mc.Hostname)
	assert.Equal(t, "/services/prod-uswest1-mc", mc.Path)
	assert.Equal(t, models.Metadata{"foo": "bar", "bar": "foo"}, mc.Metadata)

	// Missing service_hostname falls back to the local FQDN.
	mysql := cfg.Services[1]
	assert.Equal(t, "db1.example.com", mysql.Hostname)
	assert.Equal(t, models.Metadata{"foo": "bar", "bar": "foo"}, mysql.Metadata)
}

func TestIniLoaderRejectsWrongTarget(t *testing.T) {
	path := writeConfig(t, "config.ini", "[svc]\ncmd: true\n")

	var wrong map[string]string

	err := (&IniLoader{}).Load(context.Background(), path, &wrong)
	assert.ErrorIs(t, err, errIniTarget)
}

func TestLoaderSelectionByExtension(t *testing.T) {
	tests := []struct {
		path    string
		wantIni bool
	}{
		{"/etc/zkwatcher/config.json", false},
		{"/etc/zk/config.cfg", true},
		{"/etc/zk/config.ini", true},
		{"/etc/zk/config.conf", true},
		{"/etc/zkwatcher/config", false},
	}

	for _, tt := range tests {
		_, isIni := loaderFor(tt.path).(*IniLoader)
		assert.Equal(t, tt.wantIni, isIni, "path %q", tt.path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeConfig(t, "config.json", "{not json")

	_, err := Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")
}

func TestFileSourceReparsesOnEveryLoad(t *testing.T) {
	path := writeConfig(t, "config.json", `{"services": [
		{"name": "a", "command": "true", "path": "/s/a", "hostname": "h", "port": 1}
	]}`)

	source := NewFileSource(path)

	defs, creds, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].Name)

	require.NoError(t, os.WriteFile(path, []byte(`{"services": [
		{"name": "a", "command": "true", "path": "/s/a", "hostname": "h", "port": 1},
		{"name": "b", "command": "true", "path": "/s/b", "hostname": "h", "port": 2}
	]}`), 0o600))

	defs, _, err = source.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}
