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

	"github.com/wfxiang08/zkwatcher/pkg/models"
)

// FileSource adapts a configuration file into the supervisor's Source: each
// Load is a fresh parse, so a reload picks up whatever is on disk now.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(ctx context.Context) ([]models.ServiceDefinition, *models.Credentials, error) {
	cfg, err := Load(ctx, s.path)
	if err != nil {
		return nil, nil, err
	}

	return cfg.Services, cfg.Auth, nil
}
