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

// Package watcher keeps a set of health-check workers reconciled against the
// configured service definitions and publishes each service's liveness to
// the registry.
package watcher

//go:generate mockgen -destination=mock_watcher.go -package=watcher github.com/wfxiang08/zkwatcher/pkg/watcher Clock,Ticker,Source

import (
	"context"
	"time"

	"github.com/wfxiang08/zkwatcher/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// Source produces a fresh configuration snapshot. The supervisor calls Load
// once at startup and again on every reload trigger.
type Source interface {
	Load(ctx context.Context) ([]models.ServiceDefinition, *models.Credentials, error)
}
