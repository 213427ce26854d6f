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
	"net"
	"os"
	"strings"
)

// defaultHostname resolves the machine's fully qualified hostname, falling
// back to the bare hostname when reverse lookup yields nothing.
func defaultHostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return host
	}

	for _, addr := range addrs {
		names, err := net.LookupAddr(addr)
		if err != nil || len(names) == 0 {
			continue
		}

		return strings.TrimSuffix(names[0], ".")
	}

	return host
}
