package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	errNameRequired     = errors.New("service name is required")
	errCommandRequired  = errors.New("service command is required")
	errPathRequired     = errors.New("registration path is required")
	errPathInvalid      = errors.New("registration path must be absolute and must not end with '/'")
	errHostnameRequired = errors.New("service hostname is required")
	errPortInvalid      = errors.New("service port must be between 1 and 65535")
)

const (
	defaultRefresh = 15 * time.Second
	minRefresh     = time.Second
	maxPort        = 65535
)

// ServiceDefinition declares a single health check and the registration
// entry it maintains.
type ServiceDefinition struct {
	Name     string   `json:"name,omitempty"`
	Command  string   `json:"command"`
	Refresh  Duration `json:"refresh,omitempty"`
	Path     string   `json:"path"`
	Hostname string   `json:"hostname,omitempty"`
	Port     int      `json:"port"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Validate implements the config.Validator interface. It fills defaults for
// optional fields and rejects definitions that cannot be watched.
func (s *ServiceDefinition) Validate() error {
	if s.Name == "" {
		return errNameRequired
	}

	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("%w: service %q", errCommandRequired, s.Name)
	}

	if s.Path == "" {
		return fmt.Errorf("%w: service %q", errPathRequired, s.Name)
	}

	if !strings.HasPrefix(s.Path, "/") || (len(s.Path) > 1 && strings.HasSuffix(s.Path, "/")) {
		return fmt.Errorf("%w: service %q has path %q", errPathInvalid, s.Name, s.Path)
	}

	if s.Hostname == "" {
		return fmt.Errorf("%w: service %q", errHostnameRequired, s.Name)
	}

	if s.Port < 1 || s.Port > maxPort {
		return fmt.Errorf("%w: service %q has port %d", errPortInvalid, s.Name, s.Port)
	}

	if s.Refresh == 0 {
		s.Refresh = Duration(defaultRefresh)
	} else if time.Duration(s.Refresh) < minRefresh {
		s.Refresh = Duration(minRefresh)
	}

	return nil
}

// FullPath is the registration entry for this service:
// path + "/" + hostname + ":" + port.
func (s *ServiceDefinition) FullPath() string {
	return s.Path + "/" + s.Hostname + ":" + strconv.Itoa(s.Port)
}

// SameIdentity reports whether two definitions register the same entry.
// Definitions that differ only in command, refresh, or metadata can be
// updated in place; identity changes require a new registration.
func (s *ServiceDefinition) SameIdentity(other *ServiceDefinition) bool {
	return s.Path == other.Path &&
		s.Hostname == other.Hostname &&
		s.Port == other.Port
}

// Credentials carries registry authentication.
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}
