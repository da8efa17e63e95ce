// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// machineID returns a stable identifier for this machine, used to
// namespace version files so that two machines syncing the same
// directory never produce the same file name. On Linux this is
// /etc/machine-id; elsewhere (or when unreadable) a UUID is generated
// once and persisted under the user config directory.
var machineID = sync.OnceValues(func() (string, error) {
	if data, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return persistedMachineID()
})

// persistedMachineID loads the fallback identity file, generating and
// storing a fresh UUID on first use.
func persistedMachineID() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	idPath := filepath.Join(configDir, "memex", "machine-id")

	if data, err := os.ReadFile(idPath); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := os.MkdirAll(filepath.Dir(idPath), 0o755); err != nil {
		return "", fmt.Errorf("creating machine identity directory: %w", err)
	}
	if err := os.WriteFile(idPath, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("persisting machine identity: %w", err)
	}
	return id, nil
}
