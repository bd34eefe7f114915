// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads the one credential this pipeline keeps out of
// its config file: the redaction salt mixed into every name and
// publication-id hash in the trace log. The salt lives in a plain-text
// file (.secrets/redaction-salt) so it never ships inside a committed
// disambiguation.yaml or appears on a process command line.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaltFile is the filename the redaction salt is read from within the
// secrets directory.
const SaltFile = "redaction-salt"

// Secrets is the secret material loaded once at driver startup.
type Secrets struct {
	// RedactionSalt is concatenated with plaintext before hashing into
	// trace records. Empty when no salt file exists: redaction still
	// works, but the hashes are then reproducible by anyone who can
	// guess the input names.
	RedactionSalt string
}

// Load reads the salt file under dir. A missing directory or file is
// not an error; the salt defaults to empty. The value is trimmed and
// must be a single line.
func Load(dir string) (Secrets, error) {
	data, err := os.ReadFile(filepath.Join(dir, SaltFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return Secrets{}, fmt.Errorf("reading secret %s: %w", SaltFile, err)
	}

	salt := strings.TrimSpace(string(data))
	if strings.ContainsAny(salt, "\r\n") {
		return Secrets{}, fmt.Errorf("secret %s must be a single line", SaltFile)
	}
	return Secrets{RedactionSalt: salt}, nil
}
