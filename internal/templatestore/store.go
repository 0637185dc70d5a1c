// Package templatestore persists custom templates as JSON and reloads
// them when the file changes on disk.
//
// Only discovered and operator-registered templates are persisted; the
// built-in set ships in the binary and is never written to or read
// from the store, so a corrupt or stale file can never damage core
// protocol behavior.
package templatestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/aurad/internal/template"
)

// ErrMalformedStore indicates the store file exists but cannot be
// parsed.
var ErrMalformedStore = errors.New("templatestore: malformed store file")

type storeFile struct {
	Templates map[string]storedTemplate `json:"templates"`
}

type storedTemplate struct {
	Pattern   string `json:"pattern"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Load reads the template store at path.
//
// A missing file is an empty store, not an error: fresh nodes start
// with only built-ins. Entries shadowing built-in IDs are ignored.
func Load(path string) (map[uint16]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[uint16]string{}, nil
		}
		return nil, fmt.Errorf("reading template store: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStore, err)
	}

	templates := make(map[uint16]string, len(file.Templates))
	for key, entry := range file.Templates {
		id, err := strconv.ParseUint(key, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: template id %q", ErrMalformedStore, key)
		}
		if uint16(id) <= template.BuiltinMax {
			continue
		}
		templates[uint16(id)] = entry.Pattern
	}
	return templates, nil
}

// Save writes templates to path atomically (temp file plus rename).
//
// Built-in IDs are dropped, and created_at stamps from an existing
// store are carried forward so discovery ordering survives rewrites.
func Save(path string, templates map[uint16]string) error {
	existing := loadCreatedAt(path)
	now := time.Now().Unix()

	file := storeFile{Templates: make(map[string]storedTemplate, len(templates))}
	for id, pattern := range templates {
		if id <= template.BuiltinMax {
			continue
		}
		createdAt, ok := existing[id]
		if !ok {
			createdAt = now
		}
		file.Templates[strconv.FormatUint(uint64(id), 10)] = storedTemplate{
			Pattern:   pattern,
			CreatedAt: createdAt,
		}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding template store: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".templates-*.json")
	if err != nil {
		return fmt.Errorf("creating temp store: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp store: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting store permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp store: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing template store: %w", err)
	}
	return nil
}

// loadCreatedAt best-effort reads the created_at stamps of an existing
// store. Any failure just means fresh stamps.
func loadCreatedAt(path string) map[uint16]int64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil
	}

	out := make(map[uint16]int64, len(file.Templates))
	for key, entry := range file.Templates {
		id, err := strconv.ParseUint(key, 10, 16)
		if err != nil || entry.CreatedAt == 0 {
			continue
		}
		out[uint16(id)] = entry.CreatedAt
	}
	return out
}
