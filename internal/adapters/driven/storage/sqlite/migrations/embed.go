// Package migrations holds the history schema as numbered SQL files.
//
// Files are named NNN_description.up.sql / NNN_description.down.sql. Only
// up files are applied automatically; down files document how to revert.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed *.sql
var files embed.FS

const upSuffix = ".up.sql"

// Migration is one schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Pending returns the up migrations newer than current, oldest first.
func Pending(current int) ([]Migration, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var pending []Migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, upSuffix) {
			continue
		}
		version, err := parseVersion(name)
		if err != nil {
			return nil, err
		}
		if version <= current {
			continue
		}
		body, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}
		pending = append(pending, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })
	return pending, nil
}

// parseVersion reads the numeric prefix of "001_history.up.sql".
func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("migration %s: invalid version %q", name, prefix)
	}
	return version, nil
}
