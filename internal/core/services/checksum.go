package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// checksumLength is the number of hex characters kept from the digest.
const checksumLength = 16

// Checksum fingerprints the contents of a skill's declared source files.
// Sources are hashed in sorted order so declaration order never matters.
// Missing sources are skipped.
func Checksum(fsys afero.Fs, skill *domain.Skill) (string, error) {
	contents, err := readSources(fsys, skill)
	if err != nil {
		return "", err
	}
	return checksumOf(skill, contents), nil
}

// readSources loads every declared source that exists, keyed by source path.
func readSources(fsys afero.Fs, skill *domain.Skill) (map[string][]byte, error) {
	contents := make(map[string][]byte, len(skill.Files))
	for _, f := range skill.Files {
		if _, ok := contents[f.Source]; ok {
			continue
		}
		data, err := afero.ReadFile(fsys, filepath.Join(skill.SourceDir, f.Source))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", f.Source, err)
		}
		contents[f.Source] = data
	}
	return contents, nil
}

func checksumOf(skill *domain.Skill, contents map[string][]byte) string {
	hasher := sha256.New()
	for _, src := range skill.SortedSources() {
		if data, ok := contents[src]; ok {
			hasher.Write(data)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil))[:checksumLength]
}
