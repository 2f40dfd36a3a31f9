// Package gobs handles saving and loading fitted artifacts using the gob encoding.
// Every artifact is wrapped in an envelope naming its kind and carrying a
// checksum, so a truncated or swapped file fails to load instead of
// producing a silently wrong model.

package gobs

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

// Version is the envelope format version written by SaveAll.
const Version = 1

var (
	ErrCorrupt         = errors.New("artifact is corrupt")
	ErrKindMismatch    = errors.New("artifact kind mismatch")
	ErrVersionMismatch = errors.New("artifact version mismatch")
)

type envelope struct {
	Kind     string
	Version  int
	Checksum uint32
	Payload  []byte
}

// Item is one artifact to persist.
type Item struct {
	Path  string
	Kind  string
	Value any
}

func encode(kind string, v any) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	env := envelope{
		Kind:     kind,
		Version:  Version,
		Checksum: crc32.ChecksumIEEE(payload.Bytes()),
		Payload:  payload.Bytes(),
	}
	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", kind, err)
	}
	return out.Bytes(), nil
}

// writeTemp writes data next to path and returns the temporary file name.
func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmp := file.Name()
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return tmp, nil
}

// SaveAll encodes and writes every item to a temporary file before moving
// any of them into place, so a failed encode or write changes nothing.
// Each existing artifact is hard-linked aside first; when a later move
// fails, the items already moved are put back, so once SaveAll returns the
// set on disk is either entirely old or entirely new.
func SaveAll(items ...Item) error {
	temps := make([]string, 0, len(items))
	for _, it := range items {
		data, err := encode(it.Kind, it.Value)
		if err != nil {
			removeAll(temps)
			return err
		}
		tmp, err := writeTemp(it.Path, data)
		if err != nil {
			removeAll(temps)
			return err
		}
		temps = append(temps, tmp)
	}

	backups := make([]string, len(items))
	for i, it := range items {
		info, err := os.Lstat(it.Path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		backups[i] = temps[i] + ".bak"
		if err := os.Link(it.Path, backups[i]); err != nil {
			removeAll(temps)
			removeAll(backups)
			return fmt.Errorf("failed to keep previous %s: %w", it.Path, err)
		}
	}

	for i, it := range items {
		if err := os.Rename(temps[i], it.Path); err != nil {
			rollback(items[:i], backups[:i])
			removeAll(temps[i:])
			removeAll(backups)
			return fmt.Errorf("failed to move %s into place: %w", it.Path, err)
		}
	}
	removeAll(backups)
	return nil
}

// rollback restores the previous version of every moved item, or removes
// it when there was none.
func rollback(moved []Item, backups []string) {
	for i, it := range moved {
		if backups[i] == "" {
			_ = Delete(it.Path)
			continue
		}
		_ = os.Rename(backups[i], it.Path)
	}
}

func removeAll(paths []string) {
	for _, p := range paths {
		if p != "" {
			_ = Delete(p)
		}
	}
}

// Load decodes the artifact at path into v, which must be a pointer.
// It fails on a missing file, a damaged envelope, a different kind or
// version, or a checksum mismatch.
func Load(path, kind string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s artifact: %w", kind, err)
	}
	defer file.Close()

	var env envelope
	if err := gob.NewDecoder(file).Decode(&env); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	if env.Kind != kind {
		return fmt.Errorf("%s holds %q, want %q: %w", path, env.Kind, kind, ErrKindMismatch)
	}
	if env.Version != Version {
		return fmt.Errorf("%s has version %d, want %d: %w", path, env.Version, Version, ErrVersionMismatch)
	}
	if crc32.ChecksumIEEE(env.Payload) != env.Checksum {
		return fmt.Errorf("%s: checksum mismatch: %w", path, ErrCorrupt)
	}
	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(v); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	return nil
}

// Delete removes an artifact file.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}
