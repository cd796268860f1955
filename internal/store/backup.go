package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const backupSuffix = ".json.zst"

// Backups keeps zstd-compressed copies of replaced state files in dir.
type Backups struct {
	dir  string
	keep int
	now  func() time.Time
}

// NewBackups keeps at most keep files in dir. keep <= 0 keeps everything.
func NewBackups(dir string, keep int) *Backups {
	return &Backups{dir: dir, keep: keep, now: time.Now}
}

// Backup compresses src into the backup directory and prunes old copies.
// It returns the backup name, or "" when src does not exist.
func (b *Backups) Backup(src string) (string, error) {
	in, err := os.Open(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := fmt.Sprintf("%s-%s%s", stem, b.now().UTC().Format("20060102T150405.000000000Z"), backupSuffix)

	out, err := os.Create(filepath.Join(b.dir, name))
	if err != nil {
		return "", err
	}
	enc, err := zstd.NewWriter(out)
	if err != nil {
		_ = out.Close()
		return "", err
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		_ = out.Close()
		return "", fmt.Errorf("failed to compress backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return name, b.prune()
}

// List returns backup names, oldest first.
func (b *Backups) List() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), backupSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the decompressed content of backup name.
func (b *Backups) Read(name string) ([]byte, error) {
	in, err := os.Open(filepath.Join(b.dir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
	}
	return data, nil
}

func (b *Backups) prune() error {
	if b.keep <= 0 {
		return nil
	}
	names, err := b.List()
	if err != nil {
		return err
	}
	for len(names) > b.keep {
		if err := os.Remove(filepath.Join(b.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
