package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/gofhir/qconvert"
)

const (
	stdinName      = "-"
	lockRetryDelay = 50 * time.Millisecond
)

// input is one file to convert.
type input struct {
	Path        string
	Data        []byte
	Fingerprint string
}

// expandInputs resolves glob patterns. "-" is passed through for stdin.
func expandInputs(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if p == stdinName {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", p)
		}
		out = append(out, matches...)
	}
	return out, nil
}

// readInput reads a .json or .json.xz file, or stdin for "-".
func readInput(path string, stdin io.Reader) (*input, error) {
	var r io.Reader
	if path == stdinName {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &input{Path: path, Data: data, Fingerprint: fingerprint(data)}, nil
}

// fingerprint returns the BLAKE3 digest of the decompressed input.
func fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}

// outputPath names the converted file: <dir>/<name>.<to>.json, where dir
// defaults to the input's directory.
func outputPath(inPath, outDir string, to qconvert.FHIRVersion) string {
	base := filepath.Base(inPath)
	base = strings.TrimSuffix(base, ".xz")
	base = strings.TrimSuffix(base, ".json")
	if outDir == "" {
		outDir = filepath.Dir(inPath)
	}
	return filepath.Join(outDir, base+"."+to.String()+".json")
}

// writeOutput writes indented JSON to path under a lock file, replacing
// the file atomically so concurrent runs never see a partial result.
func writeOutput(ctx context.Context, path string, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("format %s: %w", path, err)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock on %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
