package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// canonicalPath resolves symlinks and makes path absolute. missing is true
// when the path does not exist; the cleaned absolute path is returned then.
func canonicalPath(path string) (canon string, missing bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, errors.Is(err, fs.ErrNotExist)
	}
	return resolved, false
}

// checkDistinctPaths refuses an output path that names the input file,
// including through symlinks or a not-yet-existing name in the same
// directory.
func checkDistinctPaths(in, out string) error {
	inCanon, _ := canonicalPath(in)
	outCanon, missing := canonicalPath(out)
	if inCanon == outCanon {
		return samePathError(inCanon, outCanon)
	}
	if missing {
		if dir, ok := canonicalParent(out); ok {
			if joined := filepath.Join(dir, filepath.Base(out)); joined == inCanon {
				return samePathError(inCanon, joined)
			}
		}
	}
	return nil
}

func canonicalParent(path string) (string, bool) {
	dir, missing := canonicalPath(filepath.Dir(path))
	return dir, !missing
}

func samePathError(in, out string) error {
	return fmt.Errorf("output path must be different from input path (refusing to overwrite input).\nInput:  %s\nOutput: %s", in, out)
}

// checkOutput refuses an existing output file unless force is set.
func checkOutput(out string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("output file already exists: %s (use --force to overwrite)", out)
	}
	return nil
}

// writeAtomic writes through a temporary file next to out and renames it
// into place once synced.
func writeAtomic(out string, write func(io.Writer) error) error {
	tmp := fmt.Sprintf("%s.tmp.%d", out, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %s: %w", tmp, err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}

	if err := write(f); err != nil {
		cleanup()
		return err
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temporary output file: %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close temporary output file: %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace output file: %s: %w", out, err)
	}
	return nil
}
