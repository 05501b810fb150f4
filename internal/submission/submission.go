// Package submission locates and unpacks student submission archives.
// Extraction guards against path traversal: the archive contents are
// guaranteed to land inside the destination directory, so downstream
// components can trust the paths they are handed.
package submission

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoArchive means no zip for the roll number exists in the
	// submissions directory.
	ErrNoArchive = errors.New("no submission archive found")
	// ErrNoSource means the extracted submission has no file for the
	// requested question.
	ErrNoSource = errors.New("no source file for question")
)

// sourceExtensions are the file types a submission may contain for grading.
var sourceExtensions = []string{".c", ".cpp"}

// FindArchive returns the path of the first zip in dir whose name
// contains the roll number.
func FindArchive(dir, rollNumber string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading submissions dir: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.Contains(name, rollNumber) && strings.HasSuffix(name, ".zip") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("%w for %s in %s", ErrNoArchive, rollNumber, dir)
}

// Extract unpacks zipPath under destDir, preserving the archive's
// directory structure. macOS resource directories, bare directory
// entries, and any name containing a parent-traversal segment are
// skipped; an entry that would resolve outside destDir is an error.
func Extract(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer reader.Close()

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	for _, f := range reader.File {
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if strings.Contains(f.Name, "..") {
			continue
		}

		target := filepath.Join(absDest, f.Name)
		if target != absDest && !strings.HasPrefix(target, absDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", f.Name)
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return nil
}

// MatchSource returns the first C/C++ file in dir named for the
// question, e.g. Q3*.c or Q3*.cpp for question "3".
func MatchSource(dir, question string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading submission dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	prefix := "Q" + question
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, ext := range sourceExtensions {
			if strings.HasSuffix(name, ext) {
				return filepath.Join(dir, name), nil
			}
		}
	}
	return "", fmt.Errorf("%w %s in %s", ErrNoSource, question, dir)
}
