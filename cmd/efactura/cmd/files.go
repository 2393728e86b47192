package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rezonia/efactura-editor/internal/editor"
)

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		// Check if it's a glob pattern
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				// Files named explicitly are taken whatever their extension
				if match == arg || isXMLFile(match) {
					files = append(files, match)
				}
				continue
			}
			err = filepath.Walk(match, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isXMLFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isXMLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// loadFile reads a UBL document into a new session
func loadFile(path string) (*editor.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session := newSession()
	if err := session.LoadXML(ctx, data); err != nil {
		return nil, err
	}
	printVerbose("loaded %s (%d lines)\n", path, len(session.Invoice().Lines))
	return session, nil
}

// writeOutput writes data to out, or to name next to the source file when out is empty
func writeOutput(source, out, name string, data []byte) (string, error) {
	if out == "" {
		out = filepath.Join(filepath.Dir(source), name)
	}
	if filepath.Clean(out) == filepath.Clean(source) {
		return "", fmt.Errorf("refusing to overwrite the source file %s", source)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
