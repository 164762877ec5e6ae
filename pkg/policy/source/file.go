package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileSourceConfig contains configuration for a FileSource.
type FileSourceConfig struct {
	// Path is the policy file or directory to load from.
	Path string

	// Extensions is the list of file extensions to load (default ".rego").
	Extensions []string

	// MaxFileSize is the per-file size limit in bytes (default 10MB).
	MaxFileSize int64

	// SkipHidden controls whether hidden files and directories are skipped.
	SkipHidden bool
}

// DefaultFileSourceConfig returns the default file source configuration.
func DefaultFileSourceConfig() *FileSourceConfig {
	return &FileSourceConfig{
		Extensions:  []string{".rego"},
		MaxFileSize: 10 * 1024 * 1024, // 10MB
		SkipHidden:  true,
	}
}

// FileSource loads policies from a file or directory tree. Policy names
// are paths relative to the configured root, so inventories and
// coverage reports line up with the on-disk layout.
type FileSource struct {
	config *FileSourceConfig
}

// NewFileSource creates a file source for the given path.
func NewFileSource(path string, config *FileSourceConfig) *FileSource {
	if config == nil {
		config = DefaultFileSourceConfig()
	}
	config.Path = path
	return &FileSource{config: config}
}

// LoadPolicies reads every policy file under the configured path.
func (s *FileSource) LoadPolicies(ctx context.Context) (map[string]string, error) {
	info, err := os.Stat(s.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: s.config.Path, Message: "path not found", Cause: err}
		}
		return nil, &LoadError{FilePath: s.config.Path, Message: "failed to access path", Cause: err}
	}

	if !info.IsDir() {
		source, err := s.readPolicyFile(s.config.Path)
		if err != nil {
			return nil, err
		}
		return map[string]string{filepath.Base(s.config.Path): source}, nil
	}

	files, err := s.collectPolicyFiles(ctx)
	if err != nil {
		return nil, err
	}

	policies := make(map[string]string, len(files))
	for _, path := range files {
		source, err := s.readPolicyFile(path)
		if err != nil {
			return nil, err
		}

		name, err := filepath.Rel(s.config.Path, path)
		if err != nil {
			name = filepath.Base(path)
		}
		policies[filepath.ToSlash(name)] = source
	}

	return policies, nil
}

// collectPolicyFiles walks the directory tree gathering policy paths.
func (s *FileSource) collectPolicyFiles(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.config.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != s.config.Path {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !s.hasValidExtension(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	if err != nil {
		return nil, &LoadError{FilePath: s.config.Path, Message: "failed to walk directory", Cause: err}
	}

	return files, nil
}

// readPolicyFile reads one policy file with size and encoding checks.
func (s *FileSource) readPolicyFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}

	if !info.Mode().IsRegular() {
		return "", &LoadError{FilePath: path, Message: "not a regular file"}
	}

	if info.Size() > s.config.MaxFileSize {
		return "", &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), s.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	if !utf8.Valid(data) {
		return "", &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	return string(data), nil
}

// hasValidExtension checks the file extension against the configured list.
func (s *FileSource) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range s.config.Extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// LoadError represents a failure to load policy files from disk.
type LoadError struct {
	// FilePath is the path that failed to load
	FilePath string

	// Message describes the error
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load policy file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load policy file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}
