package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Security errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
)

// MaxFileSize is the largest attachment that will be staged (1 GB)
const MaxFileSize = 1 << 30

// FileStorage keeps downloaded attachment content on disk until it is uploaded again
type FileStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Resolve(filePath string) (string, error)
	Delete(filePath string) error
}

// localStorage implements FileStorage using local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) (FileStorage, error) {
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// validatePath ensures path is within basePath (prevents traversal)
func (s *localStorage) validatePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(cleanPath) || cleanPath == ".." ||
		strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// Save writes content under a fresh directory and keeps the original base
// name, so the uploaded multipart part carries the attachment's real name.
// It returns the path relative to the staging root.
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		name = "attachment"
	}

	dir := uuid.New().String()
	if err := os.MkdirAll(filepath.Join(s.basePath, dir), 0700); err != nil {
		return "", fmt.Errorf("failed to create staging subdirectory: %w", err)
	}

	relPath := filepath.Join(dir, name)
	fullPath := filepath.Join(s.basePath, relPath)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, io.LimitReader(content, MaxFileSize+1))
	if err == nil && written > MaxFileSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		file.Close()
		os.RemoveAll(filepath.Join(s.basePath, dir))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return relPath, nil
}

// Get opens a staged file
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Resolve returns the absolute path of a staged file
func (s *localStorage) Resolve(filePath string) (string, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return fullPath, nil
}

// Delete removes a staged file together with its per-file directory
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// The per-file directory is removed only when empty.
	dir := filepath.Dir(fullPath)
	if absBase, err := filepath.Abs(s.basePath); err == nil && dir != absBase {
		_ = os.Remove(dir)
	}

	return nil
}
