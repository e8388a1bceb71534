package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zpam/sms-filter/pkg/errs"
)

// Default artifact file names
const (
	DefaultVectorizerFile = "vectorizer.json"
	DefaultClassifierFile = "spam_model.json"
)

// rename is swapped out in tests to simulate a failed second rename.
var rename = os.Rename

// FileStore keeps the two artifacts side by side in a directory.
type FileStore struct {
	Dir            string
	VectorizerFile string
	ClassifierFile string
}

// NewFileStore creates a file store, filling in default file names
func NewFileStore(dir, vectorizerFile, classifierFile string) *FileStore {
	if dir == "" {
		dir = "."
	}
	if vectorizerFile == "" {
		vectorizerFile = DefaultVectorizerFile
	}
	if classifierFile == "" {
		classifierFile = DefaultClassifierFile
	}
	return &FileStore{Dir: dir, VectorizerFile: vectorizerFile, ClassifierFile: classifierFile}
}

// VectorizerPath returns the vectorizer artifact path
func (fs *FileStore) VectorizerPath() string {
	return filepath.Join(fs.Dir, fs.VectorizerFile)
}

// ClassifierPath returns the classifier artifact path
func (fs *FileStore) ClassifierPath() string {
	return filepath.Join(fs.Dir, fs.ClassifierFile)
}

// Describe names the store for logs
func (fs *FileStore) Describe() string {
	return fmt.Sprintf("file:%s,%s", fs.VectorizerPath(), fs.ClassifierPath())
}

// Save writes both artifacts to temp files, then renames them into place.
// If the classifier rename fails the previous vectorizer is restored.
func (fs *FileStore) Save(ctx context.Context, b *Bundle) error {
	vec, cls, err := b.Encode()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(fs.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	vecTmp, err := writeTemp(fs.Dir, fs.VectorizerFile, vec)
	if err != nil {
		return err
	}
	defer os.Remove(vecTmp)

	clsTmp, err := writeTemp(fs.Dir, fs.ClassifierFile, cls)
	if err != nil {
		return err
	}
	defer os.Remove(clsTmp)

	// Keep the current vectorizer around in case the second rename fails
	previous, readErr := os.ReadFile(fs.VectorizerPath())
	hadPrevious := readErr == nil

	if err := rename(vecTmp, fs.VectorizerPath()); err != nil {
		return fmt.Errorf("failed to install vectorizer: %w", err)
	}
	if err := rename(clsTmp, fs.ClassifierPath()); err != nil {
		if rbErr := fs.rollback(previous, hadPrevious); rbErr != nil {
			return fmt.Errorf("failed to install classifier: %w (rollback failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to install classifier: %w", err)
	}
	return nil
}

func (fs *FileStore) rollback(previous []byte, hadPrevious bool) error {
	if !hadPrevious {
		return os.Remove(fs.VectorizerPath())
	}
	tmp, err := writeTemp(fs.Dir, fs.VectorizerFile, previous)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, fs.VectorizerPath()); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	return f.Name(), nil
}

// Load reads and validates both artifacts
func (fs *FileStore) Load(ctx context.Context) (*Bundle, error) {
	const op = "model.FileStore.Load"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, err := os.ReadFile(fs.VectorizerPath())
	if err != nil {
		return nil, errs.E(errs.KindModelLoad, op, missing(err, fs.VectorizerPath()))
	}
	cls, err := os.ReadFile(fs.ClassifierPath())
	if err != nil {
		return nil, errs.E(errs.KindModelLoad, op, missing(err, fs.ClassifierPath()))
	}
	return Decode(vec, cls)
}

// Exists reports whether both artifacts are present
func (fs *FileStore) Exists() bool {
	for _, p := range []string{fs.VectorizerPath(), fs.ClassifierPath()} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func missing(err error, path string) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("artifact %s not found (run 'zsms train' first): %w", path, err)
	}
	return fmt.Errorf("failed to read %s: %w", path, err)
}
