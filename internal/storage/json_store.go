package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/logger"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
)

// FileStore keeps the assignment document in a single JSON file.
type FileStore struct {
	path         string
	participants []string
}

// FileInfo describes the data file for the admin debug panel.
type FileInfo struct {
	Path   string
	Exists bool
	Size   int64
}

// NewFileStore creates a store for path. The roster is used to build the
// default document and to validate what is read back.
func NewFileStore(path string, participants []string) *FileStore {
	return &FileStore{path: path, participants: participants}
}

// Load reads the document. It never fails: a missing file yields the
// default document, and so does an unreadable or invalid one, which is
// logged as a warning.
func (s *FileStore) Load() models.Document {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infof("No data file at %s yet, starting empty", s.path)
		return services.NewDocument(s.participants)
	}
	if err != nil {
		logger.Warningf("Reading %s failed, starting empty: %v", s.path, err)
		return services.NewDocument(s.participants)
	}

	doc, err := s.decode(data)
	if err != nil {
		logger.Warningf("Data file %s is corrupt, starting empty: %v", s.path, err)
		return services.NewDocument(s.participants)
	}
	return doc
}

func (s *FileStore) decode(data []byte) (models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("parse: %w", err)
	}
	services.FillWishlists(&doc, s.participants)
	if err := services.ValidateDocument(doc, s.participants); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// Save writes the whole document. The file is replaced by rename so a
// failed write never leaves a half-written document behind.
func (s *FileStore) Save(doc models.Document) error {
	if doc.Assignments == nil {
		doc.Assignments = map[string]string{}
	}
	if doc.Wishlists == nil {
		doc.Wishlists = map[string]string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Stat reports where the data lives and how large it is.
func (s *FileStore) Stat() FileInfo {
	info := FileInfo{Path: s.path}
	if abs, err := filepath.Abs(s.path); err == nil {
		info.Path = abs
	}
	if st, err := os.Stat(s.path); err == nil {
		info.Exists = true
		info.Size = st.Size()
	}
	return info
}
