// Package registry persists SourceModels as a JSON document keyed by
// file path, with a metadata block tracking counts and timestamps.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	menderrors "mender/internal/errors"
	"mender/internal/model"
)

// Metadata describes the registry document.
type Metadata struct {
	TotalFiles  int    `json:"total_files"`
	CreatedAt   string `json:"created_at"`
	LastUpdated string `json:"last_updated"`
}

// Document is the on-disk registry layout.
type Document struct {
	FileModels map[string]*model.SourceModel `json:"file_models"`
	Metadata   Metadata                      `json:"metadata"`
}

// Registry reads and writes the persisted model registry.
type Registry struct {
	path string
	doc  *Document
}

// Open loads the registry at path, creating an empty document when the
// file doesn't exist yet.
func Open(path string) (*Registry, error) {
	reg := &Registry{
		path: path,
		doc: &Document{
			FileModels: make(map[string]*model.SourceModel),
			Metadata: Metadata{
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			},
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, menderrors.New(menderrors.RegistryCorrupt, "cannot read registry", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, menderrors.New(menderrors.RegistryCorrupt, "cannot decode registry", err).
			WithDetails(map[string]string{"path": path})
	}
	if doc.FileModels == nil {
		doc.FileModels = make(map[string]*model.SourceModel)
	}
	reg.doc = &doc
	return reg, nil
}

// Get returns the persisted model for a path.
func (r *Registry) Get(path string) (*model.SourceModel, bool) {
	m, ok := r.doc.FileModels[path]
	return m, ok
}

// Put records a model under its path.
func (r *Registry) Put(m *model.SourceModel) {
	r.doc.FileModels[m.Path] = m
	r.doc.Metadata.TotalFiles = len(r.doc.FileModels)
	r.doc.Metadata.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

// Len returns the number of persisted models.
func (r *Registry) Len() int {
	return len(r.doc.FileModels)
}

// Save writes the registry atomically via a temp file and rename.
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.doc, "", "  ")
	if err != nil {
		return menderrors.New(menderrors.InternalError, "cannot encode registry", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return menderrors.New(menderrors.RegistryCorrupt, "cannot create registry directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return menderrors.New(menderrors.RegistryCorrupt, "cannot stage registry write", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return menderrors.New(menderrors.RegistryCorrupt, "cannot write registry", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return menderrors.New(menderrors.RegistryCorrupt, "cannot finalize registry", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return menderrors.New(menderrors.RegistryCorrupt, "cannot replace registry", err)
	}
	return nil
}
