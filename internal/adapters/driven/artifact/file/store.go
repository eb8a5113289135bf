// Package file stores the router artifact as a pair of files: a NumPy
// centroid matrix and a JSON metadata document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/logger"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// Artifact file names.
const (
	CentroidsFile = "topic_centroids.npy"
	MetadataFile  = "topic_router.json"
)

// ArtifactStore reads and writes the router artifact in a directory.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Location returns the artifact directory.
func (s *ArtifactStore) Location() string {
	return s.dir
}

// Save writes both files. Each is written to a temporary file first and
// renamed into place, so a reader never sees a half-written file.
func (s *ArtifactStore) Save(_ context.Context, artifact *domain.RouterArtifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	meta, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	err = s.writeAtomic(CentroidsFile, func(f *os.File) error {
		return writeMatrix(f, artifact.Centroids)
	})
	if err != nil {
		return fmt.Errorf("write centroids: %w", err)
	}
	err = s.writeAtomic(MetadataFile, func(f *os.File) error {
		_, err := f.Write(append(meta, '\n'))
		return err
	})
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	logger.Info("saved router artifact (%d topics, %d dims) to %s",
		artifact.NumTopics(), artifact.Dimensions(), s.dir)
	return nil
}

func (s *ArtifactStore) writeAtomic(name string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dir, name))
}

// Load reads both files and checks that they describe the same topics.
func (s *ArtifactStore) Load(_ context.Context) (*domain.RouterArtifact, error) {
	defer logger.Timed("loaded router artifact")()

	metaPath := filepath.Join(s.dir, MetadataFile)
	matrixPath := filepath.Join(s.dir, CentroidsFile)

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, notFound(metaPath, err)
	}
	var artifact domain.RouterArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", metaPath, domain.ErrMalformedSource, err)
	}

	f, err := os.Open(matrixPath)
	if err != nil {
		return nil, notFound(matrixPath, err)
	}
	defer f.Close()

	centroids, err := readMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", matrixPath, domain.ErrMalformedSource, err)
	}
	artifact.Centroids = centroids

	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", s.dir, err)
	}
	return &artifact, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, domain.ErrSourceNotFound)
	}
	return fmt.Errorf("read %s: %w", path, err)
}
