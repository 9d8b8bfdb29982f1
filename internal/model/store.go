package model

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
)

// DefaultPrefix is the artifact file name prefix.
const DefaultPrefix = "prophet_model_"

// Store resolves per-segment artifacts from a directory. Decoded artifacts
// are cached; the directory is treated as read-only while the store lives.
type Store struct {
	dir    string
	prefix string
	cache  *cache.Cache
	logger *zap.Logger
}

// NewStore returns a store rooted at dir. A non-positive ttl keeps loaded
// artifacts for the life of the store.
func NewStore(dir, prefix string, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	c := cache.New(cache.NoExpiration, 0)
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}

	return &Store{
		dir:    dir,
		prefix: prefix,
		cache:  c,
		logger: logger.Named("store"),
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the artifact path for seg.
func (s *Store) Path(seg dataset.Segment) string {
	return filepath.Join(s.dir, s.prefix+seg.Key()+".json")
}

// Exists reports whether an artifact file is present for seg.
func (s *Store) Exists(seg dataset.Segment) bool {
	if _, ok := s.cache.Get(seg.Key()); ok {
		return true
	}
	info, err := os.Stat(s.Path(seg))
	return err == nil && !info.IsDir()
}

// Load returns the artifact for seg. A missing file yields ModelNotFoundError.
func (s *Store) Load(ctx context.Context, seg dataset.Segment) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := seg.Key()
	if v, ok := s.cache.Get(key); ok {
		return v.(*Artifact), nil
	}

	path := s.Path(seg)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("model artifact not found", zap.String("segment", key), zap.String("path", path))
			return nil, &ModelNotFoundError{Segment: key, Path: path}
		}
		return nil, &ArtifactError{Path: path, Err: err}
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	if err := a.Validate(); err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	if a.SpeciesGroup == "" && a.Region == "" {
		a.SpeciesGroup, a.Region = seg.SpeciesGroup, seg.Region
	} else if a.Key() != key {
		return nil, &ArtifactError{Path: path, Err: errors.New("artifact was trained for segment " + a.Key())}
	}

	s.cache.Set(key, &a, cache.DefaultExpiration)
	s.logger.Info("model artifact loaded",
		zap.String("segment", key),
		zap.String("path", path),
		zap.Int("regressors", len(a.Regressors)))

	return &a, nil
}
