// Package fs provides a blobstore.Store on a directory tree, used for local
// development. Content type and metadata live in a JSON sidecar next to each
// object.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/spf13/afero"
)

const sidecarSuffix = ".meta.json"

type sidecar struct {
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Store keeps each bucket in its own directory under root
type Store struct {
	fs     afero.Fs
	root   string
	bucket string
}

// New creates a store rooted at root/bucket on fs
func New(fs afero.Fs, root, bucket string) *Store {
	return &Store{fs: fs, root: root, bucket: bucket}
}

// Bucket returns the bucket directory name
func (s *Store) Bucket() string { return s.bucket }

// objectPath maps key into the bucket directory, refusing keys that escape it
func (s *Store) objectPath(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.HasSuffix(key, sidecarSuffix) {
		return "", fmt.Errorf("%w: invalid key %q", blobstore.ErrNotFound, key)
	}
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(cleaned)), nil
}

// Get opens the object file
func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	p, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, key)
		}
		return nil, fmt.Errorf("fs get %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("fs stat %s: %w", key, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", blobstore.ErrNotFound, key)
	}

	meta := s.readSidecar(p)
	if meta.ContentType == "" {
		meta.ContentType, err = sniff(f, p)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("fs sniff %s: %w", key, err)
		}
	}

	return &blobstore.Object{
		Body:        f,
		ContentType: meta.ContentType,
		Size:        info.Size(),
		Metadata:    meta.Metadata,
	}, nil
}

// Put writes the object and its sidecar
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	p, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("fs mkdir %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("fs write %s: %w", key, err)
	}

	raw, err := json.Marshal(sidecar{ContentType: contentType, Metadata: metadata})
	if err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, p+sidecarSuffix, raw, 0o644); err != nil {
		return fmt.Errorf("fs write sidecar %s: %w", key, err)
	}
	return nil
}

// Presign is not available on a local directory
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", blobstore.ErrPresignUnsupported
}

func (s *Store) readSidecar(p string) sidecar {
	var meta sidecar
	raw, err := afero.ReadFile(s.fs, p+sidecarSuffix)
	if err != nil {
		return meta
	}
	_ = json.Unmarshal(raw, &meta)
	return meta
}

// sniff guesses the content type from the extension, then from the first
// 512 bytes, and rewinds the file
func sniff(f afero.File, p string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

var _ blobstore.Store = (*Store)(nil)
