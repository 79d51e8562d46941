package models

import (
	"io"
	"strings"
)

// OriginalAsset is an object fetched from the origin store
type OriginalAsset struct {
	Path         string
	Body         io.ReadCloser
	ContentType  string
	Size         int64
	PresignedURL string // set only for link-only assets
	LinkOnly     bool
}

// TransformedAsset is the output of the transform engine
type TransformedAsset struct {
	Data        []byte
	ContentType string
}

// ParseRequestPath splits a request path into the asset path and the raw
// operations segment. prefix is stripped first. The leading empty segment is
// dropped and the last segment is taken as the operations.
//
//	/images/rio/1.jpeg/format=webp -> images/rio/1.jpeg, format=webp
func ParseRequestPath(path, prefix string) (assetPath, operations string) {
	if prefix != "" {
		path = strings.TrimPrefix(path, strings.TrimSuffix(prefix, "/"))
	}
	path = strings.TrimPrefix(path, "/")

	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// RequiresLink reports whether assets at this path are answered with a
// redirect to a pre-signed link instead of their bytes
func RequiresLink(assetPath string) bool {
	return strings.HasSuffix(assetPath, ".stl") || strings.Contains(assetPath, ".gcode")
}

// CacheKey is the key a transformed asset is stored under. The operations
// segment is used verbatim.
func CacheKey(assetPath, operations string) string {
	return assetPath + "/" + operations
}
