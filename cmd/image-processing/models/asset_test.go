package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequestPath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		prefix    string
		wantAsset string
		wantOps   string
	}{
		{name: "nested", path: "/images/rio/1.jpeg/format=webp,width=100", wantAsset: "images/rio/1.jpeg", wantOps: "format=webp,width=100"},
		{name: "original", path: "/docs/readme.txt/original", wantAsset: "docs/readme.txt", wantOps: "original"},
		{name: "trailing slash", path: "/a/b.png/", wantAsset: "a/b.png", wantOps: ""},
		{name: "single segment", path: "/only", wantAsset: "", wantOps: "only"},
		{name: "root", path: "/", wantAsset: "", wantOps: ""},
		{name: "prefix", path: "/img/a/b.png/width=10", prefix: "/img", wantAsset: "a/b.png", wantOps: "width=10"},
		{name: "prefix with slash", path: "/img/a/b.png/width=10", prefix: "/img/", wantAsset: "a/b.png", wantOps: "width=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, ops := ParseRequestPath(tt.path, tt.prefix)
			assert.Equal(t, tt.wantAsset, asset)
			assert.Equal(t, tt.wantOps, ops)
		})
	}
}

func TestRequiresLink(t *testing.T) {
	assert.True(t, RequiresLink("models/part.stl"))
	assert.True(t, RequiresLink("prints/job.gcode"))
	assert.True(t, RequiresLink("prints/job.gcode.bak"))
	assert.False(t, RequiresLink("models/part.stl.png"))
	assert.False(t, RequiresLink("models/part.STL"))
	assert.False(t, RequiresLink("images/rio/1.jpeg"))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "images/rio/1.jpeg/format=webp,width=100", CacheKey("images/rio/1.jpeg", "format=webp,width=100"))
}
