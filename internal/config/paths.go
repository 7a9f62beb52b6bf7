package config

import (
	"path/filepath"

	"github.com/icpc-trainer/probgraph/internal/artifact"
)

// File names inside the data directory.
const (
	CuratedFile = "problems.json"
	RawFile     = "cf_problems_raw.json"
	CacheDir    = "cache"
	DBFile      = "problems.db"
)

// Paths is the data directory layout.
type Paths struct {
	Root      string
	Curated   string
	Raw       string
	DB        string
	Artifacts artifact.Paths
}

// PathsFor returns the layout rooted at dir.
func PathsFor(dir string) Paths {
	return Paths{
		Root:      dir,
		Curated:   filepath.Join(dir, CuratedFile),
		Raw:       filepath.Join(dir, RawFile),
		DB:        filepath.Join(dir, CacheDir, DBFile),
		Artifacts: artifact.PathsIn(dir),
	}
}
