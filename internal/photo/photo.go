// Package photo scans a directory tree for images carrying GPS EXIF tags and
// hands out random selections for game rounds.
package photo

import (
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rwcarlsen/goexif/exif"
)

type Photo struct {
	Path      string  `json:"path"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider is the library surface the HTTP layer consumes.
type Provider interface {
	RandomPhotos(count int) []Photo
	Contains(path string) bool
	Count() int
	Root() string
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".bmp":  true,
}

// Library holds the geotagged photos found under a root directory.
type Library struct {
	mu     sync.RWMutex
	root   string
	photos []Photo
}

func NewLibrary(root string) *Library {
	return &Library{root: root}
}

// Scan walks the root recursively and rebuilds the photo list from every
// image with usable GPS coordinates. Returns how many were found.
func (l *Library) Scan() (int, error) {
	var found []Photo

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		lat, lon, ok := extractGPS(path)
		if ok {
			found = append(found, Photo{Path: path, Latitude: lat, Longitude: lon})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	l.photos = found
	l.mu.Unlock()

	log.Printf("[Scan] root=%s photos_with_gps=%d", l.root, len(found))
	return len(found), nil
}

func extractGPS(path string) (lat, lon float64, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 0, 0, false
	}
	// LatLong resolves the N/S and E/W reference tags into signed degrees.
	lat, lon, err = x.LatLong()
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.photos)
}

func (l *Library) Root() string {
	return l.root
}

// Contains reports whether path is one of the scanned photos. Handlers use
// this to refuse serving files outside the library.
func (l *Library) Contains(path string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.photos {
		if p.Path == path {
			return true
		}
	}
	return false
}

// RandomPhotos samples count photos without replacement. Asking for more
// than exist returns everything, shuffled.
func (l *Library) RandomPhotos(count int) []Photo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.photos) == 0 || count <= 0 {
		return nil
	}

	shuffled := append([]Photo(nil), l.photos...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled
}
