package organizer

import (
	"path/filepath"
	"regexp"
	"strings"

	"mediasort/internal/config"
	"mediasort/internal/media"
)

// Kind is the destination family a file is routed to.
type Kind string

const (
	KindSocial  Kind = "social"
	KindDashcam Kind = "dashcam"
	KindPhoto   Kind = "photos"
	KindVideo   Kind = "videos"
)

var (
	socialPattern  = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)
	dashcamMarkers = []string{"Novatek", "CARDV", "DASHCAM"}
	thumbMarkers   = []string{".thumbnail", ".thumbnails"}
)

// IsThumbnail reports whether path sits in a thumbnail cache.
func IsThumbnail(path string) bool {
	for _, marker := range thumbMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// Classify routes path to a destination kind. The first matching rule wins:
// a 32-character alphanumeric name without extension is a social clip, a
// dashcam vendor marker anywhere in the path is a dashcam recording, then
// the catalog's photo and video extensions. A nil catalog uses the built-in
// tables.
func Classify(path string, catalog *media.Catalog) (Kind, bool) {
	if catalog == nil {
		catalog = media.DefaultCatalog()
	}
	ext := filepath.Ext(path)
	switch {
	case socialPattern.MatchString(filepath.Base(path)):
		return KindSocial, true
	case hasDashcamMarker(path):
		return KindDashcam, true
	case catalog.Has(media.CategoryPhotos, ext):
		return KindPhoto, true
	case catalog.Has(media.CategoryVideos, ext):
		return KindVideo, true
	default:
		return "", false
	}
}

func hasDashcamMarker(path string) bool {
	for _, marker := range dashcamMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

// RootFor returns the configured root for kind within one destination tree.
func RootFor(roots config.Roots, kind Kind) string {
	switch kind {
	case KindSocial:
		return roots.Social
	case KindDashcam:
		return roots.Dashcam
	case KindPhoto:
		return roots.Photos
	case KindVideo:
		return roots.Videos
	default:
		return ""
	}
}
