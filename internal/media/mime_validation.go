package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

var imageTypeNames = []string{"PNG", "JPEG", "GIF"}

// sniffImage detects the content type from the upload bytes and returns the
// extension to store it under, or "" when the type is not an accepted image.
// The client supplied Content-Type is never trusted.
func sniffImage(data []byte) (string, string) {
	detected := mimetype.Detect(data)
	for candidate := detected; candidate != nil; candidate = candidate.Parent() {
		if ext, ok := imageExtensions[candidate.String()]; ok {
			return candidate.String(), ext
		}
	}
	return detected.String(), ""
}

func allowedImageDescription() string {
	return humanReadableList(imageTypeNames)
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
