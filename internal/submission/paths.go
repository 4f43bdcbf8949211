package submission

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ikkim/dishshot-intake/internal/form"
)

// SanitizeSegment lowercases s and collapses every run of characters that are not
// letters or digits (in any script) into a single hyphen. A segment with nothing left
// becomes "unknown".
func SanitizeSegment(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// SanitizeFilename sanitizes the base name and keeps a lowercase extension.
func SanitizeFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if ext != "" {
		ext = "." + SanitizeSegment(ext[1:])
	}
	return SanitizeSegment(base) + ext
}

// DishImagePath is the multi-dish convention {owner}/{itemType}/{id}.{ext}.
// Files other than reference images get a {kind} folder under the item type.
func DishImagePath(owner, itemType, kind, id, ext string) string {
	owner, itemType = SanitizeSegment(owner), SanitizeSegment(itemType)
	if kind == "" || kind == form.KindReferenceImages {
		return fmt.Sprintf("%s/%s/%s.%s", owner, itemType, id, ext)
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s", owner, itemType, SanitizeSegment(kind), id, ext)
}

// PublicImagePath is the public form convention {scope}/{restaurant}/{ts}-{filename}.
func PublicImagePath(scope, restaurantName string, unixMillis int64, filename string) string {
	return fmt.Sprintf("%s/%s/%d-%s", scope, SanitizeSegment(restaurantName), unixMillis, SanitizeFilename(filename))
}

var extByContentType = map[string]string{
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// Extension returns the file's original extension without the dot, falling back to
// one derived from the content type.
func Extension(f form.File) string {
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), ".")); ext != "" {
		return SanitizeSegment(ext)
	}
	if ext, ok := extByContentType[f.ContentType]; ok {
		return ext
	}
	return "bin"
}
