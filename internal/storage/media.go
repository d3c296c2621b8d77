package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/skill-swap/skillswap/internal/config"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

// ContentType returns the MIME type for an image extension.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateImage checks the upload size and extension and returns the lower-cased extension.
func ValidateImage(cfg config.MediaConfig, filename string, size int64) (string, error) {
	if size <= 0 {
		return "", apperrors.NewValidationError("image is empty", nil)
	}
	if cfg.MaxUploadBytes > 0 && size > cfg.MaxUploadBytes {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("image exceeds the %d MB limit", cfg.MaxUploadBytes/(1024*1024)),
			map[string]any{"max_bytes": cfg.MaxUploadBytes, "size": size},
		)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	for _, allowed := range cfg.AllowedFormats {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", apperrors.NewValidationError("unsupported image format", map[string]any{
		"format":  ext,
		"allowed": cfg.AllowedFormats,
	})
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// AvatarKey builds avatars/<userID>/<name>_<unix>_<xid>.<ext>.
func AvatarKey(userID, filename, ext string, now time.Time) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "avatar"
	}
	return fmt.Sprintf("avatars/%s/%s_%d_%s.%s", userID, base, now.Unix(), xid.New().String(), ext)
}
