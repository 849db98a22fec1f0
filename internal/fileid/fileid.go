// Package fileid derives stable article IDs for imported knowledge files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Prefix marks article IDs that belong to an imported file.
const Prefix = "kb-"

// ArticleID returns a stable article ID for the given absolute path.
// Re-importing the same file updates the same article.
func ArticleID(absolutePath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return Prefix + hex.EncodeToString(sum[:16])
}

// IsFileArticle reports whether id was produced by ArticleID.
func IsFileArticle(id string) bool {
	return strings.HasPrefix(id, Prefix) && len(id) == len(Prefix)+32
}
