package object

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFileName is returned for names that are empty or try to leave
// their namespace.
var ErrInvalidFileName = errors.New("invalid file name")

var contentTypes = map[string]string{
	".odt": "application/vnd.oasis.opendocument.text",
	".ott": "application/vnd.oasis.opendocument.text-template",
}

// Namespace returns the filesystem-safe directory for owner.
func Namespace(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// CleanFileName strips separators and rejects traversal patterns.
func CleanFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// NewKey returns a fresh key of the form <namespace>/<random>_<name>.
func NewKey(owner, fileName string) (string, error) {
	name, err := CleanFileName(fileName)
	if err != nil {
		return "", err
	}
	id := uuid.New()
	return path.Join(Namespace(owner), hex.EncodeToString(id[:])+"_"+name), nil
}

// DetectContentType prefers the extension of fileName and falls back to
// sniffing head.
func DetectContentType(fileName string, head []byte) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ext != "" && ct != "" {
		return ct
	}
	return http.DetectContentType(head)
}
