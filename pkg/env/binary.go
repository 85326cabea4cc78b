package env

import (
	"path"
	"strings"
	"unicode/utf8"
)

// binaryExtensions lists file extensions whose content must never pass
// through the template engine. Rendering these would corrupt the payload or
// fail on bytes that are not template syntax.
var binaryExtensions = map[string]struct{}{
	".eot":   {},
	".gif":   {},
	".ico":   {},
	".jar":   {},
	".jpg":   {},
	".jpeg":  {},
	".otf":   {},
	".pem":   {},
	".png":   {},
	".ttf":   {},
	".webp":  {},
	".woff":  {},
	".woff2": {},
}

// IsBinary decides from a template's name whether its content is copied
// byte-for-byte instead of rendered as text.
func IsBinary(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	_, ok := binaryExtensions[ext]
	return ok
}

// SniffBinary is the fallback classifier for names with no recognized
// extension: content that is not valid UTF-8 or contains NUL bytes is
// treated as binary.
func SniffBinary(data []byte) bool {
	const sniffLen = 512
	truncated := len(data) > sniffLen
	if truncated {
		data = data[:sniffLen]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	if truncated {
		// The cut may have split a multi-byte rune; the NUL check is
		// enough for a truncated window.
		return false
	}
	return !utf8.Valid(data)
}
