package fetch

import (
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Class says how downstream consumers should treat an assembled body.
type Class int

const (
	// ClassText bodies decode cleanly with the response encoding.
	ClassText Class = iota

	// ClassBinary bodies should be handled as raw bytes.
	ClassBinary
)

// String returns the class name.
func (c Class) String() string {
	if c == ClassBinary {
		return "binary"
	}
	return "text"
}

// Sniffer classifies an assembled response given its headers, final URL
// and body.
type Sniffer interface {
	Classify(headers http.Header, url string, body []byte) Class
}

// MimeSniffer classifies by the declared Content-Type first and falls
// back to magic-byte detection on the body.
type MimeSniffer struct{}

// Classify implements Sniffer.
func (MimeSniffer) Classify(headers http.Header, url string, body []byte) Class {
	if declared := headers.Get("Content-Type"); declared != "" {
		if isTextualMime(declared) {
			return ClassText
		}
	}

	detected := mimetype.Detect(body)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return ClassText
		}
	}
	if isTextualMime(detected.String()) {
		return ClassText
	}
	return ClassBinary
}

// isTextualMime reports whether a MIME type names a text format.
func isTextualMime(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.TrimSpace(mimeType)

	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch {
	case strings.HasSuffix(mimeType, "+json"),
		strings.HasSuffix(mimeType, "+xml"):
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/javascript",
		"application/x-javascript", "application/xhtml+xml":
		return true
	}
	return false
}
