package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeSnifferDeclaredTextTypes(t *testing.T) {
	sniffer := MimeSniffer{}

	tests := []struct {
		contentType string
		want        Class
	}{
		{"text/html; charset=utf-8", ClassText},
		{"text/plain", ClassText},
		{"application/json", ClassText},
		{"application/xhtml+xml", ClassText},
		{"image/png", ClassBinary},
		{"application/octet-stream", ClassBinary},
	}

	for _, tt := range tests {
		headers := http.Header{}
		headers.Set("Content-Type", tt.contentType)
		body := []byte("<html></html>")
		if tt.want == ClassBinary {
			body = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
		}

		got := sniffer.Classify(headers, "https://example.com/", body)
		assert.Equal(t, tt.want, got, "content type %q", tt.contentType)
	}
}

func TestMimeSnifferFallsBackToMagicBytes(t *testing.T) {
	sniffer := MimeSniffer{}

	got := sniffer.Classify(http.Header{}, "https://example.com/", []byte("<html><body>hi</body></html>"))
	assert.Equal(t, ClassText, got)

	pngMagic := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	got = sniffer.Classify(http.Header{}, "https://example.com/img", pngMagic)
	assert.Equal(t, ClassBinary, got)
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "text", ClassText.String())
	assert.Equal(t, "binary", ClassBinary.String())
}
