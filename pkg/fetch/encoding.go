package fetch

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// fallbackEncoding always succeeds: the rendered text is already a
// valid UTF-8 Go string.
const fallbackEncoding = "utf-8"

// metaScanLimit bounds how much of the document is scanned for a
// declared encoding, mirroring the prescan limit browsers use.
const metaScanLimit = 4096

// encodeBody turns the rendered text into bytes, choosing the first
// encoding candidate that can represent the text without loss:
// the Content-Type charset parameter, then an in-body declaration,
// then UTF-8.
func encodeBody(headers http.Header, text string) ([]byte, string) {
	candidates := []string{
		headerCharset(headers.Get("Content-Type")),
		bodyDeclaredEncoding(text),
	}

	for _, name := range candidates {
		if name == "" {
			continue
		}
		body, err := encodeAs(text, name)
		if err != nil {
			continue
		}
		return body, normalizeEncodingName(name)
	}

	return []byte(text), fallbackEncoding
}

// encodeAs encodes text with the named charset, failing if any rune
// cannot be represented.
func encodeAs(text, name string) ([]byte, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return []byte(text), nil
	}
	// the default encoder errors on unrepresentable runes, which is
	// exactly the lossless check we want
	return enc.NewEncoder().Bytes([]byte(text))
}

// decodeBody decodes raw bytes using the named charset (utf-8 when
// empty), used for the navigation body override.
func decodeBody(body []byte, name string) (string, error) {
	if name == "" || normalizeEncodingName(name) == fallbackEncoding {
		return string(body), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// headerCharset extracts the charset parameter from a Content-Type
// header value.
func headerCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// bodyDeclaredEncoding scans the document prefix for a declared
// encoding: <meta charset>, <meta http-equiv="content-type"> or an XML
// declaration.
func bodyDeclaredEncoding(text string) string {
	prefix := text
	if len(prefix) > metaScanLimit {
		prefix = prefix[:metaScanLimit]
	}

	if name := xmlDeclaredEncoding(prefix); name != "" {
		return name
	}

	tokenizer := html.NewTokenizer(strings.NewReader(prefix))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)
			if tag == "body" {
				return ""
			}
			if tag != "meta" || !hasAttr {
				continue
			}
			if charset := metaCharset(tokenizer); charset != "" {
				return charset
			}
		}
	}
}

// metaCharset pulls a charset out of the current meta tag's attributes.
func metaCharset(tokenizer *html.Tokenizer) string {
	var httpEquiv, content, charset string
	for {
		key, val, more := tokenizer.TagAttr()
		switch strings.ToLower(string(key)) {
		case "charset":
			charset = string(val)
		case "http-equiv":
			httpEquiv = strings.ToLower(string(val))
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}

	if charset != "" {
		return strings.TrimSpace(charset)
	}
	if httpEquiv == "content-type" {
		return headerCharset(content)
	}
	return ""
}

// xmlDeclaredEncoding reads the encoding out of a leading XML
// declaration like <?xml version="1.0" encoding="iso-8859-1"?>.
func xmlDeclaredEncoding(prefix string) string {
	trimmed := strings.TrimLeft(prefix, " \t\r\n")
	if !strings.HasPrefix(trimmed, "<?xml") {
		return ""
	}
	end := strings.Index(trimmed, "?>")
	if end < 0 {
		return ""
	}
	decl := trimmed[:end]

	idx := strings.Index(decl, "encoding=")
	if idx < 0 {
		return ""
	}
	rest := decl[idx+len("encoding="):]
	if len(rest) < 2 || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	quote := rest[0]
	rest = rest[1:]
	if close := strings.IndexByte(rest, quote); close > 0 {
		return rest[:close]
	}
	return ""
}

// normalizeEncodingName lowercases and trims a charset label. The
// label is reported as the caller gave it rather than the IANA
// canonical name, so "iso-8859-1" stays "iso-8859-1".
func normalizeEncodingName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
