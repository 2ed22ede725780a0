package fetch

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// SecurityInfo carries the TLS details of the navigation response, when
// the engine exposes them.
type SecurityInfo struct {
	Protocol    string
	SubjectName string
	Issuer      string
	ValidFrom   float64
	ValidTo     float64
}

// Response is the protocol-level response assembled from the tab's
// final rendered state.
type Response struct {
	// URL is the final page URL after any redirects.
	URL string

	// Status is the navigation response status code.
	Status int

	// Headers are the navigation response headers. Content-Encoding is
	// stripped: the body below is already fully decoded by the engine,
	// so keeping it would mislead downstream consumers.
	Headers http.Header

	// Body is the rendered HTML encoded with Encoding.
	Body []byte

	// Encoding is the charset the body is encoded with.
	Encoding string

	// IP is the peer address, when the engine reported one.
	IP netip.Addr

	// Security holds TLS details, when available.
	Security *SecurityInfo

	// Class is the sniffed response class (text or binary).
	Class Class
}

// assembleResponse reconstructs a Response from the page's rendered
// state and its navigation response. Peer IP and TLS details are
// best-effort: any lookup failure just omits them.
func assembleResponse(page playwright.Page, nav playwright.Response, sniffer Sniffer) (*Response, error) {
	text, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered content: %w", err)
	}

	headers := headersFromEngine(nav.Headers())
	headers.Del("Content-Encoding")

	body, encoding := encodeBody(headers, text)

	resp := &Response{
		URL:      page.URL(),
		Status:   nav.Status(),
		Headers:  headers,
		Body:     body,
		Encoding: encoding,
	}

	if addr, err := nav.ServerAddr(); err == nil && addr != nil {
		if ip, perr := netip.ParseAddr(addr.IpAddress); perr == nil {
			resp.IP = ip
		}
	}

	if details, err := nav.SecurityDetails(); err == nil && details != nil {
		resp.Security = securityInfo(details)
	}

	if sniffer != nil {
		resp.Class = sniffer.Classify(headers, resp.URL, body)
	}

	return resp, nil
}

// headersFromEngine converts the engine's single-valued header map,
// canonicalizing names.
func headersFromEngine(raw map[string]string) http.Header {
	headers := make(http.Header, len(raw))
	for k, v := range raw {
		headers.Set(strings.TrimSpace(k), v)
	}
	return headers
}

func securityInfo(details *playwright.ResponseSecurityDetailsResult) *SecurityInfo {
	info := &SecurityInfo{}
	if details.Protocol != nil {
		info.Protocol = *details.Protocol
	}
	if details.SubjectName != nil {
		info.SubjectName = *details.SubjectName
	}
	if details.Issuer != nil {
		info.Issuer = *details.Issuer
	}
	if details.ValidFrom != nil {
		info.ValidFrom = *details.ValidFrom
	}
	if details.ValidTo != nil {
		info.ValidTo = *details.ValidTo
	}
	return info
}
