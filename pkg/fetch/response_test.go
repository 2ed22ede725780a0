package fetch

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersFromEngineCanonicalizes(t *testing.T) {
	headers := headersFromEngine(map[string]string{
		"content-type":     "text/html; charset=utf-8",
		"content-encoding": "gzip",
		" x-padded ":       "v",
	})

	assert.Equal(t, "text/html; charset=utf-8", headers.Get("Content-Type"))
	assert.Equal(t, "gzip", headers.Get("Content-Encoding"))
	assert.Equal(t, "v", headers.Get("X-Padded"))
}

func TestSecurityInfoCopiesFields(t *testing.T) {
	protocol := "TLS 1.3"
	subject := "example.com"
	issuer := "Example CA"
	from := 1700000000.0
	to := 1800000000.0

	info := securityInfo(&playwright.ResponseSecurityDetailsResult{
		Protocol:    &protocol,
		SubjectName: &subject,
		Issuer:      &issuer,
		ValidFrom:   &from,
		ValidTo:     &to,
	})

	require.NotNil(t, info)
	assert.Equal(t, "TLS 1.3", info.Protocol)
	assert.Equal(t, "example.com", info.SubjectName)
	assert.Equal(t, "Example CA", info.Issuer)
	assert.Equal(t, from, info.ValidFrom)
	assert.Equal(t, to, info.ValidTo)
}

func TestSecurityInfoToleratesMissingFields(t *testing.T) {
	info := securityInfo(&playwright.ResponseSecurityDetailsResult{})
	require.NotNil(t, info)
	assert.Empty(t, info.Protocol)
	assert.Empty(t, info.Issuer)
}
