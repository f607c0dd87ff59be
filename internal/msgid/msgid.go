// SPDX-License-Identifier: MIT

// Package msgid synthesizes unique Message-ID header values.
//
// The composed value follows the recommendations popularised by
// jwz's message-id note: a microsecond-precision timestamp plus 64 bits
// of randomness, scoped by the local fully-qualified domain name. That
// combination makes collisions negligible for duplicate detection in
// mail clients without any persisted counter or cross-process
// coordination.
package msgid

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Generator produces Message-ID header values. The zero value is not
// usable; construct with New.
type Generator struct {
	fqdn string
	now  func() time.Time
}

// New creates a Generator. fqdn overrides local name resolution when
// non-empty; otherwise the FQDN is resolved once, here, so that message
// processing never blocks on the resolver. An unresolvable name leaves
// the generator in fallback mode: each generated identifier substitutes
// a random hex token for the domain part.
func New(fqdn string) *Generator {
	if fqdn == "" {
		fqdn = resolveFQDN()
	}
	return &Generator{fqdn: fqdn, now: time.Now}
}

// FQDN returns the domain token used in generated identifiers, or ""
// when the generator is in random-fallback mode.
func (g *Generator) FQDN() string {
	return g.fqdn
}

// Generate returns a new identifier of the form
//
//	" <1700000000123456.0123456789abcdef@mail.example.org>"
//
// The leading space is part of the value: the milter protocol
// concatenates header name, colon and value verbatim, so the space
// separates the value from the colon in the rendered header.
// Generate never fails.
func (g *Generator) Generate() string {
	micros := strconv.FormatInt(g.now().UnixMicro(), 10)

	domain := g.fqdn
	if domain == "" {
		domain = randomHex()
	}

	var b strings.Builder
	b.Grow(len(micros) + len(domain) + 22)
	b.WriteString(" <")
	b.WriteString(micros)
	b.WriteByte('.')
	b.WriteString(randomHex())
	b.WriteByte('@')
	b.WriteString(domain)
	b.WriteByte('>')
	return b.String()
}

// randomHex returns 8 bytes from the CSPRNG as 16 lowercase hex characters.
func randomHex() string {
	var raw [8]byte
	// crypto/rand.Read never returns an error on supported platforms;
	// it crashes the program instead of degrading (Go 1.24 semantics).
	_, _ = rand.Read(raw[:])
	return hex.EncodeToString(raw[:])
}

// resolveFQDN mirrors Python's socket.getfqdn: take the hostname and, if
// it is not already qualified, ask the resolver for a dotted name via
// the host's addresses. Returns "" when nothing qualified is found.
func resolveFQDN() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return ""
	}
	if strings.Contains(hostname, ".") {
		return hostname
	}

	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return hostname
	}
	for _, addr := range addrs {
		names, err := net.LookupAddr(addr)
		if err != nil {
			continue
		}
		for _, name := range names {
			name = strings.TrimSuffix(name, ".")
			if strings.Contains(name, ".") {
				return name
			}
		}
	}
	return hostname
}
