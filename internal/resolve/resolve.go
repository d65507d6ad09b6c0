// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// resolve matches a requested domain name against the hosted zones
// and certificates an account already has. Both lookups are a plain
// ordered scan over lists supplied by the caller; the first match in
// list order wins.
package resolve

import (
	"strings"
)

// HostedZone is a DNS hosted zone as returned by the provider. Name
// is fully qualified, so it carries a trailing dot.
type HostedZone struct {
	Name string
	Id   string
}

// Certificate is an issued certificate and the names it is valid for.
// SubjectAlternativeNames are either exact names or wildcards of the
// form "*.example.com".
type Certificate struct {
	Arn                     string
	SubjectAlternativeNames []string
}

// FindHostedZone returns the first zone in zones whose name, without
// its trailing dot, is a suffix of domain. The boolean is false if no
// zone matches.
//
// Note that this is first match, not longest match: with zones
// "com." and "example.com." (in that order) the domain
// "www.example.com" resolves to "com.".
func FindHostedZone(domain string, zones []HostedZone) (HostedZone, bool) {
	for _, z := range zones {
		if strings.HasSuffix(domain, strings.TrimSuffix(z.Name, ".")) {
			return z, true
		}
	}
	return HostedZone{}, false
}

// FindCertificate returns the first certificate in certs with a
// subject alternative name covering domain. The boolean is false if
// none does.
func FindCertificate(domain string, certs []Certificate) (Certificate, bool) {
	for _, c := range certs {
		if Covers(c, domain) {
			return c, true
		}
	}
	return Certificate{}, false
}

// Covers reports whether any of the subject alternative names of c
// match domain, either exactly or as a wildcard. A wildcard does not
// cover the bare domain it is rooted at, so "*.example.com" does not
// match "example.com".
func Covers(c Certificate, domain string) bool {
	for _, san := range c.SubjectAlternativeNames {
		if san == domain {
			return true
		}
		if strings.HasPrefix(san, "*") && strings.HasSuffix(domain, san[1:]) {
			return true
		}
	}
	return false
}
