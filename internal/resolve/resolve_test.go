// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FindHostedZone(t *testing.T) {
	example := HostedZone{Name: "example.com.", Id: "/hostedzone/Z1"}
	com := HostedZone{Name: "com.", Id: "/hostedzone/Z2"}
	sub := HostedZone{Name: "sub.example.com.", Id: "/hostedzone/Z3"}
	other := HostedZone{Name: "example.org.", Id: "/hostedzone/Z4"}

	cases := []struct {
		name   string
		domain string
		zones  []HostedZone
		want   HostedZone
		found  bool
	}{
		{"exact", "example.com", []HostedZone{example}, example, true},
		{"subdomain", "www.example.com", []HostedZone{example}, example, true},
		{"nomatch", "www.example.net", []HostedZone{example, other}, HostedZone{}, false},
		{"nozones", "www.example.com", nil, HostedZone{}, false},
		{"firstmatchwins", "www.example.com", []HostedZone{com, example}, com, true},
		{"firstmatchwinsreversed", "www.example.com", []HostedZone{example, com}, example, true},
		{"lessspecificfirst", "www.sub.example.com", []HostedZone{example, sub}, example, true},
		{"skipsnonmatching", "www.example.org", []HostedZone{example, other}, other, true},
		{"emptyzonematchesall", "anything.test", []HostedZone{{Name: ".", Id: "root"}}, HostedZone{Name: ".", Id: "root"}, true},
		{"plainsuffixnotlabel", "badexample.com", []HostedZone{example}, example, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, found := FindHostedZone(c.domain, c.zones)
			assert.Equal(t, c.found, found)
			assert.Equal(t, c.want, got)
		})
	}
}

func Test_FindHostedZoneEverySuffix(t *testing.T) {
	domains := []string{"example.com", "www.example.com", "a.b.c.example.com"}
	for _, d := range domains {
		for i := range d {
			z := HostedZone{Name: d[i:] + ".", Id: d[i:]}
			got, found := FindHostedZone(d, []HostedZone{z})
			require.True(t, found, "zone %q should match %q", z.Name, d)
			require.Equal(t, z, got)
		}
	}
}

func Test_FindCertificate(t *testing.T) {
	wild := Certificate{Arn: "A", SubjectAlternativeNames: []string{"*.example.com"}}
	exact := Certificate{Arn: "B", SubjectAlternativeNames: []string{"example.com"}}
	both := Certificate{Arn: "C", SubjectAlternativeNames: []string{"example.com", "*.example.com"}}
	none := Certificate{Arn: "D"}

	cases := []struct {
		name   string
		domain string
		certs  []Certificate
		want   Certificate
		found  bool
	}{
		{"wildcard", "app.example.com", []Certificate{wild}, wild, true},
		{"wildcardnotapex", "example.com", []Certificate{wild}, Certificate{}, false},
		{"exactother", "other.com", []Certificate{exact}, Certificate{}, false},
		{"exact", "example.com", []Certificate{exact}, exact, true},
		{"exactnotsubdomain", "www.example.com", []Certificate{exact}, Certificate{}, false},
		{"firstcertwins", "www.example.com", []Certificate{wild, both}, wild, true},
		{"skipsnonmatching", "example.com", []Certificate{wild, both}, both, true},
		{"nosans", "example.com", []Certificate{none}, Certificate{}, false},
		{"nocerts", "example.com", nil, Certificate{}, false},
		{"deepsubdomain", "a.b.example.com", []Certificate{wild}, wild, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, found := FindCertificate(c.domain, c.certs)
			assert.Equal(t, c.found, found)
			assert.Equal(t, c.want, got)
		})
	}
}

func Test_Idempotent(t *testing.T) {
	zones := []HostedZone{{Name: "com.", Id: "1"}, {Name: "example.com.", Id: "2"}}
	certs := []Certificate{{Arn: "A", SubjectAlternativeNames: []string{"*.example.com"}}}

	z1, f1 := FindHostedZone("www.example.com", zones)
	z2, f2 := FindHostedZone("www.example.com", zones)
	assert.Equal(t, z1, z2)
	assert.Equal(t, f1, f2)

	c1, g1 := FindCertificate("app.example.com", certs)
	c2, g2 := FindCertificate("app.example.com", certs)
	assert.Equal(t, c1, c2)
	assert.Equal(t, g1, g2)

	assert.Equal(t, []HostedZone{{Name: "com.", Id: "1"}, {Name: "example.com.", Id: "2"}}, zones)
}
