// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package deploy

import (
	"context"
	"fmt"
	"strings"

	"rescribe.xyz/webotron"
	"rescribe.xyz/webotron/internal/metrics"
	"rescribe.xyz/webotron/internal/resolve"
)

// HostedZoneName returns the name of the zone to create for a domain,
// which is its last two labels with a trailing dot, so
// "www.example.com" gives "example.com.".
func HostedZoneName(domain string) string {
	labels := strings.Split(strings.TrimSuffix(domain, "."), ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".") + "."
}

// FindHostedZone lists the account's hosted zones and returns the one
// to use for domain.
func FindHostedZone(ctx context.Context, conn ZoneLister, domain string) (resolve.HostedZone, bool, error) {
	zones, err := conn.ListHostedZones(ctx)
	if err != nil {
		return resolve.HostedZone{}, false, fmt.Errorf("Error listing hosted zones: %w", err)
	}
	zone, found := resolve.FindHostedZone(domain, zones)
	metrics.Default().Lookup("zone", found)
	return zone, found, nil
}

// ensureZone finds the hosted zone for domain, creating one if there
// is none.
func ensureZone(ctx context.Context, conn DomainSetuper, domain string) (resolve.HostedZone, error) {
	zone, found, err := FindHostedZone(ctx, conn, domain)
	if err != nil {
		return zone, err
	}
	if found {
		conn.Log("Using hosted zone", zone.Name, zone.Id)
		return zone, nil
	}
	name := HostedZoneName(domain)
	conn.Log("No hosted zone found for", domain, "so creating", name)
	return conn.CreateHostedZone(ctx, name)
}

// SetupDomain points domain at the S3 website endpoint of region. The
// bucket serving the site must be named the same as the domain.
func SetupDomain(ctx context.Context, conn DomainSetuper, domain string, region string) error {
	endpoint, err := webotron.WebsiteEndpoint(region)
	if err != nil {
		return err
	}

	zone, err := ensureZone(ctx, conn, domain)
	if err != nil {
		return err
	}

	conn.Log("Creating alias record for", domain, "to", endpoint.Host)
	err = conn.UpsertAliasRecord(ctx, zone.Id, domain, webotron.AliasTarget{
		DNSName: endpoint.Host,
		ZoneId:  endpoint.ZoneId,
	})
	if err != nil {
		return fmt.Errorf("Error creating record for %s: %w", domain, err)
	}
	return nil
}

// FindCertificate returns the first issued certificate valid for
// domain, or ErrNoCertificate.
func FindCertificate(ctx context.Context, conn CertLister, domain string) (resolve.Certificate, error) {
	certs, err := conn.ListIssuedCertificates(ctx)
	if err != nil {
		return resolve.Certificate{}, err
	}
	cert, found := resolve.FindCertificate(domain, certs)
	metrics.Default().Lookup("certificate", found)
	if !found {
		return cert, fmt.Errorf("%w: %s", ErrNoCertificate, domain)
	}
	return cert, nil
}

// FindDistribution returns the first distribution with domain as one
// of its aliases.
func FindDistribution(dists []webotron.Distribution, domain string) (webotron.Distribution, bool) {
	for _, d := range dists {
		for _, a := range d.Aliases {
			if a == domain {
				return d, true
			}
		}
	}
	return webotron.Distribution{}, false
}

// SetupCDN serves the bucket named domain through CloudFront over
// https. A distribution already aliased to domain is reused; otherwise
// one is created with a matching certificate. Once it is deployed
// domain is pointed at it.
func SetupCDN(ctx context.Context, conn CDNSetuper, domain string) (webotron.Distribution, error) {
	cert, err := FindCertificate(ctx, conn, domain)
	if err != nil {
		return webotron.Distribution{}, err
	}
	conn.Log("Using certificate", cert.Arn)

	dists, err := conn.ListDistributions(ctx)
	if err != nil {
		return webotron.Distribution{}, fmt.Errorf("Error listing distributions: %w", err)
	}
	dist, found := FindDistribution(dists, domain)
	if found {
		conn.Log("Using existing distribution", dist.Id)
	} else {
		dist, err = conn.CreateDistribution(ctx, domain, cert.Arn)
		if err != nil {
			return dist, err
		}
		conn.Log("Created distribution", dist.Id)
	}

	conn.Log("Waiting for distribution", dist.Id, "to deploy")
	dist, err = conn.WaitForDeploy(ctx, dist.Id)
	if err != nil {
		return dist, err
	}

	zone, err := ensureZone(ctx, conn, domain)
	if err != nil {
		return dist, err
	}

	conn.Log("Creating alias record for", domain, "to", dist.DomainName)
	err = conn.UpsertAliasRecord(ctx, zone.Id, domain, webotron.AliasTarget{
		DNSName: dist.DomainName,
		ZoneId:  webotron.CloudFrontZoneId,
	})
	if err != nil {
		return dist, fmt.Errorf("Error creating record for %s: %w", domain, err)
	}
	return dist, nil
}
