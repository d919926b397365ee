package netcheck

import (
	"context"
	"errors"
	"net"

	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// DNSClient resolves A and MX records for URL analysis.
type DNSClient struct {
	resolver *net.Resolver
	logger   *logger.Logger
}

// NewDNSClient creates a DNS checker using the system resolver.
func NewDNSClient(log *logger.Logger) *DNSClient {
	return &DNSClient{
		resolver: net.DefaultResolver,
		logger:   log.WithComponent("dns-client"),
	}
}

// Lookup resolves the domain. NXDOMAIN is reported in the result rather
// than as an error; transport failures are returned as errors.
func (c *DNSClient) Lookup(ctx context.Context, domain string) (*models.DNSLookup, error) {
	result := &models.DNSLookup{}

	addrs, err := c.resolver.LookupHost(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			result.NXDomain = true
			return result, nil
		}
		return nil, err
	}
	result.IPAddresses = addrs

	mx, err := c.resolver.LookupMX(ctx, domain)
	if err == nil && len(mx) > 0 {
		result.HasMX = true
	}

	return result, nil
}
