package netcheck

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"

	"phishguard/pkg/logger"
)

var creationDatePattern = regexp.MustCompile(`(?im)^\s*(?:creation date|created(?: on)?|registered(?: on)?|registration(?: date)?|domain registration date)\s*[.:]+\s*(.+)$`)

// Layouts seen in registry WHOIS responses, most common first.
var whoisDateLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"January 2 2006",
	"2006/01/02",
}

// WhoisClient determines domain age from raw WHOIS responses.
type WhoisClient struct {
	client *whois.Client
	logger *logger.Logger
}

// NewWhoisClient creates a WHOIS-backed domain age checker.
func NewWhoisClient(timeout time.Duration, log *logger.Logger) *WhoisClient {
	client := whois.NewClient()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &WhoisClient{
		client: client,
		logger: log.WithComponent("whois-client"),
	}
}

// AgeDays returns the number of days since the domain was registered. The
// lookup uses the registrable domain (last two labels).
func (c *WhoisClient) AgeDays(ctx context.Context, domain string) (int, error) {
	domain = registrableDomain(domain)

	type whoisResult struct {
		raw string
		err error
	}
	ch := make(chan whoisResult, 1)
	go func() {
		raw, err := c.client.Whois(domain)
		ch <- whoisResult{raw: raw, err: err}
	}()

	var raw string
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return 0, fmt.Errorf("whois lookup for %s failed: %w", domain, res.err)
		}
		raw = res.raw
	}

	created, err := parseCreationDate(raw)
	if err != nil {
		return 0, fmt.Errorf("whois response for %s: %w", domain, err)
	}

	days := int(time.Since(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, nil
}

// parseCreationDate pulls the registration date out of a raw WHOIS response.
func parseCreationDate(raw string) (time.Time, error) {
	match := creationDatePattern.FindStringSubmatch(raw)
	if match == nil {
		return time.Time{}, fmt.Errorf("no creation date found")
	}

	value := strings.TrimSpace(match[1])
	candidates := []string{value}
	// Some registries append comments after the date itself.
	if fields := strings.Fields(value); len(fields) > 1 {
		candidates = append(candidates, fields[0])
	}

	for _, candidate := range candidates {
		for _, layout := range whoisDateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized creation date format %q", value)
}

// registrableDomain reduces a host to its last two labels.
func registrableDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) <= 2 {
		return domain
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
