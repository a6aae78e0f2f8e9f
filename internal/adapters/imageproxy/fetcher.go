// Package imageproxy fetches cover images from an allowlist of hosts.
package imageproxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const (
	defaultContentType = "image/jpeg"
	defaultMaxBytes    = 10 << 20
	defaultTimeout     = 10 * time.Second
	dialTimeout        = 5 * time.Second
	maxRedirects       = 5
)

// Image is a fetched image body.
type Image struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves images over HTTP, restricted to allowed hosts. Every
// redirect hop is checked against the allowlist, and by default connections
// to loopback, private and link-local addresses are refused.
type Fetcher struct {
	client       *http.Client
	transport    http.RoundTripper
	allowPrivate bool
	allowed      map[string]bool
	maxBytes     int64
	timeout      time.Duration
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithTransport replaces the guarded transport. The redirect check still applies.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		if rt != nil {
			f.transport = rt
		}
	}
}

// WithPrivateNetworks lets the default transport dial private addresses.
func WithPrivateNetworks(allow bool) Option {
	return func(f *Fetcher) { f.allowPrivate = allow }
}

// WithMaxBytes caps the accepted body size.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithTimeout bounds a single fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFetcher creates a Fetcher that accepts the given hosts and their subdomains.
func NewFetcher(hosts []string, opts ...Option) *Fetcher {
	f := &Fetcher{
		allowed:  make(map[string]bool, len(hosts)),
		maxBytes: defaultMaxBytes,
		timeout:  defaultTimeout,
	}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			f.allowed[h] = true
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.transport == nil {
		f.transport = f.guardedTransport()
	}
	f.client = &http.Client{Transport: f.transport, CheckRedirect: f.checkRedirect}
	return f
}

func (f *Fetcher) guardedTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	d := &net.Dialer{Timeout: dialTimeout}
	if !f.allowPrivate {
		d.Control = refusePrivate
	}
	t.DialContext = d.DialContext
	t.Proxy = nil
	return t
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: %d redirects", ErrFetch, len(via))
	}
	_, err := f.Parse(req.URL.String())
	return err
}

// refusePrivate runs on the resolved address, so DNS answers cannot smuggle
// an internal target past the host allowlist.
func refusePrivate(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotAllowed, address)
	}
	ip := ap.Addr().Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified() || ip.IsInterfaceLocalMulticast() {
		return fmt.Errorf("%w: private address %s", ErrNotAllowed, ip)
	}
	return nil
}

// Allowed reports whether host or one of its parent domains is allowlisted.
func (f *Fetcher) Allowed(host string) bool {
	h := strings.ToLower(host)
	for h != "" {
		if f.allowed[h] {
			return true
		}
		dot := strings.Index(h, ".")
		if dot < 0 {
			break
		}
		h = h[dot+1:]
	}
	return false
}

// Parse validates rawURL and checks its host against the allowlist.
func (f *Fetcher) Parse(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if !f.Allowed(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, u.Hostname())
	}
	return u, nil
}

// Fetch downloads rawURL. The content type defaults to image/jpeg and must
// otherwise be image/*.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	u, err := f.Parse(rawURL)
	if err != nil {
		return Image{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = defaultContentType
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/") {
		return Image{}, fmt.Errorf("%w: content type %q", ErrNotImage, ct)
	}
	if resp.ContentLength > f.maxBytes {
		return Image{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if int64(len(data)) > f.maxBytes {
		return Image{}, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.maxBytes)
	}
	return Image{Data: data, ContentType: ct}, nil
}
