package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

var (
	ErrForbiddenHost    = errors.New("host resolves to a disallowed address")
	ErrTooManyRedirects = errors.New("too many redirects")

	sharedAddressSpace    = netip.MustParsePrefix("100.64.0.0/10")
	benchmarkAddressSpace = netip.MustParsePrefix("198.18.0.0/15")
)

// forbiddenAddr reports whether addr is outside the public unicast space
func forbiddenAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() ||
		sharedAddressSpace.Contains(addr) ||
		benchmarkAddressSpace.Contains(addr)
}

// checkHost rejects URLs whose host is a literal non-public address or a
// localhost name. Names that resolve to such addresses are caught by
// dialControl when the connection is made.
func checkHost(u *url.URL) error {
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && forbiddenAddr(addr) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, host)
	}
	return nil
}

// dialControl runs after name resolution, so it sees the address actually dialed
func dialControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || forbiddenAddr(addr) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	return nil
}
