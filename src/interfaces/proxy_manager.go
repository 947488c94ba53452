package interfaces

// -----------------------------------------------------------------------------
// IProxyManager rotates the outbound proxy pool the network layer routes
// provider requests through.
// -----------------------------------------------------------------------------

type IProxyManager interface {

	// -----------------------------------------------------------------------------

	// GetCurrentProxy returns the proxy URL requests should use right now,
	// empty when the pool is empty.
	GetCurrentProxy() (string, error)

	// -----------------------------------------------------------------------------

	// RotateProxy advances to the next pool entry. Called after throttling
	// or repeated failures on the current proxy.
	RotateProxy()

	// -----------------------------------------------------------------------------

	// HasProxies reports whether any usable proxies were configured.
	HasProxies() bool

	// -----------------------------------------------------------------------------

	// GetUserAgent returns a User-Agent from the rotation pool.
	GetUserAgent() string
}
