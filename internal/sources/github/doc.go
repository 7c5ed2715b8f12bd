// Package github implements a lookup source reporting the latest release of
// products distributed through GitHub.
//
// Products are mapped to repositories by configuration
// (sources.github.repos = ["terraform=hashicorp/terraform"]). GitHub
// publishes no end-of-life dates, so results carry only the latest version
// and a low confidence; they serve as best-effort data when no lifecycle
// source knows the product.
//
// # Authentication
//
// A personal access token is optional. Authenticated requests get 5,000
// API requests per hour; unauthenticated requests are limited to 60.
//
// # Rate Limiting
//
// Requests are throttled proactively with a token bucket and reactively
// from the X-RateLimit-* response headers. See [RateLimiter].
package github
