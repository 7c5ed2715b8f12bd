// Package endoflife implements lookup sources backed by the endoflife.date
// product API.
//
// A single [Client] talks to the API. It throttles requests with a token
// bucket, retries transient failures with exponential backoff, and caches
// the release cycles of each product it has fetched. Three sources share a
// client:
//
//   - Distro: Linux distributions (specific)
//   - Runtime: language runtimes, databases and web servers (specific)
//   - Generic: any product whose name maps onto an API slug (generic)
//
// Sources translate a variant's name into a product slug, fetch that
// product's cycles and pick the cycle matching the variant's version.
// An exact cycle match reports a higher confidence than a match on the
// major version alone.
package endoflife
