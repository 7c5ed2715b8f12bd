// Package local implements a lookup source over an administrator-maintained
// overrides file.
//
// The file is TOML and lists products whose lifecycle data is known
// locally, typically in-house or niche software that no public source
// covers:
//
//	[[product]]
//	name = "acme agent"
//	cycle = "4.2"
//	eol = 2025-06-30
//	latest = "4.2.9"
//
//	[[product]]
//	name = "legacy billing"
//	version = "1.0.3"
//	eol = 2023-12-31
//
// An entry with a version matches that exact version; an entry with a cycle
// matches every version in it; an entry with neither covers the whole
// product. The file is watched and reloaded when it changes. A file that
// fails to parse leaves the previous entries in place.
package local
