// Package file provides the TOML configuration store.
//
// Settings live in config.toml under the eolscan home directory
// (~/.eolscan, or $EOLSCAN_HOME). Dotted keys such as "engine.source_timeout"
// map to nested tables:
//
//	[engine]
//	source_timeout = "10s"
//
//	[sources.github]
//	repos = ["terraform=hashicorp/terraform"]
//
// The file is written with 0600 permissions because it may hold API tokens.
package file
