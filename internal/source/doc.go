// Package source loads attribute files into a store and keeps them in
// sync while the files change.
//
// Files are TOML, YAML or JSON, chosen by extension unless a format is
// given explicitly. A file holds one table of attributes:
//
//	zoom = 4
//	theme = "dark"
//
//	[center]
//	lat = 52.5
//	lon = 13.4
//
// Sync applies a file once. Watcher re-applies it after every write, by
// posting the Set onto the loop that owns the store.
package source
