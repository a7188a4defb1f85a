// Package survey loads field samples and trip logs from CSV and XML
// exports. CSV loaders drop malformed rows and report how many; the XML
// loader is strict because those files are machine-written. Empty result
// sets are returned as-is; deciding they are fatal belongs to the caller.
package survey
