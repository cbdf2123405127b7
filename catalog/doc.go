// Package catalog loads the NeTEx stop catalog and answers stop searches over it.
//
// Loading downloads the document in 1 MiB chunks to a temporary file, parses it on a worker
// goroutine and always removes the file afterwards. Two entry points are offered:
//
//	// Typed errors, for callers that retry or fall back.
//	stops, err := loader.Load(ctx, url)
//
//	// Empty slice on any failure; the cause is logged.
//	stops := loader.LoadStopCatalog(ctx, url)
//
// Searching is a pure function over the loaded slice:
//
//	matches := catalog.Find(stops, "gare centrale")
//
// A loaded catalog can be written to disk with SaveSnapshot and read back with LoadSnapshot,
// which lets a service start while the catalog source is unreachable.
package catalog
