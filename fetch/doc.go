// Package fetch is the HTTP layer shared by the catalog loaders and the SIRI client.
//
// Large reference documents are spooled to a temporary file in fixed-size chunks so the
// whole body is never held in memory; small request/response exchanges go through Client.
// Sources that are not http(s) URLs are treated as local file paths.
//
// Failures are classified with the sentinel errors in errors.go and can be tested with
// errors.Is:
//
//	spool, err := d.Spill(ctx, url)
//	if errors.Is(err, fetch.ErrTransport) {
//	    // network failure or non-2xx status
//	}
package fetch
