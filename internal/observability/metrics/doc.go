// Package metrics holds the process-wide Prometheus collectors for the scan
// pipeline: catalog requests, the release cache, scan runs, deliveries and
// the webhook endpoint. Collectors register on the default registry and are
// served by the worker's /metrics endpoint.
//
//	start := time.Now()
//	resp, err := doRequest()
//	metrics.RecordCatalogRequest("artist_albums", resp.StatusCode(), time.Since(start))
package metrics
