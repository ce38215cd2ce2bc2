// Package metrics counts crawl activity with Prometheus collectors.
//
// A crawl is a short-lived batch process, so nothing is served over HTTP.
// Collectors live on a private registry and can be written once at the end
// of a run to a node-exporter textfile (see WriteTextfile).
//
// Metrics:
//   - puzzlecrawl_fetch_requests_total{source,result}
//   - puzzlecrawl_fetch_wait_seconds
//   - puzzlecrawl_store_writes_total{kind,result}
//   - puzzlecrawl_answers_missing_total
//   - puzzlecrawl_crawl_stops_total{mode,reason}
package metrics
