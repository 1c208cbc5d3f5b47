// Package metrics registers the Prometheus collectors for castctl.
//
// Collectors are package globals created with promauto on the default
// registry, so recording is a plain function call from any package and the
// bridge exposes them with promhttp.Handler(). Recording functions never
// fail and normalise empty label values to "unknown".
package metrics
