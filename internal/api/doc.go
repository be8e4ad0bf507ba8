// Package api hosts the HTTP query service over stored listings. Notable
// routes:
//   - GET /data, /data/search and /data/{param} for paginated reads.
//   - DELETE /data/{param} for admin removal, gated by the admin API key.
//   - GET /health and /healthz for liveness checks, GET /metrics for Prometheus.
package api
