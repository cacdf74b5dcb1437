// Package source fetches the current metric value from an external HTTP
// endpoint. Two response formats are supported: Spring Boot Actuator JSON
// and Prometheus text exposition.
package source
