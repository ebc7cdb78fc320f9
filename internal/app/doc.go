// Package app wires the RevLens service together: configuration,
// logging, telemetry, the dataset store and dashboard service, the chi
// router and the HTTP server lifecycle.
package app
