// Package http implements the HTTP request handlers for the RevLens
// dashboard API. It is a thin layer between transport and business
// logic: handlers parse and validate requests, delegate to the service
// layer, and render JSON (or CSV for the export endpoint).
//
// Errors are rendered as RFC 7807 problem+json through the shared
// error handler; service errors are transformed, never leaked raw.
package http
