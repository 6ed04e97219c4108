// Package http contains the chi HTTP handlers for the extraction API.
// Handlers expose a Routes() chi.Router and respond with the standard
// envelope on success and RFC 7807 problem documents on failure.
package http
