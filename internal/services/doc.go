// Package services contains the application services sitting between the
// HTTP transport and the extraction engine. ExtractionService runs the
// detect/extract/forecast/aggregate pipeline over a loaded workbook grid and
// streams stage progress to WebSocket clients; HealthService answers the
// health and version endpoints.
package services
