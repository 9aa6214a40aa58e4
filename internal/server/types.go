// Package server provides the HTTP server for the conversion API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"github.com/maauso/mediaconvert-api/internal/catalog"
	"github.com/maauso/mediaconvert-api/internal/convert"
)

// convertForm holds the scalar multipart fields of a conversion request.
type convertForm struct {
	// Tool is the requested tool id, e.g. "rotate-image".
	Tool string `validate:"required,max=64"`
	// Category is the routing category. Empty means "derive from the file type".
	Category string `validate:"omitempty,max=32,alphanum"`
}

// PublishResponse is the HTTP response when a result was uploaded to object storage.
type PublishResponse struct {
	// Name is the output file name.
	Name string `json:"name"`
	// Type is the output media type.
	Type string `json:"type"`
	// Size is the output size in bytes.
	Size int64 `json:"size"`
	// URL is where the uploaded result can be fetched.
	URL string `json:"url"`
	// OriginalName is the uploaded file name.
	OriginalName string `json:"originalName"`
	// OriginalSize is the uploaded file size in bytes.
	OriginalSize int64 `json:"originalSize"`
	// Message describes what was done.
	Message string `json:"message,omitempty"`
	// Placeholder is set when the result is demo content.
	Placeholder bool `json:"placeholder,omitempty"`
}

// ToolsResponse is the HTTP response for the tool catalog.
type ToolsResponse struct {
	// Categories lists every category that has at least one tool.
	Categories []convert.CategoryID `json:"categories"`
	// Tools is the catalog, optionally filtered by category.
	Tools []catalog.Tool `json:"tools"`
}

// EngineResponse describes the video engine.
type EngineResponse struct {
	// State is one of "unloaded", "loading" or "ready".
	State string `json:"state"`
	// Version is the ffmpeg version line once loaded.
	Version string `json:"version,omitempty"`
	// Slots is the number of transcodes that may run at once.
	Slots int `json:"slots"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
