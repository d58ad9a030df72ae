package types

// LaunchRequest is the body of POST /launch.
type LaunchRequest struct {
	// Version id to launch.
	// example: 1.20.1
	Version string `json:"version" example:"1.20.1"`
	// Optional player name overriding the configured credentials.
	// example: Steve
	Player string `json:"player,omitempty" example:"Steve"`
	// Optional feature flags merged over the configured ones.
	Features map[string]bool `json:"features,omitempty"`
}

// TaskStatus summarizes one launch task.
type TaskStatus struct {
	// Task id (the version id it launches).
	// example: 1.20.1
	ID string `json:"id" example:"1.20.1"`
	// Lifecycle state: idle, checking, starting, success, error.
	// example: starting
	State string `json:"state" example:"starting"`
	// Human-readable status text.
	Text string `json:"text,omitempty"`
	// PID of the game process when one is alive.
	PID int `json:"pid,omitempty"`
	// Unix seconds of the last status change.
	UpdatedUnix int64 `json:"updated_unix"`
}

// StatusResponse is returned by GET /tasks.
type StatusResponse struct {
	Tasks          []TaskStatus `json:"tasks"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	ServerTimeUnix int64        `json:"server_time_unix"`
}

// VersionsResponse wraps the installed versions returned by GET /versions.
type VersionsResponse struct {
	Versions []InstalledVersion `json:"versions"`
}

// InstalledVersion is a version descriptor found on disk.
type InstalledVersion struct {
	// example: 1.20.1
	ID string `json:"id" example:"1.20.1"`
	// Release type from the descriptor.
	// example: release
	Type string `json:"type,omitempty" example:"release"`
	// Base version id for modified clients.
	InheritsFrom string `json:"inherits_from,omitempty"`
	// Absolute path of the descriptor file.
	Path string `json:"path"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: manifest not found: 1.20.1
	Error string `json:"error" example:"manifest not found: 1.20.1"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
