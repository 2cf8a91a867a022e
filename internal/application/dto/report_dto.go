package dto

import "time"

// SubmitReportRequest cuerpo de POST /api/reports. Fragments usa la gramática
// SMS "<producto> <acción>[ <cantidad>]" con acción ∈ {r, c, soh, so, l}.
// Timestamp nulo usa la hora del servidor.
type SubmitReportRequest struct {
	Location  string     `json:"location"`
	Fragments []string   `json:"fragments"`
	Timestamp *time.Time `json:"timestamp"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
