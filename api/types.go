package api

const postEventMaxSize = 64 * 1024 // 64 KiB

// HeaderClientID carries the transient viewer identity assigned on stream
// connect. Mutations without it are attributed to "anonymous".
const HeaderClientID = "X-Client-Id"

// POST /api/events response body
type postEventResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GET /healthz response body
type healthResponse struct {
	Status    string `json:"status"`
	Viewers   int    `json:"viewers"`
	Tasks     int    `json:"tasks"`
	Timestamp string `json:"timestamp"`
}

// POST /api/upload request and response bodies. The endpoint only echoes
// descriptor metadata back; file bodies are not stored here.
type uploadRequest struct {
	Files []fileDescriptor `json:"files"`
}

type uploadResponse struct {
	Success bool             `json:"success"`
	Files   []fileDescriptor `json:"files"`
}

type fileDescriptor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}
