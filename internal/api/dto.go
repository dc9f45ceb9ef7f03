package api

// GemmRequest describes one randomized C = A·B + C job. Geometry fields
// mirror the engine configuration; Seed fixes the operand contents so a
// job is reproducible.
type GemmRequest struct {
	N    int `json:"n"`
	K    int `json:"k"`
	M    int `json:"m"`
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	Width int `json:"width"`
	Tile  int `json:"tile"`

	Seed   int64 `json:"seed"`
	Verify *bool `json:"verify,omitempty"`
}

// GemmResponse reports a finished job.
type GemmResponse struct {
	ID       string `json:"id"`
	Geometry string `json:"geometry"`

	ElapsedMS float64 `json:"elapsed_ms"`
	GFLOPS    float64 `json:"gflops"`
	MACs      int64   `json:"macs"`

	StreamedA int64 `json:"streamed_a"`
	StreamedB int64 `json:"streamed_b"`
	Collected int64 `json:"collected"`

	BytesToDevice int64 `json:"bytes_to_device"`
	BytesToHost   int64 `json:"bytes_to_host"`

	Verified *bool    `json:"verified,omitempty"`
	Diff     *float64 `json:"diff,omitempty"`
}

// ErrorResponse is the error envelope for all non-2xx replies.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
