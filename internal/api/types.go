package api

// ErrorResponse is the JSON body returned for failed chat requests. Detail
// is human-readable; the client surfaces it verbatim.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// RootResponse is the fixed acknowledgment served at the root endpoint.
type RootResponse struct {
	Message string `json:"message"`
}
