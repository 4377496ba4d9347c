package models

// RunCodeRequest is the body for POST /interview/run-code
type RunCodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// RunCodeResponse mirrors the editor contract: the candidate always gets
// something to render, and Error is null on success.
type RunCodeResponse struct {
	Output string  `json:"output"`
	Error  *string `json:"error"`
}
