// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// JSONResponse is the --json output of every one-shot command.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Command   string  `json:"command"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
}

// NewJSONResponse wraps data, or err when it is not nil.
func NewJSONResponse(command string, data any, err error) *JSONResponse {
	resp := &JSONResponse{
		Success:   err == nil,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		msg := err.Error()
		resp.Error = &msg
		resp.Data = nil
	}
	return resp
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// emit prints data as JSON when asJSON is set, or calls human otherwise.
// With asJSON, err is reported inside the document and still returned so
// the exit code reflects it.
func emit(w io.Writer, command string, asJSON bool, data any, err error, human func() error) error {
	if asJSON {
		if perr := NewJSONResponse(command, data, err).Print(w); perr != nil {
			return fmt.Errorf("failed to write output: %w", perr)
		}
		if err != nil {
			return &reportedError{err: err}
		}
		return nil
	}
	if err != nil {
		return err
	}
	return human()
}

// reportedError has already been written to stdout as JSON.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
