// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge is the request/response boundary between the front ends
// and the session manager.
//
// Every operation takes and returns plain values. Failures come back as a
// Response with Error set; nothing panics or returns a Go error across the
// boundary. Front ends may call the typed methods directly or route by
// channel name with Dispatch:
//
//	check-auth         -> Authenticated
//	get-current-model  -> Model
//	get-history        -> History
//	change-model       -> Success | Error
//	save-api-key       -> Success | Error
//	send-to-gemini     -> Text | Error
//	generate-image     -> Image (data URI) | Error
//	clear-history      -> Success | Error
//	save-image         -> Path | Error
package bridge
