// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the Legal AI backend.
//
// Every endpoint answers with the envelope {success, data?, message?}. The
// client unwraps it and reports two kinds of failure:
//
//   - *Error for non-2xx responses, carrying the status and the best message
//     found in the body. Its text is "HTTP <status>: <message>".
//   - *EnvelopeError for 2xx responses that report success == false or lack
//     data. Its text is a fixed per-operation sentence such as
//     "Failed to fetch conversations"; errors.Is(err, ErrUnsuccessful) holds.
//
// Transport failures are returned wrapped and carry no status.
//
// # Usage
//
//	client := api.New(api.Config{BaseURL: cfg.API.BaseURL}, store, logger)
//	convs, err := client.GetConversations(ctx)
//	if err != nil {
//	    if status := api.StatusCode(err); status == 401 {
//	        // prompt for login
//	    }
//	}
package api
