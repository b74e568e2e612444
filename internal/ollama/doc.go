// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Only the non-streaming /api/chat call is used: the whole conversation goes
// up, one complete assistant message comes back.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - ChatResponse: Response structure with message and metrics
//   - ClientError: Typed error; compare with errors.Is against the sentinels
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL:      "http://127.0.0.1:11434",
//	    DefaultModel: "llama3",
//	})
//	resp, err := client.Chat(ctx, "", []ollama.Message{ollama.NewUserMessage("Hello")})
//	if ollama.IsNotRunning(err) {
//	    // start it with: ollama serve
//	}
package ollama
