// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for pai.
//
// Configuration is optional. Sources, later ones winning:
//   - built-in defaults (model llama3, history chat_history.json)
//   - ~/.pai/config.toml, or the file given with --config
//   - a .env file in the working directory
//   - PAI_* environment variables
//
// Watch reloads the file on change so the model can be switched without
// restarting the UI.
package config
