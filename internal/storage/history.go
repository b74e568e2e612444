// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jeranaias/pai/internal/model"
	"github.com/jeranaias/pai/internal/util"
)

// DefaultHistoryFile is the history path used when none is configured.
// Relative paths resolve against the working directory.
const DefaultHistoryFile = "chat_history.json"

// ErrHistoryNotFound is returned by LoadStrict when no history file exists.
var ErrHistoryNotFound = errors.New("history file not found")

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists a conversation as a single JSON array of
// {"role", "content"} objects. The file is always read and written whole.
type HistoryStore struct {
	// Path is the history file location.
	Path string
}

// NewHistoryStore creates a store for path, falling back to
// DefaultHistoryFile when path is empty.
func NewHistoryStore(path string) *HistoryStore {
	if path == "" {
		path = DefaultHistoryFile
	}
	return &HistoryStore{Path: path}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load returns the persisted conversation. A missing, unreadable or
// malformed file is logged and yields an empty conversation; Load never fails.
func (s *HistoryStore) Load() []model.Message {
	msgs, err := s.LoadStrict()
	if err != nil {
		if errors.Is(err, ErrHistoryNotFound) {
			log.Printf("HISTORY_LOAD | path=%s status=missing", s.Path)
		} else {
			log.Printf("HISTORY_LOAD_ERROR | path=%s error=%v", s.Path, err)
		}
		return []model.Message{}
	}
	unknown := 0
	for _, m := range msgs {
		if !m.Role.Valid() {
			unknown++
		}
	}
	log.Printf("HISTORY_LOAD | path=%s messages=%d unknown_roles=%d", s.Path, len(msgs), unknown)
	return msgs
}

// LoadStrict is Load without the fallback: it reports why the file could
// not be used.
func (s *HistoryStore) LoadStrict() ([]model.Message, error) {
	data, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// ReadRaw returns the history file bytes as stored.
func (s *HistoryStore) ReadRaw() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return data, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save replaces the history file with msgs. Errors are logged and returned;
// callers shutting down are expected to carry on regardless.
func (s *HistoryStore) Save(msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}

	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		log.Printf("HISTORY_SAVE_ERROR | path=%s error=%v", s.Path, err)
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if err := util.AtomicWriteFile(s.Path, data, 0644); err != nil {
		log.Printf("HISTORY_SAVE_ERROR | path=%s error=%v", s.Path, err)
		return fmt.Errorf("failed to write history: %w", err)
	}

	log.Printf("HISTORY_SAVE | path=%s messages=%d", s.Path, len(msgs))
	return nil
}
