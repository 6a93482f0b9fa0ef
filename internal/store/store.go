// Copyright 2025 The Draftflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists user profiles and generated draft history.
// The SQLite backend is the primary store; the file backend is a
// dependency-free fallback for profile data.
package store

import (
	"context"
	"time"

	"github.com/draftflow/draftflow/pkg/draft"
)

// DraftRecord is one saved generation result.
type DraftRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	InputText  string    `json:"input_text"`
	FinalDraft string    `json:"final_draft"`
	Intent     string    `json:"intent,omitempty"`
	Tone       string    `json:"tone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the full persistence surface: profiles plus draft history.
type Store interface {
	draft.ProfileStore

	// SaveDraft persists a generation result. A zero ID is assigned.
	SaveDraft(ctx context.Context, record *DraftRecord) error

	// ListDrafts returns the most recent drafts for a user, newest
	// first, up to limit. A non-positive limit returns everything.
	ListDrafts(ctx context.Context, userID string, limit int) ([]DraftRecord, error)

	// Close releases any underlying resources.
	Close() error
}
