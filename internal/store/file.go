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

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftflow/draftflow/pkg/draft"
)

// FileStore implements Store with flat JSON files under a directory:
// profiles.json for all profiles and drafts.json for history. It is the
// fallback when no database is configured.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) profilesPath() string { return filepath.Join(f.dir, "profiles.json") }
func (f *FileStore) draftsPath() string   { return filepath.Join(f.dir, "drafts.json") }

func (f *FileStore) readProfiles() (map[string]*draft.Profile, error) {
	data, err := os.ReadFile(f.profilesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*draft.Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	profiles := map[string]*draft.Profile{}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	return profiles, nil
}

func (f *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

// LoadProfile returns the stored profile for userID, or nil when absent.
func (f *FileStore) LoadProfile(ctx context.Context, userID string) (*draft.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profiles, err := f.readProfiles()
	if err != nil {
		return nil, err
	}
	return profiles[userID], nil
}

// SaveProfile upserts the profile for userID.
func (f *FileStore) SaveProfile(ctx context.Context, userID string, profile *draft.Profile) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	profiles, err := f.readProfiles()
	if err != nil {
		return err
	}
	profiles[userID] = profile
	return f.writeJSON(f.profilesPath(), profiles)
}

func (f *FileStore) readDrafts() ([]DraftRecord, error) {
	data, err := os.ReadFile(f.draftsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read drafts: %w", err)
	}
	var records []DraftRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return records, nil
}

// SaveDraft appends a generation result to the history file.
func (f *FileStore) SaveDraft(ctx context.Context, record *DraftRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.readDrafts()
	if err != nil {
		return err
	}
	records = append(records, *record)
	return f.writeJSON(f.draftsPath(), records)
}

// ListDrafts returns a user's drafts, newest first.
func (f *FileStore) ListDrafts(ctx context.Context, userID string, limit int) ([]DraftRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readDrafts()
	if err != nil {
		return nil, err
	}

	var records []DraftRecord
	for _, r := range all {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op for the file store.
func (f *FileStore) Close() error { return nil }
