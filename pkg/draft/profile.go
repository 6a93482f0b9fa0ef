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

package draft

import (
	"context"
	"strings"
)

// Profile holds the user-specific details woven into a personalized draft.
type Profile struct {
	UserName    string         `json:"user_name" yaml:"user_name"`
	UserTitle   string         `json:"user_title,omitempty" yaml:"user_title,omitempty"`
	UserCompany string         `json:"user_company,omitempty" yaml:"user_company,omitempty"`
	Signature   string         `json:"signature,omitempty" yaml:"signature,omitempty"`
	StyleNotes  string         `json:"style_notes,omitempty" yaml:"style_notes,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// DefaultProfile is used when no stored profile exists for a user.
func DefaultProfile() Profile {
	return Profile{
		UserName:   "User",
		Signature:  "Best regards",
		StyleNotes: "professional and clear",
	}
}

// ProfileStore loads and saves user profiles. A nil error with a nil
// profile means the user has no stored profile.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, userID string, profile *Profile) error
}

// EffectiveSignature builds the signature block for the profile,
// ensuring leading spacing and that the user's name appears on its own
// line when not already part of the signature.
func (p Profile) EffectiveSignature() string {
	sig := strings.TrimSpace(p.Signature)
	if sig == "" {
		sig = "Best regards"
	}
	name := strings.TrimSpace(p.UserName)
	if name != "" && !strings.Contains(strings.ToLower(sig), strings.ToLower(name)) {
		if !strings.HasSuffix(sig, ",") {
			sig += ","
		}
		sig += "\n" + name
	}
	return "\n\n" + sig
}
