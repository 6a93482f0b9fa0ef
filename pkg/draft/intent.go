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

// Package draft implements the staged email generation service: parsing,
// intent classification, drafting, tone styling, personalization, review,
// and refinement, plus the regeneration entry points.
package draft

import "strings"

// Intent classifies what kind of email the user wants to write.
type Intent string

// The fixed set of recognized intents. Classification output outside this
// set falls back to IntentOutreach.
const (
	IntentOutreach           Intent = "outreach"
	IntentFollowUp           Intent = "follow_up"
	IntentApology            Intent = "apology"
	IntentInformationRequest Intent = "information_request"
	IntentThankYou           Intent = "thank_you"
	IntentMeetingRequest     Intent = "meeting_request"
	IntentStatusUpdate       Intent = "status_update"
	IntentIntroduction       Intent = "introduction"
	IntentNetworking         Intent = "networking"
	IntentComplaint          Intent = "complaint"
)

// AllIntents lists every recognized intent in a stable order.
var AllIntents = []Intent{
	IntentOutreach,
	IntentFollowUp,
	IntentApology,
	IntentInformationRequest,
	IntentThankYou,
	IntentMeetingRequest,
	IntentStatusUpdate,
	IntentIntroduction,
	IntentNetworking,
	IntentComplaint,
}

// Valid reports whether i is one of the recognized intents.
func (i Intent) Valid() bool {
	for _, v := range AllIntents {
		if i == v {
			return true
		}
	}
	return false
}

// NormalizeIntent maps a raw classification response onto a recognized
// intent. It lowercases, converts spaces to underscores, and falls back
// to substring matching before defaulting to IntentOutreach.
func NormalizeIntent(raw string) Intent {
	cleaned := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	candidate := Intent(cleaned)
	if candidate.Valid() {
		return candidate
	}
	for _, v := range AllIntents {
		if strings.Contains(cleaned, string(v)) || strings.Contains(string(v), cleaned) && cleaned != "" {
			return v
		}
	}
	return IntentOutreach
}

// DetectIntentHeuristic classifies intent from the stated purpose using
// keyword matching. It is the offline fallback when the model is
// unavailable.
func DetectIntentHeuristic(purpose string) Intent {
	p := strings.ToLower(purpose)
	switch {
	case strings.Contains(p, "follow"):
		return IntentFollowUp
	case strings.Contains(p, "thank"):
		return IntentThankYou
	case strings.Contains(p, "meeting") || strings.Contains(p, "schedule"):
		return IntentMeetingRequest
	case strings.Contains(p, "apolog"):
		return IntentApology
	case strings.Contains(p, "info") || strings.Contains(p, "question") || strings.Contains(p, "help"):
		return IntentInformationRequest
	case strings.Contains(p, "status") || strings.Contains(p, "update"):
		return IntentStatusUpdate
	}
	return IntentOutreach
}
