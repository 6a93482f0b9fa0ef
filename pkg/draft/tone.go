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

// Tone is the requested voice of the email.
type Tone string

const (
	ToneFormal     Tone = "formal"
	ToneCasual     Tone = "casual"
	ToneAssertive  Tone = "assertive"
	ToneEmpathetic Tone = "empathetic"
)

// toneGuidelines drives the styling prompt for each supported tone.
// Unknown tones fall back to formal.
type toneGuideline struct {
	Characteristics string
	Vocabulary      string
	Structure       string
	Greeting        string
	Closing         string
}

var toneGuidelines = map[Tone]toneGuideline{
	ToneFormal: {
		Characteristics: "Professional, structured, no contractions, proper titles",
		Vocabulary:      "sophisticated, traditional business language",
		Structure:       "well-organized with clear paragraphs",
		Greeting:        "Dear [Name] / Dear Sir/Madam",
		Closing:         "Sincerely / Best regards / Respectfully",
	},
	ToneCasual: {
		Characteristics: "Friendly, conversational, use contractions",
		Vocabulary:      "simple, everyday language",
		Structure:       "natural flow, shorter paragraphs",
		Greeting:        "Hi [Name] / Hey [Name]",
		Closing:         "Thanks / Cheers / Best",
	},
	ToneAssertive: {
		Characteristics: "Direct, confident, action-oriented, clear",
		Vocabulary:      "strong action verbs, decisive language",
		Structure:       "bullet points, clear CTAs",
		Greeting:        "Hello [Name]",
		Closing:         "Looking forward to your response / Let's move forward",
	},
	ToneEmpathetic: {
		Characteristics: "Understanding, supportive, compassionate",
		Vocabulary:      "warm, acknowledging feelings",
		Structure:       "gentle flow, validating statements",
		Greeting:        "Dear [Name]",
		Closing:         "With understanding / Warm regards",
	},
}

// NormalizeTone maps raw input to a supported tone, defaulting to formal.
func NormalizeTone(raw string) Tone {
	t := Tone(raw)
	if _, ok := toneGuidelines[t]; ok {
		return t
	}
	return ToneFormal
}
