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
	"fmt"
	"strings"
)

const parseSystemPrompt = `You are an expert at understanding email composition requests.

Extract the following information from the user's request:
1. Recipient name or title
2. Email purpose/intent
3. Key points that must be included
4. Tone preference (if mentioned): formal, casual, assertive, empathetic
5. Any constraints (length, specific requirements)
6. Additional context

Return your analysis as a JSON object with these fields:
- recipient_name
- recipient_email (if provided)
- email_purpose
- key_points (array)
- tone_preference (default: "formal")
- constraints (object with any limits)
- context (any background info)

Be thorough but concise. If information isn't provided, use reasonable defaults.`

const intentSystemPrompt = `You are an expert at classifying email intents.

Based on the email purpose and context, classify the intent into ONE of these categories:
%s

Respond with ONLY the intent category name (e.g., "outreach", "follow_up", etc.).
No explanation needed. Just the exact category name.`

func intentUserPrompt(p ParsedInput) string {
	return fmt.Sprintf("Email Purpose: %s\nKey Points: %s\nContext: %s",
		p.EmailPurpose, strings.Join(p.KeyPoints, ", "), p.Context)
}

// writerPrompts holds the intent-specific drafting instructions. Each
// entry expects recipient, purpose, key points, and tone to be appended
// by writerUserPrompt.
var writerPrompts = map[Intent]string{
	IntentOutreach: `Write a professional outreach email with this structure:

1. Personalized opening (reference recipient's work/company)
2. Brief self-introduction
3. Clear value proposition
4. Specific ask or next step
5. Professional closing

Make it concise (150-200 words), engaging, and action-oriented.`,

	IntentFollowUp: `Write a follow-up email that:

1. References previous interaction/email
2. Provides context reminder
3. Adds new value or information
4. Includes clear call-to-action
5. Shows respect for their time

Keep it brief (100-150 words) and non-pushy.`,

	IntentThankYou: `Write a genuine thank you email that:

1. Opens with sincere gratitude
2. Specifically mentions what you're thanking them for
3. Explains the impact or value
4. Offers reciprocity if appropriate
5. Warm closing

Make it warm and authentic (100-150 words).`,

	IntentMeetingRequest: `Write a meeting request email that:

1. Clear subject line suggestion
2. Brief context for the meeting
3. Proposed agenda or topics
4. Specific time options or scheduling link
5. Expected duration

Be respectful and organized (150-200 words).`,

	IntentApology: `Write a sincere apology email that:

1. Takes clear responsibility
2. Acknowledges the impact
3. Explains what happened (briefly, no excuses)
4. Describes corrective action
5. Asks for another chance

Be genuine and concise (150-200 words).`,

	IntentInformationRequest: `Write an information request email that:

1. Polite opening
2. Context for your request
3. Specific questions or information needed
4. Why you're asking them specifically
5. Appreciation for their time

Be clear and respectful (150-200 words).`,

	IntentStatusUpdate: `Write a professional status update email that:

1. Clear subject line or opening about the update
2. Current status/progress summary
3. Key accomplishments or milestones
4. Next steps or upcoming actions
5. Call to action if needed

Be concise and structured (150-200 words).`,

	IntentIntroduction: `Write a professional introduction email that:

1. Warm, personalized opening
2. Brief background about yourself
3. How you learned about or were referred to the recipient
4. Shared interests or mutual connections
5. Soft ask or invitation to connect

Be genuine and engaging (150-200 words).`,

	IntentNetworking: `Write a professional networking email that:

1. Personalized compliment or reference
2. Why you admire their work
3. What you're doing and shared interests
4. Suggested ways to stay connected
5. Open invitation to coffee/call

Be authentic and conversational (150-200 words).`,

	IntentComplaint: `Write a professional complaint email that:

1. Respectful, non-accusatory opening
2. Clear description of the issue
3. Impact or consequences
4. Specific resolution requested
5. Timeline and contact information

Be firm but constructive (150-200 words).`,
}

func writerSystemPrompt(intent Intent) string {
	if p, ok := writerPrompts[intent]; ok {
		return p
	}
	return writerPrompts[IntentOutreach]
}

func writerUserPrompt(p ParsedInput, tone Tone) string {
	return fmt.Sprintf("Recipient: %s\nPurpose: %s\nKey Points: %s\nTone: %s",
		p.RecipientName, p.EmailPurpose, strings.Join(p.KeyPoints, "\n- "), tone)
}

const styleSystemPrompt = `You are an expert at adjusting email tone while preserving the core message.

Rewrite the email to match the target tone perfectly while:
1. Keeping all key points and information
2. Maintaining appropriate length
3. Ensuring natural flow
4. Matching the tone guidelines exactly

Return ONLY the rewritten email, no explanations.`

func styleUserPrompt(text string, tone Tone) string {
	g, ok := toneGuidelines[tone]
	if !ok {
		g = toneGuidelines[ToneFormal]
	}
	return fmt.Sprintf(`Original Draft:
%s

Target Tone: %s

Tone Guidelines:
- Characteristics: %s
- Vocabulary: %s
- Structure: %s
- Greeting style: %s
- Closing style: %s`,
		text, tone, g.Characteristics, g.Vocabulary, g.Structure, g.Greeting, g.Closing)
}

const personalizeSystemPrompt = `You are personalizing an email draft with user-specific information.

CRITICAL INSTRUCTIONS for personalization:
1. Add the signature at the end
2. ONLY use profile fields that have actual values (not empty strings)
3. If Name is provided and not empty, use it in the signature and body where appropriate
4. If Title is provided and not empty, use it where relevant (e.g., "I am [Title]")
5. If Company is provided and not empty, use it where relevant (e.g., "at [Company]")
6. NEVER generate placeholder text like "[Your Name]", "[Your Title]", "[Your Company]", or similar brackets
7. If a field is empty, simply omit that information - do not create placeholders
8. Match the user's preferred writing style
9. Keep the core message intact

Return ONLY the personalized email with NO placeholder brackets.`

func personalizeUserPrompt(text string, profile Profile, signature string, targetLength int) string {
	return fmt.Sprintf(`Original Draft:
%s

User Profile:
- Name: %s
- Title: %s
- Company: %s
- Signature: %s
- Writing Style Notes: %s
- Target length (words): %d`,
		text, profile.UserName, profile.UserTitle, profile.UserCompany,
		signature, profile.StyleNotes, targetLength)
}

const reviewSystemPrompt = `You are an expert email reviewer and editor. Analyze this email draft and improve it if needed.

Review Criteria:
1. Tone Alignment: Does it match the expected tone?
2. Clarity: Is the message clear and well-structured?
3. Grammar: Are there any grammatical errors?
4. Completeness: Does it cover all necessary points?
5. Professional Quality: Is it polished and professional?

If the email needs improvement, provide an improved version.
If it's already excellent, return it as-is.

Return ONLY the final email draft (improved or original), no explanations.`

func reviewUserPrompt(text string, tone Tone, intent Intent) string {
	return fmt.Sprintf("Email Draft:\n%s\n\nExpected Tone: %s\nExpected Intent: %s", text, tone, intent)
}

const refineSystemPrompt = `You are an expert email refinement specialist. Polish the final email draft by addressing these specific issues:

1. REMOVE DUPLICATE SIGNATURES
   If the closing (e.g., "Best regards" or "Sincerely") appears more than once,
   keep ONLY ONE signature block at the end of the email.

2. FIX GRAMMAR AND SPELLING MISTAKES
   Correct grammatical errors, spelling mistakes, capitalization, and punctuation.

3. REMOVE REPETITIVE SENTENCES
   Collapse sentences that repeat the same point.

Preserve the tone, intent, and key content. Return ONLY the refined email.`

func refineUserPrompt(text string) string {
	return "Email Draft to Refine:\n" + text
}
