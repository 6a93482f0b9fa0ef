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

package llm

import (
	"testing"
	"time"
)

func TestParseRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want time.Duration
		ok   bool
	}{
		{
			name: "plain retry in seconds",
			msg:  "429 Too Many Requests: please retry in 51.6s",
			want: time.Duration(51.6 * float64(time.Second)),
			ok:   true,
		},
		{
			name: "retry in without space",
			msg:  "retry in 3s",
			want: 3 * time.Second,
			ok:   true,
		},
		{
			name: "retry-after header style",
			msg:  `rate limited, retry-after: 30`,
			want: 30 * time.Second,
			ok:   true,
		},
		{
			name: "retry_after with equals",
			msg:  "quota exceeded retry_after=12",
			want: 12 * time.Second,
			ok:   true,
		},
		{
			name: "protobuf retry_delay fragment",
			msg:  `rpc error: code = ResourceExhausted, retry_delay { seconds: 51 }`,
			want: 51 * time.Second,
			ok:   true,
		},
		{
			name: "case insensitive",
			msg:  "Please Retry In 7s",
			want: 7 * time.Second,
			ok:   true,
		},
		{
			name: "suggested delay capped",
			msg:  "server overloaded, retry in 600s",
			want: MaxServerDelay,
			ok:   true,
		},
		{
			name: "no hint",
			msg:  "internal server error",
			want: 0,
			ok:   false,
		},
		{
			name: "empty message",
			msg:  "",
			want: 0,
			ok:   false,
		},
		{
			name: "zero seconds rejected",
			msg:  "retry in 0s",
			want: 0,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryDelay(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ParseRetryDelay(%q) ok = %v, want %v", tt.msg, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseRetryDelay(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
