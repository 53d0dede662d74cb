// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		input string
		want  RefKind
	}{
		{"https://x.com/a.png", RefURL},
		{"http://example.org/v.mp4", RefURL},
		{"HTTPS://EXAMPLE.ORG/A.GIF", RefURL},
		{"uploads/YouTube_create_account_img_1.png", RefStored},
		{"httpdocs/a.png", RefStored},
		{"", RefStored},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref := ParseRef(tt.input)
			if ref.Kind != tt.want {
				t.Errorf("kind: got %v, want %v", ref.Kind, tt.want)
			}
			if ref.String() != tt.input {
				t.Errorf("value: got %q, want %q", ref.String(), tt.input)
			}
		})
	}
}

func TestParseMediaKind(t *testing.T) {
	for _, ok := range []string{"image", "video"} {
		if _, err := ParseMediaKind(ok); err != nil {
			t.Errorf("ParseMediaKind(%q): unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", "images", "audio", "Image"} {
		if _, err := ParseMediaKind(bad); err == nil {
			t.Errorf("ParseMediaKind(%q): expected error", bad)
		}
	}
}

func TestMediaRefJSON(t *testing.T) {
	refs := []MediaRef{URLRef("https://x.com/a.png"), StoredRef("uploads/b.png")}

	data, err := json.Marshal(refs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["https://x.com/a.png","uploads/b.png"]` {
		t.Errorf("marshal: got %s", data)
	}

	var decoded []MediaRef
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 2 || !decoded[0].IsURL() || decoded[1].IsURL() {
		t.Errorf("unmarshal: got %+v", decoded)
	}
}

func TestMediaRefJSONKeepsHTMLCharacters(t *testing.T) {
	const raw = "https://x.com/a.png?w=1&h=<2>"

	data, err := URLRef(raw).MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"`+raw+`"` {
		t.Errorf("marshal: got %s", data)
	}

	var decoded MediaRef
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Value != raw || !decoded.IsURL() {
		t.Errorf("unmarshal: got %+v", decoded)
	}
}

func TestMediaRefUnmarshalRejectsNonString(t *testing.T) {
	var r MediaRef
	if err := json.Unmarshal([]byte(`42`), &r); err == nil {
		t.Error("expected error for non-string reference")
	}
}
