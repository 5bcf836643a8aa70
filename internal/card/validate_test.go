package card

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestValidateDefaultCard(t *testing.T) {
	if err := Validate(DefaultCard()); err != nil {
		t.Fatalf("default card must be well-formed: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CardData)
		wantSub string
	}{
		{"empty document id", func(d *CardData) { d.ID = "" }, "document id"},
		{"bad template", func(d *CardData) { d.Template = "sparkly" }, "invalid template"},
		{"duplicate section id", func(d *CardData) { d.Sections[1].ID = d.Sections[0].ID }, "duplicate section id"},
		{"unknown section type", func(d *CardData) { d.Sections[0].Type = "banner" }, "unknown type"},
		{"empty section id", func(d *CardData) { d.Sections[2].ID = "" }, "empty id"},
		{"duplicate item id", func(d *CardData) { d.Sections[1].Items[1].ID = "s1" }, "duplicate item id"},
		{"duplicate link id", func(d *CardData) { d.SocialLinks[1].ID = "1" }, "duplicate social link id"},
		{"unknown platform", func(d *CardData) { d.SocialLinks[0].Platform = "myspace" }, "unknown platform"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := DefaultCard()
			tc.mutate(&doc)
			err := Validate(doc)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	doc := DefaultCard()

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded CardData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(decoded, doc) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, doc)
	}
	if err := Validate(decoded); err != nil {
		t.Fatalf("decoded document malformed: %v", err)
	}
}

func TestSerializedFieldNames(t *testing.T) {
	data, err := json.Marshal(DefaultCard())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// The wire format keeps the field names of the editor frontend.
	for _, key := range []string{`"themeColor"`, `"personalInfo"`, `"isVisible"`, `"socialLinks"`, `"avatarUrl"`, `"rich-text"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("serialized card missing %s", key)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := DefaultCard()
	cp := doc.Clone()

	cp.Sections[1].Items[0].Title = "changed"
	cp.SocialLinks[0].URL = "changed"
	cp.Sections[0].Title = "changed"

	if doc.Sections[1].Items[0].Title == "changed" ||
		doc.SocialLinks[0].URL == "changed" ||
		doc.Sections[0].Title == "changed" {
		t.Fatalf("clone shares memory with original")
	}
}
