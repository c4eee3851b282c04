package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestTagsDecodeLegacyCommaString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"tags": "gift, cozy ,gift,"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc struct {
		Tags Tags `bson:"tags"`
	}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Tags) != 2 || doc.Tags[0] != "gift" || doc.Tags[1] != "cozy" {
		t.Fatalf("expected [gift cozy], got %v", doc.Tags)
	}
}

func TestTagsAlwaysStoredAsArray(t *testing.T) {
	raw, err := bson.Marshal(struct {
		Tags Tags `bson:"tags"`
	}{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := out["tags"].(bson.A); !ok {
		t.Fatalf("expected tags array, got %T", out["tags"])
	}
}

func TestTagsJSONAcceptsStringOrArray(t *testing.T) {
	var fromString Tags
	if err := json.Unmarshal([]byte(`"tech, audio"`), &fromString); err != nil {
		t.Fatalf("string form: %v", err)
	}
	var fromArray Tags
	if err := json.Unmarshal([]byte(`["tech"," audio "]`), &fromArray); err != nil {
		t.Fatalf("array form: %v", err)
	}
	if fromString.Join() != "tech, audio" || fromArray.Join() != "tech, audio" {
		t.Fatalf("unexpected tags %v / %v", fromString, fromArray)
	}

	if err := json.Unmarshal([]byte(`42`), &fromString); err == nil {
		t.Fatal("expected error for numeric tags")
	}
}

func TestParseCategory(t *testing.T) {
	got, ok := ParseCategory(" beauty ")
	if !ok || got != CategoryBeauty {
		t.Fatalf("expected Beauty, got %q ok=%v", got, ok)
	}
	if _, ok := ParseCategory("Garden"); ok {
		t.Fatal("Garden is not an accepted category")
	}
}

func TestIsImageURL(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/a.png": true,
		"/uploads/products/a.png":       true,
		DefaultImage:                    false,
		"":                              false,
	}
	for value, want := range cases {
		if got := IsImageURL(value); got != want {
			t.Fatalf("IsImageURL(%q) = %v, want %v", value, got, want)
		}
	}
}
