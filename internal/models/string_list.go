package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Tags is a set of free-text labels. It decodes from either an array or a single
// comma separated string, which is what the admin forms submit.
type Tags []string

// ParseTags splits a comma separated string, trimming blanks and dropping duplicates.
func ParseTags(raw string) Tags {
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims every value and keeps the first occurrence of each tag.
func NormalizeTags(values []string) Tags {
	seen := map[string]struct{}{}
	out := make(Tags, 0, len(values))

	for _, v := range values {
		tag := strings.TrimSpace(v)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Join renders the tags the way the CSV export and admin forms expect.
func (t Tags) Join() string {
	return strings.Join(t, ", ")
}

// UnmarshalBSONValue accepts both string and array BSON types so documents written by
// older tooling still decode.
func (t *Tags) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	switch typ {
	case bsontype.Null, bsontype.Undefined:
		*t = Tags{}
		return nil
	case bsontype.Array:
		var values []string
		if err := bson.UnmarshalValue(typ, data, &values); err != nil {
			return err
		}
		*t = NormalizeTags(values)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(typ, data, &value); err != nil {
			return err
		}
		*t = ParseTags(value)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Tags", typ)
	}
}

// MarshalBSONValue always stores the tags as an array.
func (t Tags) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t == nil {
		return bson.MarshalValue([]string{})
	}
	return bson.MarshalValue([]string(t))
}

func (t *Tags) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*t = NormalizeTags(values)
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings")
	}
	*t = ParseTags(value)
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
