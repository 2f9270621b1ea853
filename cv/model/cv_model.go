package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names a scalar attribute of a CV profile as stored in the CV document.
type Field string

const (
	FieldFamilyName   Field = "familyName"
	FieldGivenName    Field = "givenName"
	FieldLocality     Field = "locality"
	FieldPlaceOfBirth Field = "placeOfBirth"
	FieldFamilyStatus Field = "familyStatus"
	FieldLanguages    Field = "languages"
)

// ScalarFields lists every scalar field of the CV schema in template order.
var ScalarFields = []Field{
	FieldFamilyName,
	FieldGivenName,
	FieldLocality,
	FieldPlaceOfBirth,
	FieldFamilyStatus,
	FieldLanguages,
}

// SkillsKey is the document key holding the skill rating map.
const SkillsKey = "skills"

// CVProfile is the closed, typed view of a stored CV document.
type CVProfile struct {
	ID           string       `json:"id,omitempty"`
	FamilyName   FieldValue   `json:"familyName"`
	GivenName    FieldValue   `json:"givenName"`
	Locality     FieldValue   `json:"locality"`
	PlaceOfBirth FieldValue   `json:"placeOfBirth"`
	FamilyStatus FieldValue   `json:"familyStatus"`
	Languages    FieldValue   `json:"languages"`
	Skills       SkillRatings `json:"skills"`
}

// Fields returns the scalar fields keyed by field name. Empty values are omitted.
func (p CVProfile) Fields() map[string]string {
	values := map[Field]FieldValue{
		FieldFamilyName:   p.FamilyName,
		FieldGivenName:    p.GivenName,
		FieldLocality:     p.Locality,
		FieldPlaceOfBirth: p.PlaceOfBirth,
		FieldFamilyStatus: p.FamilyStatus,
		FieldLanguages:    p.Languages,
	}
	out := make(map[string]string, len(values))
	for field, value := range values {
		if value == "" {
			continue
		}
		out[string(field)] = string(value)
	}
	return out
}

// ParseProfile decodes a raw CV document into a CVProfile.
// Unknown keys are ignored; skill ratings keep document order.
func ParseProfile(id string, raw []byte) (CVProfile, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return CVProfile{}, errors.New("cv document is empty")
	}
	var profile CVProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return CVProfile{}, fmt.Errorf("decode cv document: %w", err)
	}
	if id != "" {
		profile.ID = id
	}
	return profile, nil
}

// FieldValue is a scalar CV value. Numbers and booleans are kept in their
// JSON text form; objects and arrays decode to an empty value.
type FieldValue string

// UnmarshalJSON accepts any JSON scalar.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = FieldValue(strings.TrimSpace(s))
	case '{', '[':
		*v = ""
	default:
		*v = FieldValue(string(trimmed))
	}
	return nil
}

// Rating is the proficiency level attached to a skill. Valid levels are 1..3.
type Rating int

const (
	RatingUnknown      Rating = 0
	RatingBasic        Rating = 1
	RatingIntermediate Rating = 2
	RatingExpert       Rating = 3
)

// UnknownRatingLabel is rendered in place of a malformed rating.
const UnknownRatingLabel = "-"

// Valid reports whether the rating is inside the closed 1..3 range.
func (r Rating) Valid() bool {
	return r >= RatingBasic && r <= RatingExpert
}

// Label returns the text written into documents for the rating.
func (r Rating) Label() string {
	if !r.Valid() {
		return UnknownRatingLabel
	}
	return strconv.Itoa(int(r))
}

// ParseRating converts a stored rating value. Ratings are stored as strings
// ("1".."3") or numbers; anything else yields RatingUnknown and false.
func ParseRating(value any) (Rating, bool) {
	var n int
	switch v := value.(type) {
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return RatingUnknown, false
		}
		n = parsed
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return RatingUnknown, false
		}
		return ParseRating(f)
	case float64:
		// 2.0 is a rating, 2.5 is not.
		if v != math.Trunc(v) || v < float64(RatingBasic) || v > float64(RatingExpert) {
			return RatingUnknown, false
		}
		n = int(v)
	case int:
		n = v
	case Rating:
		n = int(v)
	default:
		return RatingUnknown, false
	}
	r := Rating(n)
	if !r.Valid() {
		return RatingUnknown, false
	}
	return r, true
}

// SkillRating is one entry of a CV's skill rating map.
type SkillRating struct {
	SkillID string
	Rating  Rating
	// Malformed is set when the stored value was not a rating in range.
	Malformed bool
}

// SkillRatings is the ordered skill-id to rating mapping of a CV.
type SkillRatings []SkillRating

// UnmarshalJSON decodes a JSON object while preserving key order. A repeated
// key keeps its first position and its last value.
func (s *SkillRatings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("skills must be an object")
	}

	out := SkillRatings{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("skills key must be a string")
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		rating, valid := ParseRating(raw)
		entry := SkillRating{SkillID: key, Rating: rating, Malformed: !valid}
		if pos, seen := index[key]; seen {
			out[pos] = entry
			continue
		}
		index[key] = len(out)
		out = append(out, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// SkillCatalogEntry is a skill known to the catalog.
type SkillCatalogEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ResolvedSkill is a CV skill rating joined with its catalog entry.
type ResolvedSkill struct {
	SkillID  string
	Name     string
	Category string
	Rating   Rating
}

// GeneratedDocument is a rendered, downloadable document.
type GeneratedDocument struct {
	Content     []byte
	ContentType string
	FileName    string
}
