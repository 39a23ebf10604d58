package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResources(t *testing.T) {
	link := func(url string) Resource { return URLResource(url) }

	tests := []struct {
		name string
		raw  string
		want []Resource
	}{
		{"empty", ``, []Resource{}},
		{"null", `null`, []Resource{}},
		{"bare url text", `https://a.example`, []Resource{link("https://a.example")}},
		{"json string url", `"https://a.example"`, []Resource{link("https://a.example")}},
		{"blank string", `"  "`, []Resource{}},
		{"array of urls", `["https://a","https://b"]`, []Resource{link("https://a"), link("https://b")}},
		{"encoded array in a string", `"[\"https://a\"]"`, []Resource{link("https://a")}},
		{"objects keep display mode", `[{"type":"url","value":"https://a","displayMode":"link"}]`,
			[]Resource{{Type: ResourceURL, Value: "https://a", DisplayMode: DisplayLink}}},
		{"mixed array", `["https://a",{"value":"https://b"},{"value":""},3]`, []Resource{link("https://a"), link("https://b")}},
		{"single object", `{"value":"https://a","displayMode":"iframe-50"}`,
			[]Resource{{Type: ResourceURL, Value: "https://a", DisplayMode: DisplayIframeHalf}}},
		{"broken json string", `"[not json"`, []Resource{link("[not json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseResources(RawValue(tt.raw)))
		})
	}
}

func TestEncodeResources_IsCanonical(t *testing.T) {
	legacy := ParseResources(RawValue(`["https://a"]`))
	encoded, err := EncodeResources(legacy)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"url","value":"https://a","displayMode":"iframe-100"}]`, string(encoded))
	assert.Equal(t, legacy, ParseResources(encoded))
}

func TestRawValue_Scan(t *testing.T) {
	var v RawValue
	require.NoError(t, v.Scan([]byte(`["https://a"]`)))
	assert.Equal(t, `["https://a"]`, string(v))

	require.NoError(t, v.Scan("https://plain.example"))
	assert.Equal(t, `"https://plain.example"`, string(v))

	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
}

func TestParsePermissionSlug(t *testing.T) {
	tests := map[string]PermissionSlug{
		"admin":   SlugAdmin,
		" Chair ": SlugChair,
		"member":  SlugMember,
		"owner":   SlugUnknown,
		"":        SlugUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePermissionSlug(in), in)
	}
}

func TestProfileNames(t *testing.T) {
	tests := []struct {
		full     string
		short    string
		initials string
	}{
		{"Maria da Silva Souza", "Maria Souza", "MS"},
		{"Ana", "Ana", "A"},
		{"  élio   ramos ", "élio ramos", "ÉR"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			p := &Profile{FullName: tt.full}
			assert.Equal(t, tt.short, p.ShortName())
			assert.Equal(t, tt.initials, Initials(tt.full))
		})
	}

	var nilProfile *Profile
	assert.Equal(t, "", nilProfile.ShortName())
	assert.False(t, nilProfile.HasSlug(1, SlugAdmin))
}

func TestHasSlug(t *testing.T) {
	p := &Profile{Roles: []ChapterRole{{ChapterID: 2, Slug: SlugChair}}}
	assert.True(t, p.HasSlug(2, SlugChair))
	assert.False(t, p.HasSlug(2, SlugAdmin))
	assert.False(t, p.HasSlug(1, SlugChair))
}

func TestParseNullTime(t *testing.T) {
	tests := []struct {
		in    string
		want  time.Time
		valid bool
	}{
		{"2024-03-09", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-09T14:30:00Z", time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC), true},
		{"2024-03-09T14:30:00.123456", time.Date(2024, 3, 9, 14, 30, 0, 123456000, time.UTC), true},
		{"2024-03-09 14:30:00", time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC), true},
		{"2024-03-09 14:30:00+00:00", time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC), true},
		{"2024-05-01 00:00:00 +0000 UTC", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNullTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, got.Valid)
			assert.True(t, tt.want.Equal(got.Time), "got %v", got.Time)
		})
	}

	_, err := ParseNullTime("09/03/2024")
	assert.Error(t, err)
}

func TestNullTime_JSON(t *testing.T) {
	var row struct {
		Deadline NullTime `json:"deadline"`
		Start    NullTime `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"deadline":"2024-05-01","start":null}`), &row))
	assert.True(t, row.Deadline.Valid)
	assert.False(t, row.Start.Valid)

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deadline":"2024-05-01T00:00:00Z","start":null}`, string(out))
}

func TestJSONList(t *testing.T) {
	var tags JSONList[string]
	require.NoError(t, tags.Scan(`["a","b"]`))
	assert.Equal(t, JSONList[string]{"a", "b"}, tags)

	value, err := JSONList[string](nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}

func TestStatusFallbacks(t *testing.T) {
	assert.Equal(t, ProjectInProgress, ParseProjectStatus("Em Andamento"))
	assert.Equal(t, ProjectPlanning, ParseProjectStatus("Cancelado"))
	assert.Equal(t, TaskReview, ParseTaskStatus("review"))
	assert.Equal(t, TaskTodo, ParseTaskStatus("blocked"))
	assert.Equal(t, PriorityUrgent, ParseTaskPriority("urgente"))
	assert.Equal(t, PriorityMedium, ParseTaskPriority(""))
	assert.Equal(t, ReimbursementPaid, ParseReimbursementStatus("paid"))
	assert.Equal(t, ReimbursementNotRequired, ParseReimbursementStatus("x"))
	assert.Equal(t, ClassifiedIdea, ParseClassifiedType("idea"))
	assert.Equal(t, ClassifiedHelp, ParseClassifiedType("other"))
}

func TestProjectHelpers(t *testing.T) {
	p := &Project{
		Owners:   []*Profile{{ID: "p-1"}},
		Chapters: []*Chapter{{ID: 2}, {ID: 5}},
	}
	assert.True(t, p.IsOwner("p-1"))
	assert.False(t, p.IsOwner(""))
	assert.Equal(t, []int64{2, 5}, p.ChapterIDs())

	var none *Project
	assert.False(t, none.IsOwner("p-1"))
	assert.Nil(t, none.ChapterIDs())
}

func TestFinanceSignedAmount(t *testing.T) {
	assert.Equal(t, -12.5, (&Finance{Type: FinanceExit, Amount: 12.5}).SignedAmount())
	assert.Equal(t, 12.5, (&Finance{Type: FinanceEntry, Amount: 12.5}).SignedAmount())
}

func TestFormatOffer(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "[09/03/2024 14:30] Ana Admin: Posso ajudar\n", FormatOffer("Ana Admin", "Posso ajudar", at))
}
