package snippet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	s := Snippet{
		Title: "Array Map",
		Tags:  []string{"javascript"},
		Code:  "const x=1",
	}

	assert.True(t, s.Matches("javascript"))
	assert.True(t, s.Matches("array"))
	assert.True(t, s.Matches("const x"))
	assert.True(t, s.Matches(""), "empty query matches everything")
	assert.False(t, s.Matches("nomatch"))
}

func TestMatchesDescription(t *testing.T) {
	s := Snippet{
		Title:       "untitled",
		Description: "Maps over an ARRAY",
	}

	assert.True(t, s.Matches("over an arr"))
	assert.False(t, s.Matches("python"))
}

func TestValidate(t *testing.T) {
	tests := map[string]Fields{
		"missing title":    {Language: "go", Code: "x := 1"},
		"whitespace title": {Title: "   ", Language: "go", Code: "x := 1"},
		"missing language": {Title: "t", Code: "x := 1"},
		"missing code":     {Title: "t", Language: "go"},
		"all missing":      {},
	}
	for comment, fields := range tests {
		require.Error(t, fields.Validate(), comment)
	}

	require.NoError(t, Fields{Title: "t", Language: "go", Code: "x := 1"}.Validate())
}

func TestPatchApply(t *testing.T) {
	createdAt := time.Now()
	s := Snippet{
		ID:          "id-a",
		Title:       "old title",
		Language:    "go",
		Tags:        []string{"a"},
		Description: "old description",
		Code:        "old code",
		CreatedAt:   createdAt,
	}

	title := "new title"
	Patch{Title: &title}.Apply(&s)

	assert.Equal(t, "new title", s.Title)
	assert.Equal(t, "id-a", s.ID)
	assert.Equal(t, createdAt, s.CreatedAt)
	assert.Equal(t, "go", s.Language)
	assert.Equal(t, []string{"a"}, s.Tags)
	assert.Equal(t, "old description", s.Description)
	assert.Equal(t, "old code", s.Code)
}

func TestPatchApplyEmptyValues(t *testing.T) {
	s := Snippet{Title: "t", Description: "something", Tags: []string{"a"}}

	description := ""
	tags := []string{}
	Patch{Description: &description, Tags: &tags}.Apply(&s)

	assert.Empty(t, s.Description, "a set but empty field must overwrite")
	assert.Empty(t, s.Tags)
	assert.Equal(t, "t", s.Title, "unset fields stay untouched")
}

func TestClone(t *testing.T) {
	updatedAt := time.Now()
	s := Snippet{
		ID:        "id-a",
		Tags:      []string{"a", "b"},
		UpdatedAt: &updatedAt,
	}

	c := s.Clone()
	c.Tags[0] = "mutated"
	*c.UpdatedAt = updatedAt.Add(time.Hour)

	assert.Equal(t, "a", s.Tags[0])
	assert.Equal(t, updatedAt, *s.UpdatedAt)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snippets := []Snippet{
		{
			ID:        "id-a",
			Title:     "Array Map",
			Language:  "javascript",
			Tags:      []string{"javascript", "arrays"},
			Code:      "const x=1",
			CreatedAt: time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:        "id-b",
			Title:     "Hello",
			Language:  "go",
			Tags:      []string{},
			Code:      "fmt.Println(\"hello\")\n",
			CreatedAt: time.Date(2024, 4, 3, 12, 0, 0, 0, time.UTC),
		},
	}

	data, err := Encode(snippets)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n"+Indent, "canonical form is indented")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snippets, decoded)
}

func TestEncodeNil(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecodeCompact(t *testing.T) {
	decoded, err := Decode([]byte(`[{"id":"id-a","title":"t","language":"go","code":"x"}]`))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "t", decoded[0].Title)
	assert.NotNil(t, decoded[0].Tags, "absent tags decode to an empty slice")
	assert.Nil(t, decoded[0].UpdatedAt)
}

func TestDecodeRejectsNonArray(t *testing.T) {
	_, err := Decode([]byte(`{"id":"id-a"}`))
	require.Error(t, err)

	_, err = Decode([]byte(`not json at all`))
	require.Error(t, err)
}

func TestIDGenerator(t *testing.T) {
	g := NewIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := g.Next()
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
