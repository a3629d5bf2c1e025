package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
  "uuid": "root",
  "type": "section",
  "items": [{"uuid": "intro", "type": "content", "label": "Welcome"}],
  "nodes": [
    {"uuid": "p1", "type": "set", "name": "About you", "items": [
      {"uuid": "age", "type": "number", "fieldName": "age", "navigationRules": [
        {"condition": "age < 18", "target": "minor-page", "isPage": true},
        {"condition": "true", "target": "adult-page", "isPage": true, "isDefault": true}
      ]},
      {"type": "text", "fieldName": "nickname"}
    ]},
    {"uuid": "group", "type": "section", "nodes": ["minor"]},
    {"uuid": "adult", "type": "set", "name": "adult-page", "items": [{"uuid": "job", "type": "text", "fieldName": "job"}]},
    {"uuid": "minor", "type": "set", "name": "minor-page", "items": [{"uuid": "school", "type": "text", "fieldName": "school"}]}
  ]
}`

func TestFromDocument(t *testing.T) {
	s, err := DecodeDocument([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, []string{"root-items", "p1", "minor", "adult"}, s.Pages)

	p1, ok := s.Page("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"age", "p1-block-1"}, p1.Blocks)

	age, ok := s.Block("age")
	require.True(t, ok)
	require.Len(t, age.NavigationRules, 2)
	assert.True(t, age.NavigationRules[1].IsDefault)

	page, ok := s.FindPage("minor-page")
	require.True(t, ok)
	assert.Equal(t, "minor", page.UUID)

	b, ok := s.FindBlock("nickname")
	require.True(t, ok)
	assert.Equal(t, "p1-block-1", b.UUID)

	owner, ok := s.PageOf("school")
	require.True(t, ok)
	assert.Equal(t, "minor", owner.UUID)
}

func TestFromDocument_UnresolvedReference(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"uuid":"r","type":"section","nodes":["ghost"]}`))
	require.Error(t, err)

	var docErr *DocumentError
	assert.True(t, errors.As(err, &docErr))
	assert.True(t, errors.Is(err, ErrPageNotFound))
}

func TestFromDocument_DeepNestingRejected(t *testing.T) {
	doc := `{"uuid":"r","type":"section","nodes":[{"uuid":"a","type":"section","nodes":[{"uuid":"b","type":"section","nodes":[]}]}]}`
	_, err := DecodeDocument([]byte(doc))
	assert.Error(t, err)
}

func TestSurvey_DocumentRoundTrip(t *testing.T) {
	s, err := DecodeDocument([]byte(sampleDocument))
	require.NoError(t, err)

	raw, err := json.Marshal(s.Document())
	require.NoError(t, err)

	again, err := DecodeDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, s.Pages, again.Pages)
	assert.Equal(t, len(s.Blocks()), len(again.Blocks()))

	age, _ := again.Block("age")
	assert.Equal(t, "age < 18", age.NavigationRules[0].Condition.String())
}

func TestSurvey_CloneIsIndependent(t *testing.T) {
	s, err := DecodeDocument([]byte(sampleDocument))
	require.NoError(t, err)

	cp := s.Clone()
	require.NoError(t, cp.SetRules("age", nil))

	orig, _ := s.Block("age")
	assert.Len(t, orig.NavigationRules, 2)
}
