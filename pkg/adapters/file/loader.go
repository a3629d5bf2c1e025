package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/schema"
)

// extensions lists the document formats the loader reads, in lookup order.
var extensions = []string{".json", ".yaml", ".yml"}

// Loader implements ports.SurveyLoader over a directory of survey documents.
// The survey id is the file name without extension.
type Loader struct {
	Dir string
}

// NewLoader creates a loader reading documents from dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load reads, validates and decodes the survey document named id.
func (l *Loader) Load(_ context.Context, id string) (*domain.Survey, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", domain.ErrSurveyNotFound, id)
	}
	for _, ext := range extensions {
		path := filepath.Join(l.Dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return ReadSurvey(path)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, id)
}

// List returns the ids of every survey document in the directory, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadSurvey loads one survey document from disk. YAML documents are converted
// to JSON so both formats go through the same schema validation.
func ReadSurvey(path string) (*domain.Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey document: %w", err)
	}
	return ParseSurvey(path, data)
}

// ParseSurvey decodes document bytes. The format is chosen from the extension
// of name; anything other than .json is read as YAML.
func ParseSurvey(name string, data []byte) (*domain.Survey, error) {
	if strings.ToLower(filepath.Ext(name)) != ".json" {
		converted, err := YAMLToJSON(data)
		if err != nil {
			return nil, &domain.DocumentError{Source: name, Err: err}
		}
		data = converted
	}
	return schema.Decode(name, data)
}

// YAMLToJSON re-encodes a YAML document as JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return json.Marshal(normalize(doc))
}

// normalize turns the map[any]any values yaml can produce for non-string keys
// into JSON-encodable maps.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
