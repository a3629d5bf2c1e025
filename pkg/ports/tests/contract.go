package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// SurveyLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.SurveyLoader.
// expected maps each survey id the loader should know to its page count.
func SurveyLoaderContractTest(t *testing.T, loader ports.SurveyLoader, expected map[string]int) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, pages := range expected {
			s, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading survey %s: %v", id, err)
			}
			if len(s.Pages) != pages {
				t.Errorf("page count mismatch for %s. got %d, want %d", id, len(s.Pages), pages)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-survey")
		if !errors.Is(err, domain.ErrSurveyNotFound) {
			t.Errorf("expected ErrSurveyNotFound, got %v", err)
		}
	})

	t.Run("Load_ReturnsCopies", func(t *testing.T) {
		for id := range expected {
			first, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			first.Pages = nil
			second, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatal(err)
			}
			if len(second.Pages) != expected[id] {
				t.Errorf("loader %s returned shared survey", id)
			}
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing surveys: %v", err)
		}
		found := make(map[string]bool, len(ids))
		for _, id := range ids {
			found[id] = true
		}
		for id := range expected {
			if !found[id] {
				t.Errorf("survey %s missing from List()", id)
			}
		}
	})
}
