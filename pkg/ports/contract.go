package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, "p1", "age")
		state.SurveyID = "survey-1"
		state.Answers["age"] = 16
		state.Answers["tags"] = []any{"a", "b"}

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "age", loaded.CurrentBlockID)
		assert.Equal(t, "p1", loaded.CurrentPageID)
		assert.Equal(t, "survey-1", loaded.SurveyID)
		assert.Equal(t, domain.StatusActive, loaded.Status)
		assert.Equal(t, []string{"age"}, loaded.History)
		// JSON-backed stores turn ints into float64; only the value matters.
		assert.EqualValues(t, 16, loaded.Answers["age"])
		assert.Len(t, loaded.Answers["tags"], 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Loaded State Is Detached", func(t *testing.T) {
		id := sessionID + "-detached"
		require.NoError(t, store.Save(ctx, id, domain.NewState(id, "p1", "age")))
		defer func() { _ = store.Delete(ctx, id) }()

		first, err := store.Load(ctx, id)
		require.NoError(t, err)
		first.Answers["age"] = 99

		second, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.NotContains(t, second.Answers, "age")
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID, "p1", "age"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, "p1", "age"))
		_ = store.Save(ctx, id2, domain.NewState(id2, "p1", "age"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
