package userctx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecthq/connect/internal/models"
)

func Test_UserContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		user := models.User{ID: uuid.New(), Username: "testuser"}

		ctx := New(t.Context(), user)
		got, ok := FromContext(ctx)

		require.True(t, ok, "user should be found in context")
		assert.Equal(t, user, got)
	})

	t.Run("empty context", func(t *testing.T) {
		_, ok := FromContext(t.Context())
		require.False(t, ok, "no user expected in fresh context")
	})
}
