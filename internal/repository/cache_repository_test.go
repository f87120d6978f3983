package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "branding:logo:file.png", map[string]string{"a": "b"}, time.Minute))
	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "branding:logo:file.png", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.DeleteByPattern(ctx, "branding:logo:*"))
}
