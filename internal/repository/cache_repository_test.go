package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/campus-payroll-api/pkg/errors"
)

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, "campus-payroll:", nil)

	var dest map[string]string
	err := repo.Get(context.Background(), "payroll:summary:x", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}
