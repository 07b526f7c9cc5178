package service

import (
	"classroom_backend/internal/util"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	err := storeError(fmt.Errorf("find: %w", util.ErrRecordNotFound), "100% of nothing found")
	var appErr *util.AppError
	if assert.True(t, errors.As(err, &appErr)) {
		assert.Equal(t, util.KindNotFound, appErr.Kind)
		assert.Equal(t, "100% of nothing found", appErr.Message)
	}

	boom := errors.New("connection reset")
	err = storeError(boom, "class not found")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, util.KindOf(err))
}
