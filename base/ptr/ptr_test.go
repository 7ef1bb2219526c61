package ptr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	assert.Equal(t, "a", *String("a"))
	assert.Equal(t, int32(1), *Int32(1))
	assert.Equal(t, int64(2), *Int64(2))
	assert.Equal(t, 1.5, *Float64(1.5))
	assert.True(t, *Bool(true))
	now := time.Now()
	assert.Equal(t, now, *Time(now))
}
