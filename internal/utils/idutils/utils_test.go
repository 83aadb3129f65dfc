package idutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSnowflakeIdIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := GenerateSnowflakeId()
		if isNoError := assert.NoError(t, err); !isNoError {
			t.FailNow()
		}
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
