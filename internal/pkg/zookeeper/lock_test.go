package zookeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	assert.Equal(t, "0000000003", sequence("_c_5f3c1b9e-lock-0000000003"))
	assert.Equal(t, "0000000010", sequence("lock-0000000010"))
	assert.Equal(t, "other", sequence("other"))
	assert.True(t, sequence("_c_ffff-lock-0000000002") < sequence("_c_0000-lock-0000000010"))
}
