package main

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumerGroupID_UniquePerInstance(t *testing.T) {
	a := consumerGroupID("checkout-flow-cache")
	b := consumerGroupID("checkout-flow-cache")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "checkout-flow-cache-"))
	assert.Contains(t, a, "-"+strconv.Itoa(os.Getpid())+"-")
	if host, err := os.Hostname(); err == nil && host != "" {
		assert.Contains(t, a, host)
	}
}
