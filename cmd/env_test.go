package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plateful/recipe-cli/internal/config"
)

func TestPoolConfigFrom(t *testing.T) {
	pc := poolConfigFrom(config.StoreConfig{MaxConns: 20, MinConns: 5})
	assert.Equal(t, int32(20), pc.MaxConns)
	assert.Equal(t, int32(5), pc.MinConns)
}

func TestPoolConfigFrom_UnsetLeavesDefaultsToStore(t *testing.T) {
	pc := poolConfigFrom(config.StoreConfig{})
	assert.Zero(t, pc.MaxConns)
	assert.Zero(t, pc.MinConns)
}
