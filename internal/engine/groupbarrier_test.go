package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupBarrierAdmitsOnlyCurrentGroupUntilDrained(t *testing.T) {
	b := &groupBarrier{}

	assert.True(t, b.admit(0), "first admit of group 0 should succeed")
	assert.False(t, b.admit(1), "group 1 must not be admitted while group 0 has an outstanding chain")

	b.complete(0)
	assert.True(t, b.admit(1), "group 1 should be admitted once group 0 is fully drained")
}

func TestGroupBarrierAllowsMultipleChainsWithinAGroup(t *testing.T) {
	b := &groupBarrier{}
	for i := 0; i < 5; i++ {
		assert.True(t, b.admit(3), "admit %d within the same group should never be refused", i)
	}
	for i := 0; i < 5; i++ {
		b.complete(3)
	}
	assert.True(t, b.admit(4), "next group should be admitted once all five chains of group 3 completed")
}

func TestGroupBarrierEmptyGroupDoesNotBlock(t *testing.T) {
	b := &groupBarrier{}
	assert.True(t, b.admit(0))
	b.complete(0)
	assert.True(t, b.admit(5), "jumping straight to group 5 should be fine once group 0 drained")
}
