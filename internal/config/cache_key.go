package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// OwnerProgressKey returns the cache key for an owner's progress snapshot.
// One fixed key per owner: the snapshot inside carries the test id it
// belongs to, and a snapshot from a different test is cleared at
// session initialization.
func (r *CacheKeyStruct) OwnerProgressKey(ownerID string) string {
	return fmt.Sprintf("owner:%s:progress", ownerID)
}

// ReviewTestKey returns the cache key for the media-stripped test copy
// the review screen reads next to a result.
func (r *CacheKeyStruct) ReviewTestKey(resultID string) string {
	return fmt.Sprintf("result:%s:review_test", resultID)
}

var CacheKey = NewCacheKeyStruct()
