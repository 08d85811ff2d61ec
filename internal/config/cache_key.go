package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SubmissionTokenKey returns the key reserving a candidate's idempotent submission token
// for one exam. The stored value is "pending" until the result is persisted, then the result ID.
func (r *CacheKeyStruct) SubmissionTokenKey(examID, candidateID int, token string) string {
	return fmt.Sprintf("candidate:%d:exam:%d:submission:%s", candidateID, examID, token)
}

// PublicCatalogueKey returns the key caching the public exam listing of a given size.
func (r *CacheKeyStruct) PublicCatalogueKey(limit int) string {
	return fmt.Sprintf("catalogue:public:%d", limit)
}

var CacheKey = NewCacheKeyStruct()
