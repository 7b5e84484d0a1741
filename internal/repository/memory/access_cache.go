package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// AccessCache remembers recent (document, user) admission decisions so a
// quick reconnect does not hit the database again. Entries are short-lived
// because revoking a share must take effect promptly.
type AccessCache struct {
	cache *cache.Cache
}

func NewAccessCache() *AccessCache {
	// Short default expiration; a revoked share is honored within a minute.
	c := cache.New(1*time.Minute, 5*time.Minute)
	return &AccessCache{
		cache: c,
	}
}

func key(documentId uint, userId uuid.UUID) string {
	return fmt.Sprintf("%d:%s", documentId, userId)
}

func (r *AccessCache) MarkAuthorized(documentId uint, userId uuid.UUID) {
	r.cache.Set(key(documentId, userId), true, cache.DefaultExpiration)
}

func (r *AccessCache) IsAuthorized(documentId uint, userId uuid.UUID) bool {
	_, found := r.cache.Get(key(documentId, userId))
	return found
}

func (r *AccessCache) Invalidate(documentId uint, userId uuid.UUID) {
	r.cache.Delete(key(documentId, userId))
}
