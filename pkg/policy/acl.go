package policy

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// ACL is a snapshot of a greenhouse's access lists. Devices and environment
// records resolve their effective owner through it, so the two-hop ownership
// traversal (child -> greenhouse -> owner) collapses to one lookup.
type ACL struct {
	GreenhouseID int64
	OwnerID      int64
	Authorized   []int64
}

// Kind implements Owned
func (a *ACL) Kind() string { return "greenhouse" }

// ResourceOwnerID implements Owned
func (a *ACL) ResourceOwnerID() int64 { return a.OwnerID }

// AuthorizedUserIDs implements Shared
func (a *ACL) AuthorizedUserIDs() []int64 { return a.Authorized }

// IsAuthorized reports whether the user is in the authorized set
func (a *ACL) IsAuthorized(userID int64) bool {
	for _, id := range a.Authorized {
		if id == userID {
			return true
		}
	}
	return false
}

// ACLCache caches greenhouse ACL snapshots with a TTL bound. Writers must
// call Invalidate on every mutation that changes an ACL (greenhouse update,
// delete, owner change); the TTL only bounds staleness across processes.
type ACLCache struct {
	cache *lru.LRU[int64, *ACL]
}

// NewACLCache creates an ACL cache holding up to size entries for ttl
func NewACLCache(size int, ttl time.Duration) *ACLCache {
	if size < 16 {
		size = 16
	}
	return &ACLCache{
		cache: lru.NewLRU[int64, *ACL](size, nil, ttl),
	}
}

// Get returns the cached ACL for a greenhouse, if present
func (c *ACLCache) Get(greenhouseID int64) (*ACL, bool) {
	return c.cache.Get(greenhouseID)
}

// Put stores an ACL snapshot
func (c *ACLCache) Put(acl *ACL) {
	if acl == nil {
		return
	}
	c.cache.Add(acl.GreenhouseID, acl)
}

// Invalidate drops the cached ACL for a greenhouse
func (c *ACLCache) Invalidate(greenhouseID int64) {
	c.cache.Remove(greenhouseID)
}
