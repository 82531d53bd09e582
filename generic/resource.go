/*
resource.go - Resource type registration and lookup

PURPOSE:
  Provides a registry for domain packages to register their resource types.
  Storage and the HTTP layer receive leave types as strings; the registry
  turns them back into the domain's concrete type and rejects unknown ones.

USAGE:
  // In timeoff/types.go
  func init() {
      generic.RegisterResource(LeavePaid)
  }

  r, ok := generic.LookupResource("timeoff", "paid")
*/
package generic

import (
	"sort"
	"sync"
)

// =============================================================================
// RESOURCE REGISTRY
// =============================================================================

type resourceKey struct {
	domain string
	id     string
}

var (
	resourceRegistry = make(map[resourceKey]ResourceType)
	registryMu       sync.RWMutex
)

// RegisterResource adds a resource type to the global registry.
// Call this from domain package init() functions.
func RegisterResource(r ResourceType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	resourceRegistry[resourceKey{domain: r.ResourceDomain(), id: r.ResourceID()}] = r
}

// LookupResource finds a registered resource type by domain and ID.
func LookupResource(domain, id string) (ResourceType, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := resourceRegistry[resourceKey{domain: domain, id: id}]
	return r, ok
}

// ListResourcesByDomain returns the IDs registered for a domain, sorted.
func ListResourcesByDomain(domain string) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var ids []string
	for k := range resourceRegistry {
		if k.domain == domain {
			ids = append(ids, k.id)
		}
	}
	sort.Strings(ids)
	return ids
}
