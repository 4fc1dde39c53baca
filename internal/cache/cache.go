// Package cache holds small read-through caches keyed by entity id.
package cache

type Cache interface {
	Get(key string) (interface{}, bool)
	Add(key string, value interface{})
	Keys() []string
	Delete(key string)
}
