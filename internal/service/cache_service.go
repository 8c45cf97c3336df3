package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CacheService - кэш в памяти с TTL и инвалидацией по префиксу.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
	// generation растёт при каждой инвалидации.
	generation uint64
	now        func() time.Time
	stop       chan struct{}
	once       sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш и запускает фоновую очистку устаревших записей.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go cs.cleanup(5 * time.Minute)

	return cs
}

// Get возвращает значение, если оно есть и не устарело.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || cs.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: cs.now().Add(ttl),
	}
}

func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	cs.generation++
}

// InvalidateByPrefix удаляет все ключи с префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
	cs.generation++
}

// GetOrSet возвращает значение из кэша или вычисляет и сохраняет его.
// Ошибки не кэшируются. Если во время вычисления была инвалидация,
// результат возвращается, но в кэш не попадает.
func (cs *CacheService) GetOrSet(key string, ttl time.Duration, fn func() (interface{}, error)) (interface{}, error) {
	cs.mu.RLock()
	entry, exists := cs.cache[key]
	generation := cs.generation
	if exists && !cs.now().After(entry.expiresAt) {
		cs.mu.RUnlock()
		return entry.data, nil
	}
	cs.mu.RUnlock()

	value, err := fn()
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.generation == generation {
		cs.cache[key] = &cacheEntry{
			data:      value,
			expiresAt: cs.now().Add(ttl),
		}
	}
	return value, nil
}

// Close останавливает фоновую очистку.
func (cs *CacheService) Close() {
	cs.once.Do(func() { close(cs.stop) })
}

func (cs *CacheService) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.mu.Lock()
			now := cs.now()
			for key, entry := range cs.cache {
				if now.After(entry.expiresAt) {
					delete(cs.cache, key)
				}
			}
			cs.mu.Unlock()
		}
	}
}

const settingsCachePrefix = "settings:"

func GlobalSettingsCacheKey() string {
	return settingsCachePrefix + "global"
}

func ServiceOverrideCacheKey(serviceID uuid.UUID) string {
	return settingsCachePrefix + "service:" + serviceID.String()
}
