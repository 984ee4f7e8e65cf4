package anthropic

// DefaultCacheTTL keeps a system prompt cached across one assessment run.
const DefaultCacheTTL = "5m"

// BuildCachedSystemBlocks returns text as a single system block with a cache
// breakpoint. An empty ttl uses DefaultCacheTTL. Every request of a run
// shares the same validator prompt, so all but the first read it from cache.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if ttl == "" {
		ttl = DefaultCacheTTL
	}
	return []SystemBlock{
		{
			Text:         text,
			CacheControl: &CacheControl{TTL: ttl},
		},
	}
}
