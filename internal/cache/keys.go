package cache

import "time"

const (
	// Order projection: cached_order:{order_id} -> order JSON
	KeyOrder = "cached_order:%d"

	// Product listing: cached_product_list -> []Product JSON
	KeyProductList = "cached_product_list"

	// Remote API response cached by the worker: api_cache -> raw JSON
	KeyAPICache = "api_cache"
)

var (
	TTLOrder       = 60 * time.Second
	TTLProductList = 5 * time.Minute
	TTLAPICache    = 5 * time.Minute
)
