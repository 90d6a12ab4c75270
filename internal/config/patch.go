package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that reads "15m" style strings or millisecond numbers from JSON
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("duration must be a string like \"15m\" or milliseconds: %w", err)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Patch is a partial update of FeedOptions. Nil fields are left unchanged.
type Patch struct {
	Account        *string   `json:"account,omitempty"`
	PageSize       *int      `json:"page_size,omitempty"`
	Sort           *string   `json:"sort,omitempty"`
	Direction      *string   `json:"direction,omitempty"`
	CacheKey       *string   `json:"cache_key,omitempty"`
	CacheTTL       *Duration `json:"cache_ttl,omitempty"`
	CacheVersion   *string   `json:"cache_version,omitempty"`
	MaxAttempts    *int      `json:"max_attempts,omitempty"`
	RetryBackoff   *Duration `json:"retry_backoff,omitempty"`
	RequestTimeout *Duration `json:"request_timeout,omitempty"`
	OfflineCache   *bool     `json:"offline_cache,omitempty"`
	Analytics      *bool     `json:"analytics,omitempty"`
}

// Apply returns a copy of o with the patch applied. The result is validated.
func (p Patch) Apply(o FeedOptions) (FeedOptions, error) {
	if p.Account != nil {
		o.Account = *p.Account
	}
	if p.PageSize != nil {
		o.PageSize = *p.PageSize
	}
	if p.Sort != nil {
		o.Sort = *p.Sort
	}
	if p.Direction != nil {
		o.Direction = *p.Direction
	}
	if p.CacheKey != nil {
		o.CacheKey = *p.CacheKey
	}
	if p.CacheTTL != nil {
		o.CacheTTL = time.Duration(*p.CacheTTL)
	}
	if p.CacheVersion != nil {
		o.CacheVersion = *p.CacheVersion
	}
	if p.MaxAttempts != nil {
		o.MaxAttempts = *p.MaxAttempts
	}
	if p.RetryBackoff != nil {
		o.RetryBackoff = time.Duration(*p.RetryBackoff)
	}
	if p.RequestTimeout != nil {
		o.RequestTimeout = time.Duration(*p.RequestTimeout)
	}
	if p.OfflineCache != nil {
		o.OfflineCache = *p.OfflineCache
	}
	if p.Analytics != nil {
		o.Analytics = *p.Analytics
	}
	if err := o.Validate(); err != nil {
		return FeedOptions{}, err
	}
	return o, nil
}

// DecodePatch reads a JSON patch, rejecting unknown keys
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Patch{}, &ConfigError{Field: "patch", Message: err.Error()}
	}
	return p, nil
}

// ParsePairs builds a patch from "key=value" strings, rejecting unknown keys
func ParsePairs(pairs []string) (Patch, error) {
	var p Patch
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Patch{}, &ConfigError{Field: pair, Message: "expected key=value"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if err := p.set(key, value); err != nil {
			return Patch{}, err
		}
	}
	return p, nil
}

var patchKeys = []string{
	"account", "analytics", "cache_key", "cache_ttl", "cache_version", "direction",
	"max_attempts", "offline_cache", "page_size", "request_timeout", "retry_backoff", "sort",
}

func (p *Patch) set(key, value string) error {
	switch key {
	case "account":
		p.Account = &value
	case "sort":
		p.Sort = &value
	case "direction":
		p.Direction = &value
	case "cache_key":
		p.CacheKey = &value
	case "cache_version":
		p.CacheVersion = &value
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigError{Field: key, Message: "must be an integer"}
		}
		p.PageSize = &n
	case "max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigError{Field: key, Message: "must be an integer"}
		}
		p.MaxAttempts = &n
	case "cache_ttl", "retry_backoff", "request_timeout":
		v, err := time.ParseDuration(value)
		if err != nil {
			return &ConfigError{Field: key, Message: "must be a duration like 15m"}
		}
		d := Duration(v)
		switch key {
		case "cache_ttl":
			p.CacheTTL = &d
		case "retry_backoff":
			p.RetryBackoff = &d
		default:
			p.RequestTimeout = &d
		}
	case "offline_cache", "analytics":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigError{Field: key, Message: "must be true or false"}
		}
		if key == "analytics" {
			p.Analytics = &b
		} else {
			p.OfflineCache = &b
		}
	default:
		keys := append([]string(nil), patchKeys...)
		sort.Strings(keys)
		return &ConfigError{Field: key, Message: "unknown option (known: " + strings.Join(keys, ", ") + ")"}
	}
	return nil
}

type feedOptionsJSON struct {
	Account        string   `json:"account"`
	PageSize       int      `json:"page_size"`
	Sort           string   `json:"sort"`
	Direction      string   `json:"direction"`
	CacheKey       string   `json:"cache_key"`
	CacheTTL       Duration `json:"cache_ttl"`
	CacheVersion   string   `json:"cache_version"`
	MaxAttempts    int      `json:"max_attempts"`
	RetryBackoff   Duration `json:"retry_backoff"`
	RequestTimeout Duration `json:"request_timeout"`
	OfflineCache   bool     `json:"offline_cache"`
	Analytics      bool     `json:"analytics"`
}

// MarshalJSON renders durations as strings
func (o FeedOptions) MarshalJSON() ([]byte, error) {
	return json.Marshal(feedOptionsJSON{
		Account:        o.Account,
		PageSize:       o.PageSize,
		Sort:           o.Sort,
		Direction:      o.Direction,
		CacheKey:       o.CacheKey,
		CacheTTL:       Duration(o.CacheTTL),
		CacheVersion:   o.CacheVersion,
		MaxAttempts:    o.MaxAttempts,
		RetryBackoff:   Duration(o.RetryBackoff),
		RequestTimeout: Duration(o.RequestTimeout),
		OfflineCache:   o.OfflineCache,
		Analytics:      o.Analytics,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON
func (o *FeedOptions) UnmarshalJSON(b []byte) error {
	var v feedOptionsJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = FeedOptions{
		Account:        v.Account,
		PageSize:       v.PageSize,
		Sort:           v.Sort,
		Direction:      v.Direction,
		CacheKey:       v.CacheKey,
		CacheTTL:       time.Duration(v.CacheTTL),
		CacheVersion:   v.CacheVersion,
		MaxAttempts:    v.MaxAttempts,
		RetryBackoff:   time.Duration(v.RetryBackoff),
		RequestTimeout: time.Duration(v.RequestTimeout),
		OfflineCache:   v.OfflineCache,
		Analytics:      v.Analytics,
	}
	return nil
}
