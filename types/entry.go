package types

import "time"

// DefaultContentType is recorded when neither the origin nor the caller
// declares what an asset is.
const DefaultContentType = "image/jpeg"

// CacheEntry is one cached asset as stored in both tiers.
// Entries are values: a later write replaces the whole entry, nothing
// mutates one in place.
type CacheEntry struct {
	Key         string
	EncodedData string // base64 of the asset bytes
	ContentType string
	Timestamp   int64 // epoch milliseconds of the last write
}

// NewCacheEntry stamps a fresh entry with the given write time.
func NewCacheEntry(key, encodedData, contentType string, now time.Time) CacheEntry {
	return CacheEntry{
		Key:         key,
		EncodedData: encodedData,
		ContentType: contentType,
		Timestamp:   now.UnixMilli(),
	}
}

// WrittenAt converts the stored timestamp back to a time.Time.
func (e CacheEntry) WrittenAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Age is how long ago the entry was written, relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.WrittenAt())
}

/*
DataURI renders the entry the way UI code embeds it:

	data:<contentType>;base64,<encodedData>

An empty content type falls back to DefaultContentType so the URI stays valid.
*/
func (e CacheEntry) DataURI() string {
	ct := e.ContentType
	if ct == "" {
		ct = DefaultContentType
	}
	return "data:" + ct + ";base64," + e.EncodedData
}
