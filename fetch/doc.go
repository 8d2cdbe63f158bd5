// Package fetch turns a remote asset identifier into base64 text plus a
// content type.
//
// Loaders in this package return coded errors from the types package:
// FetchFailed for a non-2xx response, a transport failure or a missing
// object, and DecodeFailed when the body cannot be read and encoded.
// Callers in the cache never surface these to consumers; they log them and
// treat the asset as not cached.
package fetch
