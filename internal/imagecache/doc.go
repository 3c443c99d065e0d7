// Package imagecache resolves box art and achievement icons to display-ready
// bitmaps, keeping the downloaded bytes on disk across runs.
//
// Resolve reads <dir>/<key>.jpg when present and otherwise downloads the URL
// (5s timeout), writes the bytes through a temp file and rename, decodes them
// (JPEG, PNG, GIF, WebP) and scales to the requested size with Catmull-Rom.
// Every failure returns nil and is logged; undecodable entries are removed so
// the next call fetches again. A small in-memory LRU holds recently resized
// bitmaps.
//
// The disk cache has no size cap and no expiry. Two goroutines resolving the
// same key may both download; the last rename wins.
package imagecache
