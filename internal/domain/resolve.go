package domain

import "time"

// archiveRoot is the canonical top-level directory of the GDAC archive.
const archiveRoot = "dac"

// BucketByPlatform groups index records by platform number, preserving
// index encounter order within each bucket.
func BucketByPlatform(records []IndexRecord) map[string][]IndexRecord {
	buckets := make(map[string][]IndexRecord)
	for _, rec := range records {
		buckets[rec.PlatformNumber] = append(buckets[rec.PlatformNumber], rec)
	}
	return buckets
}

// NearestPath picks the candidate archive path best matching an
// observation time. With no timestamp the first candidate wins
// (deterministic by index order). Otherwise the smallest absolute time
// delta wins, ties broken by encounter order; candidates with unknown
// dates are skipped, and if none carries a date the first candidate is
// used. The second return is false only when the candidate set is empty,
// a normal "not found" outcome rather than an error.
func NearestPath(candidates []IndexRecord, at *time.Time) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if at == nil {
		return candidates[0].FilePath, true
	}

	best := -1
	var bestDelta time.Duration
	for i, c := range candidates {
		if c.Date == nil {
			continue
		}
		delta := c.Date.Sub(*at)
		if delta < 0 {
			delta = -delta
		}
		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	if best == -1 {
		return candidates[0].FilePath, true
	}
	return candidates[best].FilePath, true
}

// NormalizePath maps an index path onto the canonical archive layout:
// leading slash stripped, dac/ root prepended when missing. Idempotent:
// an already-normalized path comes back unchanged.
func NormalizePath(path string) string {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	if path == "" {
		return path
	}
	if path == archiveRoot || hasSegmentPrefix(path, archiveRoot) {
		return path
	}
	return archiveRoot + "/" + path
}

func hasSegmentPrefix(path, seg string) bool {
	return len(path) > len(seg) && path[:len(seg)] == seg && path[len(seg)] == '/'
}
