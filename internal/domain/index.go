package domain

import (
	"bytes"
	"compress/gzip"
	"io"
	"strconv"
	"strings"
	"time"
)

// gzipMagic is the two-byte header every gzip stream starts with. The
// index mirrors are inconsistent about the .gz suffix, so compression is
// detected by content, never by name.
var gzipMagic = []byte{0x1f, 0x8b}

const commentMarker = "#"

// indexTimeLayouts are tried in order; the first match wins.
var indexTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102150405",
	"20060102",
}

// DecodeIndex transparently decompresses a gzip-wrapped index payload.
// Plain text passes through untouched.
func DecodeIndex(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// ParseIndex parses a decoded index payload into records, preserving line
// order. Malformed lines (empty, comments, fewer than two fields, no
// derivable platform number) are skipped; they never fail the batch.
func ParseIndex(raw []byte) []IndexRecord {
	lines := strings.Split(string(raw), "\n")
	records := make([]IndexRecord, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		rec, ok := parseIndexLine(line)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func parseIndexLine(line string) (IndexRecord, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return IndexRecord{}, false
	}

	filePath := strings.TrimSpace(parts[0])
	platform := PlatformFromPath(filePath)
	if filePath == "" || platform == "" {
		return IndexRecord{}, false
	}

	rec := IndexRecord{
		FilePath:       filePath,
		PlatformNumber: platform,
		Date:           ParseIndexTime(parts[1]),
		RawLine:        line,
	}
	if len(parts) > 2 {
		rec.Latitude = parseFloatField(parts[2])
	}
	if len(parts) > 3 {
		rec.Longitude = parseFloatField(parts[3])
	}
	if len(parts) > 4 {
		rec.Ocean = strings.TrimSpace(parts[4])
	}
	return rec, true
}

// ParseIndexTime parses an index date field, tolerating the format drift
// across mirrors. Returns nil ("unknown") when nothing matches.
func ParseIndexTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range indexTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// PlatformFromPath derives the float's platform number from an archive
// path. The canonical layout is <dac>/<platform>/profiles/<file>.nc, so
// the container directories "profiles" and "dac" are stepped over.
func PlatformFromPath(path string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return ""
	}
	segs := make([]string, 0, 4)
	for _, s := range strings.Split(trimmed, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	switch {
	case len(segs) == 0:
		return ""
	case len(segs) == 1:
		return segs[0]
	}
	platform := segs[len(segs)-2]
	lower := strings.ToLower(platform)
	if (lower == "profiles" || lower == "dac") && len(segs) >= 3 {
		platform = segs[len(segs)-3]
	}
	return platform
}

// BasinName expands a single-letter ocean code to its basin name in
// lowercase, or "" for anything unrecognized.
func BasinName(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return "atlantic"
	case "P":
		return "pacific"
	case "I":
		return "indian"
	}
	return ""
}

// MatchesRegion reports whether the record belongs to the requested
// region. Tokens beginning with i/p/a select a basin: matched against the
// index's basin-code column when present, otherwise by searching the raw
// line for the basin name (which covers DAC paths like
// ".../indian_ocean/..."). Any other token is a case-insensitive
// substring match on the raw line. Empty region accepts everything.
func (r IndexRecord) MatchesRegion(region string) bool {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		return true
	}
	basin := BasinName(region[:1])
	if basin != "" {
		if r.Ocean != "" {
			return BasinName(r.Ocean) == basin
		}
		return strings.Contains(strings.ToLower(r.RawLine), basin)
	}
	return strings.Contains(strings.ToLower(r.RawLine), region)
}

func parseFloatField(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
