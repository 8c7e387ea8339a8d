package dedupe

import (
	"strings"

	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Dedupe removes duplicate documents within one batch, keyed by the
// given canonical fields. The first occurrence wins and input order is
// otherwise preserved, so the filter is stable and idempotent. This is
// a per-batch, in-memory pass only; it never consults the index.
func Dedupe(docs []normalize.Document, fields []normalize.Field) []normalize.Document {
	if len(fields) == 0 {
		fields = []normalize.Field{
			normalize.FieldTitle,
			normalize.FieldDescription,
			normalize.FieldDate,
		}
	}
	seen := make(map[string]struct{}, len(docs))
	out := make([]normalize.Document, 0, len(docs))
	for _, d := range docs {
		k := key(d, fields)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// key joins identity field values with an unprintable separator so
// adjacent values cannot collide after concatenation.
func key(d normalize.Document, fields []normalize.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = d.Get(f)
	}
	return strings.Join(parts, "\x1f")
}
