package atlas

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTag canonicalizes free-text tag spellings: Unicode NFKC, lower
// case, and every run of punctuation or whitespace collapsed to a single
// hyphen so "Hi Hat", "hi_hat" and "hi-hat" become one column.
func NormalizeTag(tag string) string {
	tag = norm.NFKC.String(strings.TrimSpace(tag))
	tag = strings.ToLower(tag)
	var b strings.Builder
	b.Grow(len(tag))
	sep := false
	for _, r := range tag {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// tagColumns holds the tag block layout for one build: column names in
// stable lexicographic order plus each record's active column set.
type tagColumns struct {
	names  []string
	active []map[string]struct{} // indexed like records
}

func buildTagColumns(records []FeatureRecord, opts TagFeatureOptions) tagColumns {
	if !opts.Enabled || opts.Weight <= 0 {
		return tagColumns{active: make([]map[string]struct{}, len(records))}
	}
	excluded := make(map[string]struct{})
	vocab := opts.ExcludeDerived
	if vocab == nil {
		vocab = DerivedTagVocabulary()
	}
	for _, t := range vocab {
		if n := NormalizeTag(t); n != "" {
			excluded[n] = struct{}{}
		}
	}

	active := make([]map[string]struct{}, len(records))
	docFreq := make(map[string]int)
	for i := range records {
		set := make(map[string]struct{})
		for _, raw := range records[i].Tags {
			tag := NormalizeTag(raw)
			if tag == "" {
				continue
			}
			if _, drop := excluded[tag]; drop {
				continue
			}
			if _, dup := set[tag]; dup {
				continue
			}
			set[tag] = struct{}{}
			docFreq[tag]++
		}
		active[i] = set
	}

	minDF := opts.MinDocFreq
	if minDF < 1 {
		minDF = 1
	}
	names := make([]string, 0, len(docFreq))
	for tag, df := range docFreq {
		if df >= minDF {
			names = append(names, tag)
		}
	}
	sort.Strings(names)

	kept := make(map[string]struct{}, len(names))
	for _, n := range names {
		kept[n] = struct{}{}
	}
	for i, set := range active {
		for tag := range set {
			if _, ok := kept[tag]; !ok {
				delete(set, tag)
			}
		}
		active[i] = set
	}
	return tagColumns{names: names, active: active}
}

// rowTagValue is the contribution of one active tag for a record with
// activeCount active tags, honoring the row-magnitude mode.
func rowTagValue(opts TagFeatureOptions, activeCount int) float64 {
	v := opts.Weight
	if opts.RowNorm == RowNormSqrt && activeCount > 1 {
		v /= sqrtFloat(activeCount)
	}
	return v
}
