package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace from it,
// "Comp Sci " and "compsci" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Entry is a phrase searched for in free text and the tag reported when
// the phrase is present.
type Entry struct {
	Phrase string
	Tag    string
}

// Vocabulary is an ordered, table-driven substring matcher.
type Vocabulary []Entry

// PrefixVocabulary builds a Vocabulary whose tags are the part of each
// phrase before the first occurrence of sep ("1B-Written Communication"
// with sep "-" is tagged "1B").
func PrefixVocabulary(sep string, phrases ...string) Vocabulary {
	vocab := make(Vocabulary, len(phrases))
	for i, p := range phrases {
		tag, _, _ := strings.Cut(p, sep)
		vocab[i] = Entry{Phrase: p, Tag: tag}
	}
	return vocab
}

// Tags returns the tags of every phrase contained in text, in vocabulary order.
func (v Vocabulary) Tags(text string) []string {
	var out []string
	for _, e := range v {
		if strings.Contains(text, e.Phrase) {
			out = append(out, e.Tag)
		}
	}
	return out
}

// SplitList splits a comma-joined tag list, dropping empty and
// whitespace-only elements.
func SplitList(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
