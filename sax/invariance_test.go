package sax

import (
	"testing"
	"unicode/utf8"
)

// The documents exercised for chunk invariance: markup kinds, entities,
// multi-byte text, CDATA fake ends and namespace declarations.
var invarianceDocs = []string{
	`<x>y</x>`,
	`<r>héllo wörld €𐍈</r>`,
	`<r><![CDATA[[[[[[[[[]]]]]]]]]]></r>`,
	`<r>a<!-- c1 --><b/>d<!-- c2 --></r>`,
	`<?xml version="1.0"?><!DOCTYPE d [ <!ENTITY e "v"> ]><d>t</d>`,
	`<r>&amp; &copy; &#x41; &nope; text</r>`,
	`<a xmlns:p="urn:p" p:x="1"><p:b p:y="2"/></a>`,
	`<r a="1" b='2' c=3><s t="u&gt;v"/></r>`,
	`<r>one < two <  three</r>`,
}

func eventsForChunks(t *testing.T, opt Options, chunks []string) []string {
	t.Helper()
	rec, _ := run(t, opt, chunks...)
	return rec.events
}

func splitEveryRune(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func TestChunkInvariance(t *testing.T) {
	opts := []Options{
		{},
		{Namespaces: true},
		{Trim: true, Normalize: true},
	}
	for _, opt := range opts {
		for _, doc := range invarianceDocs {
			whole := eventsForChunks(t, opt, []string{doc})

			perRune := eventsForChunks(t, opt, splitEveryRune(doc))
			if !equalStrings(whole, perRune) {
				t.Errorf("per-rune split diverged for %q\nwhole: %q\nsplit: %q", doc, whole, perRune)
			}

			for cut := 1; cut < len(doc); cut += 3 {
				if !utf8.ValidString(doc[:cut]) {
					continue
				}
				split := eventsForChunks(t, opt, []string{doc[:cut], doc[cut:]})
				if !equalStrings(whole, split) {
					t.Errorf("split at %d diverged for %q\nwhole: %q\nsplit: %q", cut, doc, whole, split)
				}
			}
		}
	}
}

// TestChunkInvarianceBytewise feeds raw bytes one at a time, cutting through
// multi-byte sequences; the parser must carry the partial sequence over.
func TestChunkInvarianceBytewise(t *testing.T) {
	for _, doc := range invarianceDocs {
		whole := eventsForChunks(t, Options{}, []string{doc})

		rec := &recorder{}
		p := New(Options{}, rec.handler())
		data := []byte(doc)
		for i := range data {
			if err := p.Write(data[i : i+1]); err != nil {
				break
			}
		}
		p.End()
		if !equalStrings(whole, rec.events) {
			t.Errorf("bytewise feed diverged for %q\nwhole: %q\nbytes: %q", doc, whole, rec.events)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

