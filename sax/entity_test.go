package sax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, opt Options, input string) string {
	t.Helper()
	var texts []string
	p := New(opt, Handler{OnText: func(s string) { texts = append(texts, s) }})
	require.NoError(t, p.WriteString(input))
	p.End()
	return strings.Join(texts, "")
}

func TestNamedEntityMerge(t *testing.T) {
	input := `<r>&rfloor; &spades; &copy; &rarr; &amp; &lt; < <  <   < &gt; &real; &weierp; &euro;</r>`
	var texts []string
	p := New(Options{}, Handler{OnText: func(s string) { texts = append(texts, s) }})
	require.NoError(t, p.WriteString(input))
	require.NoError(t, p.End())

	// the whole region must arrive as a single text event
	require.Len(t, texts, 1)
	assert.Equal(t, "⌋ ♠ © → & < < <  <   < > ℜ ℘ €", texts[0])
}

func TestPredefinedEntities(t *testing.T) {
	got := textOf(t, Options{Strict: true}, `<r>&amp;&lt;&gt;&quot;&apos;</r>`)
	assert.Equal(t, `&<>"'`, got)
}

func TestNumericEntities(t *testing.T) {
	assert.Equal(t, "A", textOf(t, Options{}, `<r>&#65;</r>`))
	assert.Equal(t, "A", textOf(t, Options{}, `<r>&#x41;</r>`))
	assert.Equal(t, "A", textOf(t, Options{}, `<r>&#X41;</r>`))
	assert.Equal(t, "A", textOf(t, Options{}, `<r>&#0065;</r>`))
	assert.Equal(t, "€", textOf(t, Options{}, `<r>&#x20AC;</r>`))
	assert.Equal(t, "\U0001F600", textOf(t, Options{}, `<r>&#x1F600;</r>`))
}

func TestInvalidNumericEntitiesLenient(t *testing.T) {
	// out of range, negative and non-numeric references stay literal
	assert.Equal(t, "&#1114112;", textOf(t, Options{}, `<r>&#1114112;</r>`))
	assert.Equal(t, "&#-1;", textOf(t, Options{}, `<r>&#-1;</r>`))
	assert.Equal(t, "&#NaN;", textOf(t, Options{}, `<r>&#NaN;</r>`))
}

func TestInvalidNumericEntitiesStrict(t *testing.T) {
	for _, input := range []string{`<r>&#1114112;</r>`, `<r>&#-1;</r>`, `<r>&#NaN;</r>`} {
		rec, _ := run(t, Options{Strict: true}, input)
		assert.Contains(t, rec.events, "error:Invalid character entity", "input %s", input)
	}
}

func TestUnknownNamedEntityStaysLiteral(t *testing.T) {
	assert.Equal(t, "&nosuchentity;", textOf(t, Options{}, `<r>&nosuchentity;</r>`))
}

func TestLowercaseFallbackLenientOnly(t *testing.T) {
	assert.Equal(t, "©", textOf(t, Options{}, `<r>&COPY;</r>`))
	// strict mode has no case folding and no extended table
	rec, _ := run(t, Options{Strict: true}, `<r>&COPY;</r>`)
	assert.Contains(t, rec.events, "error:Invalid character entity")
}

func TestStrictEntitiesRestrictsTable(t *testing.T) {
	assert.Equal(t, "&copy;", textOf(t, Options{StrictEntities: true}, `<r>&copy;</r>`))
	assert.Equal(t, "&", textOf(t, Options{StrictEntities: true}, `<r>&amp;</r>`))
}

func TestRegisterEntity(t *testing.T) {
	RegisterEntity("saxstreamtest", "hello")
	assert.Equal(t, "hello", textOf(t, Options{}, `<r>&saxstreamtest;</r>`))
}

func TestRegisteredEntityVisibleMidStream(t *testing.T) {
	var texts []string
	p := New(Options{}, Handler{OnText: func(s string) { texts = append(texts, s) }})
	RegisterEntity("saxstreammid", "one")
	require.NoError(t, p.WriteString(`<r>&saxstreammid;`))
	RegisterEntity("saxstreammid", "two")
	require.NoError(t, p.WriteString(`&saxstreammid;</r>`))
	require.NoError(t, p.End())
	assert.Equal(t, "onetwo", strings.Join(texts, ""))
}

func TestEntityInAttributeValue(t *testing.T) {
	var attrs []Attribute
	p := New(Options{}, Handler{OnAttribute: func(a Attribute) { attrs = append(attrs, a) }})
	require.NoError(t, p.WriteString(`<r a="x&amp;y" b=1&#65;2></r>`))
	require.Len(t, attrs, 2)
	assert.Equal(t, "x&y", attrs[0].Value)
	assert.Equal(t, "1A2", attrs[1].Value)
}

func TestInvalidCharacterInEntityName(t *testing.T) {
	assert.Equal(t, "&a b;", textOf(t, Options{}, `<r>&a b;</r>`))

	rec, _ := run(t, Options{Strict: true}, `<r>&a b;</r>`)
	assert.Contains(t, rec.events, "error:Invalid character in entity name")
}

func TestUnparsedEntitiesReparseReplacement(t *testing.T) {
	RegisterEntity("saxstreamfrag", "<b>hi</b>")
	rec, _ := run(t, Options{UnparsedEntities: true}, `<r>&saxstreamfrag;</r>`)
	expectEvents(t, rec, []string{
		"opentagstart:r",
		"opentag:r;selfclosing=false",
		"opentagstart:b",
		"opentag:b;selfclosing=false",
		"text:hi",
		"closetag:b",
		"closetag:r",
		"end",
	})
}

func TestUnparsedEntitiesNeverReparsePredefined(t *testing.T) {
	// &lt; must not open a tag even when replacements are re-fed
	got := textOf(t, Options{UnparsedEntities: true}, `<r>&lt;b&gt;</r>`)
	assert.Equal(t, "<b>", got)
}

func TestEntityCycleTerminates(t *testing.T) {
	RegisterEntity("saxstreamloop", "&saxstreamloop;")
	var errs []error
	p := New(Options{UnparsedEntities: true}, Handler{OnError: func(err error) { errs = append(errs, err) }})
	p.WriteString(`<r>&saxstreamloop;</r>`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "Entity expansion depth exceeded")
}

func TestEntityTransparency(t *testing.T) {
	// replacing &gt; by its value up front yields the same event stream
	rec1, _ := run(t, Options{}, `<r>a&gt;b</r>`)
	rec2, _ := run(t, Options{}, `<r>a>b</r>`)
	expectEvents(t, rec1, rec2.events)
}
