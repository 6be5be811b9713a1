package sax

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterCopiesFromReader(t *testing.T) {
	rec := &recorder{}
	p := New(Options{}, rec.handler())
	w := NewWriter(p)

	n, err := io.Copy(w, strings.NewReader(`<a>hello</a>`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	require.NoError(t, w.Close())

	expectEvents(t, rec, []string{
		"opentagstart:a",
		"opentag:a;selfclosing=false",
		"text:hello",
		"closetag:a",
		"end",
	})
}

func TestWriterReadFrom(t *testing.T) {
	rec := &recorder{}
	p := New(Options{}, rec.handler())
	w := NewWriter(p)

	// a reader that dribbles bytes out one at a time
	n, err := w.ReadFrom(iotest(strings.NewReader(`<r>é</r>`)))
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	require.NoError(t, w.Close())
	assert.Contains(t, rec.events, "text:é")
	assert.Same(t, p, w.Parser())
}

// iotest wraps a reader so every Read returns at most one byte.
func iotest(r io.Reader) io.Reader { return oneByteReader{r} }

type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func TestWriterPropagatesLatchedError(t *testing.T) {
	p := New(Options{Strict: true}, Handler{})
	w := NewWriter(p)
	_, err := w.WriteString(`oops`)
	require.NoError(t, err)
	_, err = w.WriteString(`more`)
	assert.Error(t, err)
}
