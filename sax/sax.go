// Package sax implements a streaming, event-driven XML/HTML parser. The
// caller feeds consecutive chunks of UTF-8 text to Parser.Write and receives
// semantic events through a Handler; no document tree is ever built. The
// parser supports a strict XML mode and a lenient HTML-like mode, optional
// namespace resolution, case normalization, whitespace handling, and named,
// numeric and application-supplied entity expansion.
package sax

import (
	"unicode/utf8"
)

// DefaultMaxBufferLength bounds the growth of any single internal buffer
// between buffer checks. See Options.MaxBufferLength.
const DefaultMaxBufferLength = 64 * 1024

// CaseTransform selects how tag and attribute names are normalized in
// lenient mode. Strict mode always preserves case.
type CaseTransform int

const (
	CasePreserve CaseTransform = iota
	CaseLower
	CaseUpper
)

// Options configures a Parser. The zero value is a lenient parser with
// position tracking off and the default buffer bound.
type Options struct {
	// Strict rejects constructs that lenient parsing accepts and keeps
	// names case sensitive.
	Strict bool

	// CaseTransform normalizes tag and attribute names in lenient mode.
	CaseTransform CaseTransform

	// Lowercase is the legacy spelling of CaseTransform: CaseLower.
	Lowercase bool

	// Trim strips leading and trailing whitespace from text and comment
	// events; Normalize collapses internal whitespace runs to a single
	// space. Trim applies first. CDATA bodies bypass both.
	Trim      bool
	Normalize bool

	// Namespaces enables xmlns resolution. Attribute events are then
	// deferred until the open tag is complete so declarations made on the
	// element are in scope.
	Namespaces bool

	// TrackPosition maintains line and column counters and attaches them
	// to errors. The absolute codepoint position is always maintained.
	TrackPosition bool

	// StrictEntities restricts the entity table to the five XML
	// predefined entities.
	StrictEntities bool

	// UnquotedAttributeValues tolerates attribute values without quotes.
	// Nil defaults to the opposite of Strict; point at a bool to force it.
	UnquotedAttributeValues *bool

	// UnparsedEntities re-feeds non-predefined entity replacement text
	// into the parser, so replacements containing markup are parsed.
	UnparsedEntities bool

	// AllowScript treats the body of a <script> element as raw text in
	// lenient mode, the way HTML parsers do.
	AllowScript bool

	// MaxBufferLength overrides DefaultMaxBufferLength. A negative value
	// disables the buffer check entirely.
	MaxBufferLength int
}

func (o Options) caseTransform() CaseTransform {
	if o.Strict {
		return CasePreserve
	}
	if o.Lowercase && o.CaseTransform == CasePreserve {
		return CaseLower
	}
	return o.CaseTransform
}

func (o Options) unquotedValues() bool {
	if o.UnquotedAttributeValues != nil {
		return *o.UnquotedAttributeValues
	}
	return !o.Strict
}

func (o Options) maxBufferLength() int {
	if o.MaxBufferLength == 0 {
		return DefaultMaxBufferLength
	}
	return o.MaxBufferLength
}

// Handler is the set of event callbacks. Any field may be nil; missing
// handlers are no-ops. Handlers run synchronously inside Write, End and
// Flush, and control returns to the parser when the handler returns.
type Handler struct {
	OnReady                 func()
	OnText                  func(text string)
	OnOpenTagStart          func(tag *Tag)
	OnAttribute             func(attr Attribute)
	OnOpenTag               func(tag *Tag)
	OnCloseTag              func(name string)
	OnOpenCData             func()
	OnCData                 func(text string)
	OnCloseCData            func()
	OnComment               func(text string)
	OnDoctype               func(text string)
	OnProcessingInstruction func(pi ProcInst)
	OnSGMLDeclaration       func(text string)
	OnOpenNamespace         func(ns Namespace)
	OnCloseNamespace        func(ns Namespace)
	OnError                 func(err error)
	OnEnd                   func()
}

// Internal buffer identifiers. Each syntactic region owns one growable byte
// buffer; the buffer check walks all of them by id.
type bufID int

const (
	bufComment bufID = iota
	bufSGMLDecl
	bufTextNode
	bufTagName
	bufDoctype
	bufProcInstName
	bufProcInstBody
	bufEntity
	bufAttribName
	bufAttribValue
	bufCData
	bufScript
	bufCount
)

var bufNames = [bufCount]string{
	"comment", "sgmlDeclaration", "textNode", "tagName", "doctype",
	"procInstName", "procInstBody", "entity", "attributeName",
	"attributeValue", "cdata", "script",
}

// Parser is a streaming parser instance; Reset makes it ready for a new
// document. It is not safe for concurrent use; run independent parsers on
// disjoint streams instead.
type Parser struct {
	opt     Options
	handler Handler

	state state
	buf   [bufCount][]byte
	carry []byte // partial trailing UTF-8 sequence between writes

	quote rune // active quote character in quoted regions

	tag        *Tag
	tags       []*Tag
	attribList []Attribute // deferred (name, value) pairs, namespaces mode
	ns         *nsScope

	entityDepth int

	sawRoot    bool
	closedRoot bool
	sawDoctype bool
	inDTD      bool
	closed     bool

	err *ParseError

	position         int // absolute codepoint offset
	line, column     int // maintained when TrackPosition is on
	startTagPosition int

	bufferCheckPosition int
}

// New constructs a Parser and fires OnReady.
func New(opt Options, handler Handler) *Parser {
	p := &Parser{opt: opt, handler: handler}
	p.init()
	if p.handler.OnReady != nil {
		p.handler.OnReady()
	}
	return p
}

func (p *Parser) init() {
	p.state = stateBegin
	for i := range p.buf {
		p.buf[i] = p.buf[i][:0]
	}
	p.carry = nil
	p.quote = 0
	p.tag = nil
	p.tags = p.tags[:0]
	p.attribList = p.attribList[:0]
	p.ns = rootScope()
	p.entityDepth = 0
	p.sawRoot = false
	p.closedRoot = false
	p.sawDoctype = false
	p.inDTD = false
	p.closed = false
	p.err = nil
	p.position = 0
	p.line = 0
	p.column = 0
	p.startTagPosition = 0
	p.bufferCheckPosition = p.opt.maxBufferLength()
}

// Err returns the latched error, if any.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

// Position returns the absolute codepoint offset consumed so far.
func (p *Parser) Position() int { return p.position }

// Line returns the zero-based line counter. Meaningful only when
// Options.TrackPosition is on.
func (p *Parser) Line() int { return p.line }

// Column returns the zero-based column counter. Meaningful only when
// Options.TrackPosition is on.
func (p *Parser) Column() int { return p.column }

// Write feeds a chunk of UTF-8 bytes to the parser. A partial trailing
// multi-byte sequence is retained for the next call. Write returns the
// latched error if a previous chunk left one; clear it with Resume.
func (p *Parser) Write(chunk []byte) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return p.fail("Cannot write after close")
	}
	if len(p.carry) > 0 {
		for len(chunk) > 0 && !utf8.FullRune(p.carry) && len(p.carry) < utf8.UTFMax {
			p.carry = append(p.carry, chunk[0])
			chunk = chunk[1:]
		}
		if utf8.FullRune(p.carry) || len(p.carry) >= utf8.UTFMax {
			r, _ := utf8.DecodeRune(p.carry)
			p.carry = p.carry[:0]
			p.consume(r)
		} else {
			return nil
		}
	}
	for len(chunk) > 0 {
		if !utf8.FullRune(chunk) && len(chunk) < utf8.UTFMax {
			p.carry = append(p.carry[:0], chunk...)
			break
		}
		r, size := utf8.DecodeRune(chunk)
		chunk = chunk[size:]
		p.consume(r)
	}
	p.maybeCheckBuffers()
	return nil
}

// WriteString feeds a chunk of text.
func (p *Parser) WriteString(chunk string) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return p.fail("Cannot write after close")
	}
	if len(p.carry) > 0 {
		return p.Write([]byte(chunk))
	}
	for i := 0; i < len(chunk); {
		r, size := utf8.DecodeRuneInString(chunk[i:])
		if r == utf8.RuneError && size == 1 && !utf8.FullRuneInString(chunk[i:]) {
			p.carry = append(p.carry[:0], chunk[i:]...)
			break
		}
		i += size
		p.consume(r)
	}
	p.maybeCheckBuffers()
	return nil
}

func (p *Parser) consume(r rune) {
	p.position++
	if p.opt.TrackPosition {
		if r == '\n' {
			p.line++
			p.column = 0
		} else {
			p.column++
		}
	}
	p.step(r)
}

// Flush forces emission of any buffered text, CDATA or script content
// without advancing parser state.
func (p *Parser) Flush() {
	p.closeText()
	if len(p.buf[bufCData]) > 0 {
		p.emitCData(p.takeBuf(bufCData))
	}
	if len(p.buf[bufScript]) > 0 {
		p.emitText(p.takeBuf(bufScript))
	}
}

// End asserts the input is complete. It reports an unclosed root and a
// truncated construct, flushes pending text and fires OnEnd. Further writes
// fail until Reset.
func (p *Parser) End() error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return p.fail("Cannot write after close")
	}
	if p.sawRoot && !p.closedRoot {
		p.strictFail("Unclosed root tag")
	}
	if p.state != stateBegin && p.state != stateBeginWhitespace && p.state != stateText {
		p.fail("Unexpected end")
	}
	p.closeText()
	p.closed = true
	if p.handler.OnEnd != nil {
		p.handler.OnEnd()
	}
	return p.Err()
}

// Reset returns the parser to its initial state with the same options and
// re-fires OnReady.
func (p *Parser) Reset() {
	p.init()
	if p.handler.OnReady != nil {
		p.handler.OnReady()
	}
}

// Resume clears a latched error so writing can continue.
func (p *Parser) Resume() {
	p.err = nil
}

// --- buffers ---

func (p *Parser) appendRune(id bufID, r rune) {
	p.buf[id] = utf8.AppendRune(p.buf[id], r)
}

func (p *Parser) appendString(id bufID, s string) {
	p.buf[id] = append(p.buf[id], s...)
}

func (p *Parser) takeBuf(id bufID) string {
	s := string(p.buf[id])
	p.buf[id] = p.buf[id][:0]
	return s
}

func (p *Parser) maybeCheckBuffers() {
	if p.opt.maxBufferLength() < 0 {
		return
	}
	if p.position >= p.bufferCheckPosition {
		p.checkBuffers()
	}
}

// checkBuffers enforces the buffer bound. Text, CDATA and script regions may
// be arbitrarily long, so an overrun there emits a partial event; any other
// buffer past the bound is an error. The next check is scheduled for the
// earliest position at which a buffer could overrun again.
func (p *Parser) checkBuffers() {
	maxAllowed := p.opt.maxBufferLength()
	if maxAllowed < 10 {
		maxAllowed = 10
	}
	maxActual := 0
	for id := bufID(0); id < bufCount; id++ {
		n := len(p.buf[id])
		if n > maxAllowed {
			switch id {
			case bufTextNode:
				p.closeText()
			case bufCData:
				p.emitCData(p.takeBuf(bufCData))
			case bufScript:
				p.emitText(p.takeBuf(bufScript))
			default:
				p.fail("Max buffer length exceeded: " + bufNames[id])
			}
			n = len(p.buf[id])
		}
		if n > maxActual {
			maxActual = n
		}
	}
	p.bufferCheckPosition = p.opt.maxBufferLength() - maxActual + p.position
}

// --- event emission ---

// closeText applies the whitespace options and emits at most one OnText for
// the buffered text region.
func (p *Parser) closeText() {
	if len(p.buf[bufTextNode]) == 0 {
		return
	}
	text := applyTextOptions(p.opt, p.takeBuf(bufTextNode))
	if text != "" && p.handler.OnText != nil {
		p.handler.OnText(text)
	}
}

func (p *Parser) emitText(text string) {
	if text != "" && p.handler.OnText != nil {
		p.handler.OnText(text)
	}
}

func (p *Parser) emitCData(text string) {
	p.closeText()
	if text != "" && p.handler.OnCData != nil {
		p.handler.OnCData(text)
	}
}

func (p *Parser) emitOpenCData() {
	p.closeText()
	if p.handler.OnOpenCData != nil {
		p.handler.OnOpenCData()
	}
}

func (p *Parser) emitCloseCData() {
	p.closeText()
	if p.handler.OnCloseCData != nil {
		p.handler.OnCloseCData()
	}
}

func (p *Parser) emitComment(text string) {
	p.closeText()
	if p.handler.OnComment != nil {
		p.handler.OnComment(text)
	}
}

func (p *Parser) emitDoctype(text string) {
	p.closeText()
	if p.handler.OnDoctype != nil {
		p.handler.OnDoctype(text)
	}
}

func (p *Parser) emitSGMLDeclaration(text string) {
	p.closeText()
	if p.handler.OnSGMLDeclaration != nil {
		p.handler.OnSGMLDeclaration(text)
	}
}

func (p *Parser) emitProcInst(pi ProcInst) {
	p.closeText()
	if p.handler.OnProcessingInstruction != nil {
		p.handler.OnProcessingInstruction(pi)
	}
}

func (p *Parser) emitOpenTagStart(tag *Tag) {
	p.closeText()
	if p.handler.OnOpenTagStart != nil {
		p.handler.OnOpenTagStart(tag)
	}
}

func (p *Parser) emitAttribute(attr Attribute) {
	p.closeText()
	if p.handler.OnAttribute != nil {
		p.handler.OnAttribute(attr)
	}
}

func (p *Parser) emitOpenTag(tag *Tag) {
	p.closeText()
	if p.handler.OnOpenTag != nil {
		p.handler.OnOpenTag(tag)
	}
}

func (p *Parser) emitCloseTag(name string) {
	p.closeText()
	if p.handler.OnCloseTag != nil {
		p.handler.OnCloseTag(name)
	}
}

func (p *Parser) emitOpenNamespace(ns Namespace) {
	p.closeText()
	if p.handler.OnOpenNamespace != nil {
		p.handler.OnOpenNamespace(ns)
	}
}

func (p *Parser) emitCloseNamespace(ns Namespace) {
	p.closeText()
	if p.handler.OnCloseNamespace != nil {
		p.handler.OnCloseNamespace(ns)
	}
}

// --- errors ---

// fail latches an error and delivers it through OnError. Parsing continues;
// the next Write returns the latched error unless Resume clears it.
func (p *Parser) fail(msg string) *ParseError {
	p.closeText()
	err := &ParseError{
		Msg:      msg,
		Line:     p.line,
		Column:   p.column,
		Position: p.position,
		tracked:  p.opt.TrackPosition,
	}
	p.err = err
	if p.handler.OnError != nil {
		p.handler.OnError(err)
	}
	return err
}

// strictFail reports a recoverable syntax diagnostic. Lenient mode recovers
// silently; strict mode routes it through fail.
func (p *Parser) strictFail(msg string) {
	if p.opt.Strict {
		p.fail(msg)
	}
}
