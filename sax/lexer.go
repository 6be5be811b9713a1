package sax

import (
	"strconv"
	"strings"
)

// step advances the state machine by one codepoint. It is the only place
// state transitions happen; Write and WriteString decode and loop.
func (p *Parser) step(r rune) {
	switch p.state {
	case stateBegin:
		p.state = stateBeginWhitespace
		if r == '\uFEFF' {
			return
		}
		p.beginWhitespace(r)

	case stateBeginWhitespace:
		p.beginWhitespace(r)

	case stateText:
		if r == '<' && !(p.sawRoot && p.closedRoot && !p.opt.Strict) {
			p.state = stateOpenWaka
			p.startTagPosition = p.position
			return
		}
		if !isWhitespace(r) && (!p.sawRoot || p.closedRoot) {
			p.strictFail("Text data outside of root node")
		}
		if r == '&' {
			p.state = stateTextEntity
		} else {
			p.appendRune(bufTextNode, r)
		}

	case stateScript:
		if r == '<' {
			p.state = stateScriptEnding
		} else {
			p.appendRune(bufScript, r)
		}

	case stateScriptEnding:
		if r == '/' {
			p.state = stateCloseTag
			p.buf[bufTagName] = p.buf[bufTagName][:0]
		} else {
			p.appendString(bufScript, "<")
			p.appendRune(bufScript, r)
			p.state = stateScript
		}

	case stateOpenWaka:
		switch {
		case r == '!':
			p.state = stateSGMLDecl
			p.buf[bufSGMLDecl] = p.buf[bufSGMLDecl][:0]
		case isWhitespace(r):
			// wait for a decisive character
		case isNameStart(r):
			p.state = stateOpenTag
			p.buf[bufTagName] = p.buf[bufTagName][:0]
			p.appendRune(bufTagName, r)
		case r == '/':
			p.state = stateCloseTag
			p.buf[bufTagName] = p.buf[bufTagName][:0]
		case r == '?':
			p.state = stateProcInst
			p.buf[bufProcInstName] = p.buf[bufProcInstName][:0]
			p.buf[bufProcInstBody] = p.buf[bufProcInstBody][:0]
		default:
			if p.inDTD {
				// stray markup inside the internal subset stays in the
				// doctype buffer
				p.appendString(bufDoctype, "<")
				p.appendRune(bufDoctype, r)
				p.state = stateDoctypeDTD
				return
			}
			p.strictFail("Unencoded <")
			// rewind: the consumed < plus any whitespace padding become text
			if p.startTagPosition+1 < p.position {
				pad := p.position - p.startTagPosition
				p.appendString(bufTextNode, "<"+strings.Repeat(" ", pad-1))
			} else {
				p.appendString(bufTextNode, "<")
			}
			p.appendRune(bufTextNode, r)
			p.state = stateText
		}

	case stateSGMLDecl:
		acc := string(p.buf[bufSGMLDecl])
		accC := acc + string(r)
		switch {
		case strings.EqualFold(accC, "[CDATA["):
			p.emitOpenCData()
			p.state = stateCData
			p.buf[bufSGMLDecl] = p.buf[bufSGMLDecl][:0]
			p.buf[bufCData] = p.buf[bufCData][:0]
		case accC == "--":
			p.state = stateComment
			p.buf[bufComment] = p.buf[bufComment][:0]
			p.buf[bufSGMLDecl] = p.buf[bufSGMLDecl][:0]
		case strings.EqualFold(accC, "DOCTYPE"):
			if p.sawDoctype || p.sawRoot {
				p.strictFail("Inappropriately located doctype declaration")
			}
			p.state = stateDoctype
			p.buf[bufDoctype] = p.buf[bufDoctype][:0]
			p.buf[bufSGMLDecl] = p.buf[bufSGMLDecl][:0]
		case p.inDTD && !sgmlKeywordPrefix(accC):
			// a markup declaration inside the internal subset stays in
			// the doctype buffer
			p.appendString(bufDoctype, "<!"+accC)
			p.buf[bufSGMLDecl] = p.buf[bufSGMLDecl][:0]
			p.state = stateDoctypeDTD
		case r == '>':
			p.emitSGMLDeclaration(p.takeBuf(bufSGMLDecl))
			p.state = stateText
		case isQuote(r):
			p.state = stateSGMLDeclQuoted
			p.quote = r
			p.appendRune(bufSGMLDecl, r)
		default:
			p.appendRune(bufSGMLDecl, r)
		}

	case stateSGMLDeclQuoted:
		if r == p.quote {
			p.state = stateSGMLDecl
			p.quote = 0
		}
		p.appendRune(bufSGMLDecl, r)

	case stateDoctype:
		if r == '>' {
			p.state = stateText
			p.emitDoctype(p.takeBuf(bufDoctype))
			p.sawDoctype = true
			return
		}
		p.appendRune(bufDoctype, r)
		if r == '[' {
			p.state = stateDoctypeDTD
			p.inDTD = true
		} else if isQuote(r) {
			p.state = stateDoctypeQuoted
			p.quote = r
		}

	case stateDoctypeQuoted:
		p.appendRune(bufDoctype, r)
		if r == p.quote {
			p.quote = 0
			p.state = stateDoctype
		}

	case stateDoctypeDTD:
		switch {
		case r == ']':
			p.appendRune(bufDoctype, r)
			p.inDTD = false
			p.state = stateDoctype
		case r == '<':
			p.state = stateOpenWaka
			p.startTagPosition = p.position
		case isQuote(r):
			p.appendRune(bufDoctype, r)
			p.state = stateDoctypeDTDQuoted
			p.quote = r
		default:
			p.appendRune(bufDoctype, r)
		}

	case stateDoctypeDTDQuoted:
		p.appendRune(bufDoctype, r)
		if r == p.quote {
			p.state = stateDoctypeDTD
			p.quote = 0
		}

	case stateComment:
		if r == '-' {
			p.state = stateCommentEnding
		} else {
			p.appendRune(bufComment, r)
		}

	case stateCommentEnding:
		if r == '-' {
			p.state = stateCommentEnded
			text := applyTextOptions(p.opt, p.takeBuf(bufComment))
			if text != "" {
				p.emitComment(text)
			}
		} else {
			p.appendString(bufComment, "-")
			p.appendRune(bufComment, r)
			p.state = stateComment
		}

	case stateCommentEnded:
		if r != '>' {
			p.strictFail("Malformed comment")
			// <!-- blah -- bloo --> is lenient-legal
			p.appendString(bufComment, "--")
			p.appendRune(bufComment, r)
			p.state = stateComment
		} else if p.inDTD {
			p.state = stateDoctypeDTD
		} else {
			p.state = stateText
		}

	case stateCData:
		if r == ']' {
			p.state = stateCDataEnding
		} else {
			p.appendRune(bufCData, r)
		}

	case stateCDataEnding:
		if r == ']' {
			p.state = stateCDataEnding2
		} else {
			p.appendString(bufCData, "]")
			p.appendRune(bufCData, r)
			p.state = stateCData
		}

	case stateCDataEnding2:
		switch {
		case r == '>':
			if len(p.buf[bufCData]) > 0 {
				p.emitCData(p.takeBuf(bufCData))
			}
			p.emitCloseCData()
			p.state = stateText
		case r == ']':
			// still possibly the end; keep one ] buffered
			p.appendString(bufCData, "]")
		default:
			p.appendString(bufCData, "]]")
			p.appendRune(bufCData, r)
			p.state = stateCData
		}

	case stateProcInst:
		if r == '?' {
			p.state = stateProcInstEnding
		} else if isWhitespace(r) {
			p.state = stateProcInstBody
		} else {
			p.appendRune(bufProcInstName, r)
		}

	case stateProcInstBody:
		if len(p.buf[bufProcInstBody]) == 0 && isWhitespace(r) {
			return
		} else if r == '?' {
			p.state = stateProcInstEnding
		} else {
			p.appendRune(bufProcInstBody, r)
		}

	case stateProcInstEnding:
		if r == '>' {
			p.emitProcInst(ProcInst{
				Name: p.takeBuf(bufProcInstName),
				Body: p.takeBuf(bufProcInstBody),
			})
			p.state = stateText
		} else {
			p.appendString(bufProcInstBody, "?")
			p.appendRune(bufProcInstBody, r)
			p.state = stateProcInstBody
		}

	case stateOpenTag:
		if isNameBody(r) {
			p.appendRune(bufTagName, r)
			return
		}
		p.newTag()
		switch {
		case r == '>':
			p.openTag(false)
		case r == '/':
			p.state = stateOpenTagSlash
		default:
			if !isWhitespace(r) {
				p.strictFail("Invalid character in tag name")
			}
			p.state = stateAttrib
		}

	case stateOpenTagSlash:
		if r == '>' {
			tag := p.openTag(true)
			p.doCloseTag(tag.Name)
		} else {
			p.strictFail("Forward-slash in opening tag not followed by >")
			p.state = stateAttrib
		}

	case stateAttrib:
		switch {
		case isWhitespace(r):
		case r == '>':
			p.openTag(false)
		case r == '/':
			p.state = stateOpenTagSlash
		case isNameStart(r):
			p.buf[bufAttribName] = p.buf[bufAttribName][:0]
			p.buf[bufAttribValue] = p.buf[bufAttribValue][:0]
			p.appendRune(bufAttribName, r)
			p.state = stateAttribName
		default:
			p.strictFail("Invalid attribute name")
		}

	case stateAttribName:
		switch {
		case r == '=':
			p.state = stateAttribValue
		case r == '>':
			p.strictFail("Attribute without value")
			p.appendString(bufAttribValue, string(p.buf[bufAttribName]))
			p.attrib()
			p.openTag(false)
		case isWhitespace(r):
			p.state = stateAttribNameSawWhite
		case isNameBody(r):
			p.appendRune(bufAttribName, r)
		default:
			p.strictFail("Invalid attribute name")
		}

	case stateAttribNameSawWhite:
		switch {
		case r == '=':
			p.state = stateAttribValue
		case isWhitespace(r):
		default:
			p.strictFail("Attribute without value")
			p.attrib()
			switch {
			case r == '>':
				p.openTag(false)
			case isNameStart(r):
				p.appendRune(bufAttribName, r)
				p.state = stateAttribName
			default:
				p.strictFail("Invalid attribute name")
				p.state = stateAttrib
			}
		}

	case stateAttribValue:
		switch {
		case isWhitespace(r):
		case isQuote(r):
			p.quote = r
			p.state = stateAttribValueQuoted
		default:
			if !p.opt.unquotedValues() {
				p.strictFail("Unquoted attribute value")
			}
			p.state = stateAttribValueUnquoted
			p.appendRune(bufAttribValue, r)
		}

	case stateAttribValueQuoted:
		if r != p.quote {
			if r == '&' {
				p.state = stateAttribValueEntityQ
			} else {
				p.appendRune(bufAttribValue, r)
			}
			return
		}
		p.attrib()
		p.quote = 0
		p.state = stateAttribValueClosed

	case stateAttribValueClosed:
		switch {
		case isWhitespace(r):
			p.state = stateAttrib
		case r == '>':
			p.openTag(false)
		case r == '/':
			p.state = stateOpenTagSlash
		case isNameStart(r):
			p.strictFail("No whitespace between attributes")
			p.buf[bufAttribName] = p.buf[bufAttribName][:0]
			p.buf[bufAttribValue] = p.buf[bufAttribValue][:0]
			p.appendRune(bufAttribName, r)
			p.state = stateAttribName
		default:
			p.strictFail("Invalid attribute name")
		}

	case stateAttribValueUnquoted:
		if r != '>' && !isWhitespace(r) {
			if r == '&' {
				p.state = stateAttribValueEntityU
			} else {
				p.appendRune(bufAttribValue, r)
			}
			return
		}
		p.attrib()
		if r == '>' {
			p.openTag(false)
		} else {
			p.state = stateAttrib
		}

	case stateCloseTag:
		switch {
		case len(p.buf[bufTagName]) == 0:
			switch {
			case isWhitespace(r):
			case !isNameStart(r):
				if len(p.buf[bufScript]) > 0 {
					p.appendString(bufScript, "</")
					p.appendRune(bufScript, r)
					p.state = stateScript
				} else {
					p.strictFail("Invalid tagname in closing tag")
				}
			default:
				p.appendRune(bufTagName, r)
			}
		case r == '>':
			p.doCloseTag(p.takeBuf(bufTagName))
		case isNameBody(r):
			p.appendRune(bufTagName, r)
		case len(p.buf[bufScript]) > 0:
			p.appendString(bufScript, "</"+p.takeBuf(bufTagName))
			p.appendRune(bufScript, r)
			p.state = stateScript
		default:
			if !isWhitespace(r) {
				p.strictFail("Invalid characters in closing tag")
			}
			p.state = stateCloseTagSawWhite
		}

	case stateCloseTagSawWhite:
		switch {
		case isWhitespace(r):
		case r == '>':
			p.doCloseTag(p.takeBuf(bufTagName))
		default:
			p.strictFail("Invalid characters in closing tag")
		}

	case stateTextEntity, stateAttribValueEntityQ, stateAttribValueEntityU:
		var returnState state
		var target bufID
		switch p.state {
		case stateTextEntity:
			returnState, target = stateText, bufTextNode
		case stateAttribValueEntityQ:
			returnState, target = stateAttribValueQuoted, bufAttribValue
		default:
			returnState, target = stateAttribValueUnquoted, bufAttribValue
		}
		switch {
		case r == ';':
			raw := p.takeBuf(bufEntity)
			value, ok := p.resolveEntity(raw)
			if !ok {
				p.strictFail("Invalid character entity")
				p.appendString(target, "&"+raw+";")
				p.state = returnState
				return
			}
			p.state = returnState
			if p.opt.UnparsedEntities && !isPredefinedReplacement(value) {
				p.reenter(value)
			} else {
				p.appendString(target, value)
			}
		case entityChar(len(p.buf[bufEntity]) == 0, r):
			p.appendRune(bufEntity, r)
		default:
			p.strictFail("Invalid character in entity name")
			p.appendString(target, "&")
			p.appendString(target, p.takeBuf(bufEntity))
			p.appendRune(target, r)
			p.state = returnState
		}

	default:
		p.fail("Unknown state: " + p.state.String())
	}
}

func (p *Parser) beginWhitespace(r rune) {
	if r == '<' {
		p.state = stateOpenWaka
		p.startTagPosition = p.position
	} else if !isWhitespace(r) {
		p.strictFail("Non-whitespace before first tag")
		p.appendRune(bufTextNode, r)
		p.state = stateText
	}
}

func entityChar(first bool, r rune) bool {
	if first {
		return isEntityStart(r)
	}
	return isEntityBody(r)
}

// sgmlKeywordPrefix reports whether the <! accumulator could still become a
// comment, CDATA section or doctype opener. Anything else inside an internal
// subset is a markup declaration and belongs to the doctype buffer.
func sgmlKeywordPrefix(acc string) bool {
	up := strings.ToUpper(acc)
	return strings.HasPrefix("[CDATA[", up) ||
		strings.HasPrefix("DOCTYPE", up) ||
		strings.HasPrefix("--", acc)
}

func (p *Parser) looseCase(name string) string {
	if p.opt.Strict {
		return name
	}
	switch p.opt.caseTransform() {
	case CaseLower:
		return strings.ToLower(name)
	case CaseUpper:
		return strings.ToUpper(name)
	}
	return name
}

func (p *Parser) parentScope() *nsScope {
	if len(p.tags) > 0 {
		return p.tags[len(p.tags)-1].ns
	}
	return p.ns
}

// newTag commits the accumulated tag name to a pending Tag and announces it.
// The deferred attribute list is cleared; in namespaces mode the tag starts
// out sharing the enclosing scope.
func (p *Parser) newTag() {
	name := p.looseCase(p.takeBuf(bufTagName))
	tag := &Tag{Name: name}
	if p.opt.Namespaces {
		tag.ns = p.parentScope()
	}
	p.tag = tag
	p.attribList = p.attribList[:0]
	p.emitOpenTagStart(tag)
}

// attrib commits the accumulated attribute name/value pair. Duplicates are
// dropped silently. In namespaces mode xmlns declarations are bound
// immediately and the pair is deferred; otherwise the attribute is emitted
// right away.
func (p *Parser) attrib() {
	name := p.looseCase(p.takeBuf(bufAttribName))
	value := p.takeBuf(bufAttribValue)

	for _, a := range p.attribList {
		if a.Name == name {
			return
		}
	}
	if p.tag != nil && p.tag.hasAttr(name) {
		return
	}

	if p.opt.Namespaces {
		prefix, local := splitQName(name, true)
		if prefix == "xmlns" {
			switch {
			case local == "xml" && value != XMLNamespace:
				p.strictFail("xml: prefix must be bound to " + XMLNamespace)
			case local == "xmlns" && value != XMLNSNamespace:
				p.strictFail("xmlns: prefix must be bound to " + XMLNSNamespace)
			default:
				parentNS := p.parentScope()
				if p.tag.ns == parentNS {
					p.tag.ns = parentNS.child()
				}
				p.tag.ns.bind(local, value)
			}
		}
		p.attribList = append(p.attribList, Attribute{Name: name, Value: value})
		return
	}

	a := Attribute{Name: name, Value: value}
	p.tag.Attributes = append(p.tag.Attributes, a)
	p.emitAttribute(a)
}

// openTag finishes the pending tag: namespaces are resolved, deferred
// attributes are emitted in document order, the tag is pushed and announced.
func (p *Parser) openTag(selfClosing bool) *Tag {
	tag := p.tag
	if p.opt.Namespaces {
		prefix, local := splitQName(tag.Name, false)
		tag.Prefix = prefix
		tag.LocalName = local
		uri, _ := tag.ns.resolve(prefix)
		if prefix != "" && uri == "" {
			p.strictFail("Unbound namespace prefix: " + strconv.Quote(tag.Name))
			uri = prefix
		}
		tag.URI = uri

		if tag.ns != p.parentScope() {
			for _, pre := range tag.ns.declared {
				p.emitOpenNamespace(Namespace{Prefix: pre, URI: tag.ns.bindings[pre]})
			}
		}

		for _, a := range p.attribList {
			prefix, local := splitQName(a.Name, true)
			a.Prefix = prefix
			a.LocalName = local
			if prefix == "" {
				// attributes do not inherit the default namespace
				a.URI = ""
			} else {
				uri, _ := tag.ns.resolve(prefix)
				if prefix != "xmlns" && uri == "" {
					p.strictFail("Unbound namespace prefix: " + strconv.Quote(a.Name))
					uri = prefix
				}
				a.URI = uri
			}
			tag.Attributes = append(tag.Attributes, a)
			p.emitAttribute(a)
		}
		p.attribList = p.attribList[:0]
	}

	tag.IsSelfClosing = selfClosing
	p.sawRoot = true
	p.tags = append(p.tags, tag)
	p.emitOpenTag(tag)
	if !selfClosing {
		if !p.opt.Strict && p.opt.AllowScript && strings.EqualFold(tag.Name, "script") {
			p.state = stateScript
		} else {
			p.state = stateText
		}
		p.tag = nil
	}
	p.buf[bufAttribName] = p.buf[bufAttribName][:0]
	p.buf[bufAttribValue] = p.buf[bufAttribValue][:0]
	return tag
}

// doCloseTag pops the stack down to the named element. Intervening tags are
// closed on the way (reported in strict mode); an unmatched name leaves the
// literal close tag in the text buffer.
func (p *Parser) doCloseTag(rawName string) {
	if rawName == "" {
		p.strictFail("Weird empty close tag")
		p.appendString(bufTextNode, "</>")
		p.state = stateText
		return
	}

	if len(p.buf[bufScript]) > 0 {
		if rawName != "script" {
			p.appendString(bufScript, "</"+rawName+">")
			p.state = stateScript
			return
		}
		p.emitText(p.takeBuf(bufScript))
	}

	name := p.looseCase(rawName)
	t := len(p.tags) - 1
	for ; t >= 0; t-- {
		if p.tags[t].Name == name {
			break
		}
		p.strictFail("Unexpected close tag")
	}
	if t < 0 {
		p.strictFail("Unmatched closing tag: " + rawName)
		p.appendString(bufTextNode, "</"+rawName+">")
		p.state = stateText
		return
	}

	for len(p.tags) > t {
		tag := p.tags[len(p.tags)-1]
		p.tags = p.tags[:len(p.tags)-1]
		p.tag = tag
		p.emitCloseTag(tag.Name)
		if p.opt.Namespaces && tag.ns != p.parentScope() {
			for _, pre := range tag.ns.declared {
				p.emitCloseNamespace(Namespace{Prefix: pre, URI: tag.ns.bindings[pre]})
			}
		}
	}
	if t == 0 {
		p.closedRoot = true
	}
	p.state = stateText
}
