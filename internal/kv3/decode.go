package kv3

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const headerPrefix = "<!--"

// MaxDepth is the deepest nesting of containers and flags a document may use.
const MaxDepth = 512

// Header carries the encoding and format declared by a document.
type Header struct {
	Encoding        string
	EncodingVersion string
	Format          string
	FormatVersion   string
	// Compression is set for binary documents only.
	Compression string
}

// SyntaxError reports malformed text with its position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("kv3: line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// ErrNotText indicates the payload does not start with a text KV3 header.
var ErrNotText = errors.New("kv3: not a text document")

// IsText reports whether data starts with a text KV3 header.
func IsText(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	data = bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(data, []byte(headerPrefix)) {
		return false
	}
	rest := bytes.TrimLeft(data[len(headerPrefix):], " \t")
	return bytes.HasPrefix(rest, []byte("kv3"))
}

// Decode parses a text KV3 document. The header comment is optional; when
// present it must declare kv3.
func Decode(data []byte) (Header, Value, error) {
	p := &parser{src: data, line: 1, col: 1}
	p.skipBOM()

	var hdr Header
	p.skipSpace()
	if p.hasPrefix(headerPrefix) {
		h, err := p.header()
		if err != nil {
			return Header{}, Value{}, err
		}
		hdr = h
	}
	if err := p.skip(); err != nil {
		return Header{}, Value{}, err
	}
	if p.eof() {
		return Header{}, Value{}, p.errorf("missing root value")
	}
	root, err := p.value()
	if err != nil {
		return Header{}, Value{}, err
	}
	if err := p.skip(); err != nil {
		return Header{}, Value{}, err
	}
	if !p.eof() {
		return Header{}, Value{}, p.errorf("unexpected %q after root value", p.peek())
	}
	return hdr, root, nil
}

type parser struct {
	src   []byte
	pos   int
	line  int
	col   int
	depth int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.src[p.pos:], []byte(s))
}

func (p *parser) advance(n int) {
	for i := 0; i < n && !p.eof(); i++ {
		if p.src[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func (p *parser) skipBOM() {
	if p.hasPrefix("\xEF\xBB\xBF") {
		p.pos += 3
	}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance(1)
		default:
			return
		}
	}
}

// skip consumes whitespace and comments.
func (p *parser) skip() error {
	for {
		p.skipSpace()
		switch {
		case p.hasPrefix("//"):
			for !p.eof() && p.peek() != '\n' {
				p.advance(1)
			}
		case p.hasPrefix("/*"):
			end := bytes.Index(p.src[p.pos+2:], []byte("*/"))
			if end < 0 {
				return p.errorf("unterminated block comment")
			}
			p.advance(end + 4)
		default:
			return nil
		}
	}
}

func (p *parser) header() (Header, error) {
	end := bytes.Index(p.src[p.pos:], []byte("-->"))
	if end < 0 {
		return Header{}, p.errorf("unterminated header comment")
	}
	body := string(p.src[p.pos+len(headerPrefix) : p.pos+end])
	p.advance(end + 3)

	fields := strings.Fields(body)
	if len(fields) == 0 || fields[0] != "kv3" {
		return Header{}, ErrNotText
	}
	var hdr Header
	for _, field := range fields[1:] {
		kind, rest, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		name, version, _ := strings.Cut(rest, ":")
		version = strings.TrimSuffix(strings.TrimPrefix(version, "version{"), "}")
		switch kind {
		case "encoding":
			hdr.Encoding, hdr.EncodingVersion = name, version
		case "format":
			hdr.Format, hdr.FormatVersion = name, version
		}
	}
	if hdr.Encoding != "" && hdr.Encoding != "text" {
		return Header{}, fmt.Errorf("%w: encoding %q", ErrNotText, hdr.Encoding)
	}
	return hdr, nil
}

func (p *parser) value() (Value, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return Value{}, p.errorf("nesting exceeds %d levels", MaxDepth)
	}
	if err := p.skip(); err != nil {
		return Value{}, err
	}
	if p.eof() {
		return Value{}, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.str()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == '#':
		return p.binary()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		return p.word()
	}
	return Value{}, p.errorf("unexpected %q", c)
}

func (p *parser) object() (Value, error) {
	p.advance(1)
	obj := NewObject()
	for {
		if err := p.skip(); err != nil {
			return Value{}, err
		}
		if p.eof() {
			return Value{}, p.errorf("unterminated object")
		}
		switch p.peek() {
		case '}':
			p.advance(1)
			return ObjectValue(obj), nil
		case ',':
			p.advance(1)
			continue
		}
		key, err := p.key()
		if err != nil {
			return Value{}, err
		}
		if err := p.skip(); err != nil {
			return Value{}, err
		}
		if p.peek() != '=' {
			return Value{}, p.errorf("expected '=' after key %q", key)
		}
		p.advance(1)
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		obj.Set(key, v)
	}
}

func (p *parser) key() (string, error) {
	if p.peek() == '"' {
		return p.str()
	}
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.advance(1)
	}
	if p.pos == start {
		return "", p.errorf("expected key, found %q", p.peek())
	}
	return string(p.src[start:p.pos]), nil
}

func (p *parser) array() (Value, error) {
	p.advance(1)
	var items []Value
	for {
		if err := p.skip(); err != nil {
			return Value{}, err
		}
		if p.eof() {
			return Value{}, p.errorf("unterminated array")
		}
		if p.peek() == ']' {
			p.advance(1)
			return Array(items...), nil
		}
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		if err := p.skip(); err != nil {
			return Value{}, err
		}
		switch p.peek() {
		case ',':
			p.advance(1)
		case ']':
		default:
			return Value{}, p.errorf("expected ',' or ']' in array, found %q", p.peek())
		}
	}
}

func (p *parser) str() (string, error) {
	if p.hasPrefix(`"""`) {
		return p.multiline()
	}
	p.advance(1)
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.peek()
		switch c {
		case '"':
			p.advance(1)
			return sb.String(), nil
		case '\n':
			return "", p.errorf("newline in string")
		case '\\':
			p.advance(1)
			if p.eof() {
				return "", p.errorf("unterminated escape")
			}
			switch e := p.peek(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"', '\\', '\'':
				sb.WriteByte(e)
			default:
				return "", p.errorf("unknown escape \\%c", e)
			}
			p.advance(1)
		default:
			sb.WriteByte(c)
			p.advance(1)
		}
	}
}

// multiline reads a """ block. The newline after the opening quotes and the
// one before the closing quotes are not part of the value.
func (p *parser) multiline() (string, error) {
	p.advance(3)
	end := bytes.Index(p.src[p.pos:], []byte(`"""`))
	if end < 0 {
		return "", p.errorf("unterminated multi-line string")
	}
	s := string(p.src[p.pos : p.pos+end])
	p.advance(end + 3)
	s = strings.TrimPrefix(s, "\r")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

func (p *parser) binary() (Value, error) {
	p.advance(1)
	if p.peek() != '[' {
		return Value{}, p.errorf("expected '[' after '#'")
	}
	p.advance(1)
	var digits []byte
	for {
		if err := p.skip(); err != nil {
			return Value{}, err
		}
		if p.eof() {
			return Value{}, p.errorf("unterminated binary blob")
		}
		c := p.peek()
		if c == ']' {
			p.advance(1)
			break
		}
		if !isHex(c) {
			return Value{}, p.errorf("invalid hex digit %q in binary blob", c)
		}
		digits = append(digits, c)
		p.advance(1)
	}
	if len(digits)%2 != 0 {
		return Value{}, p.errorf("odd number of hex digits in binary blob")
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return Value{}, p.errorf("binary blob: %v", err)
	}
	return Binary(out), nil
}

func (p *parser) number() (Value, error) {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.advance(1)
			continue
		}
		break
	}
	text := string(p.src[start:p.pos])
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), nil
		}
		if u, err := strconv.ParseUint(text, 10, 64); err == nil {
			return Float(float64(u)), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, p.errorf("invalid number %q", text)
	}
	return Float(f), nil
}

// word reads a keyword or a flagged value such as resource:"path".
func (p *parser) word() (Value, error) {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.advance(1)
	}
	word := string(p.src[start:p.pos])
	if p.peek() == ':' {
		p.advance(1)
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		return v.WithFlag(word), nil
	}
	switch word {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null(), nil
	}
	return Value{}, p.errorf("unexpected identifier %q", word)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '|'
}
