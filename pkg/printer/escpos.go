package printer

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Align is the ESC a justification argument.
type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Size is the GS ! character size argument.
type Size byte

const (
	SizeNormal Size = 0x00
	SizeTall   Size = 0x01
	SizeWide   Size = 0x10
	SizeDouble Size = 0x11
)

// Paper widths in characters for the common roll sizes.
const (
	Width58mm = 32
	Width80mm = 48
)

// Document accumulates an ESC/POS job. Text is reduced to printable ASCII
// since receipt printers in the shop run the default code page.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a job that resets the printer. A non-positive width
// selects 58mm paper.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = Width58mm
	}
	d := &Document{width: width}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// Width returns the characters per line.
func (d *Document) Width() int {
	return d.width
}

func (d *Document) Align(a Align) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(a)})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

func (d *Document) Size(s Size) *Document {
	d.buf.Write([]byte{GS, '!', byte(s)})
	return d
}

// Heading prints a centered double-size bold line and restores the
// normal left-aligned style.
func (d *Document) Heading(s string) *Document {
	return d.Align(AlignCenter).Bold(true).Size(SizeDouble).
		Line(s).
		Size(SizeNormal).Bold(false).Align(AlignLeft)
}

// Centered prints each line centered, then returns to left alignment.
func (d *Document) Centered(lines ...string) *Document {
	d.Align(AlignCenter)
	for _, l := range lines {
		if l != "" {
			d.Line(l)
		}
	}
	return d.Align(AlignLeft)
}

func (d *Document) Line(s string) *Document {
	d.buf.WriteString(printable(s))
	d.buf.WriteByte(LF)
	return d
}

func (d *Document) Linef(format string, args ...interface{}) *Document {
	return d.Line(fmt.Sprintf(format, args...))
}

// Feed advances the paper n lines.
func (d *Document) Feed(n int) *Document {
	d.buf.Write(bytes.Repeat([]byte{LF}, max(n, 0)))
	return d
}

// Rule fills one line with char.
func (d *Document) Rule(char byte) *Document {
	d.buf.Write(bytes.Repeat([]byte{char}, d.width))
	d.buf.WriteByte(LF)
	return d
}

// Pair prints key on the left and value flush right.
// Example: "TOTAL:          150.00"
func (d *Document) Pair(key, value string) *Document {
	d.columns(printable(key), printable(value))
	return d
}

// Item prints "qty x name" with the total flush right. Names that do not
// fit continue, indented, on the following lines.
// Example: "2x Battery BN46        20.00"
func (d *Document) Item(qty int, name, total string) *Document {
	name, total = printable(name), printable(total)
	prefix := fmt.Sprintf("%dx ", qty)
	room := d.width - len(prefix) - len(total) - 1
	if room < 1 || len(name) <= room {
		d.columns(prefix+name, total)
		return d
	}

	lines := wrap(name, room)
	d.columns(prefix+lines[0], total)
	indent := strings.Repeat(" ", len(prefix))
	for _, l := range lines[1:] {
		d.Line(indent + l)
	}
	return d
}

// Cut feeds past the tear bar and cuts. A partial cut leaves a hinge.
func (d *Document) Cut(partial bool) *Document {
	mode := byte(0)
	if partial {
		mode = 1
	}
	d.buf.Write([]byte{GS, 'V', mode})
	return d
}

func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func (d *Document) columns(left, right string) {
	gap := d.width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	d.buf.WriteString(left)
	d.buf.WriteString(strings.Repeat(" ", gap))
	d.buf.WriteString(right)
	d.buf.WriteByte(LF)
}

// wrap splits s into lines of at most width bytes, breaking on spaces
// where possible.
func wrap(s string, width int) []string {
	var lines []string
	for len(s) > width {
		cut := strings.LastIndexByte(s[:width+1], ' ')
		if cut <= 0 {
			cut = width
		}
		lines = append(lines, strings.TrimSpace(s[:cut]))
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" || len(lines) == 0 {
		lines = append(lines, s)
	}
	return lines
}

// printable maps anything outside printable ASCII to '?' so column
// arithmetic stays byte-accurate.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}
