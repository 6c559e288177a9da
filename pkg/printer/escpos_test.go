package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemWrapsLongNames(t *testing.T) {
	doc := NewDocument(32)
	doc.Item(2, "LCD Touchscreen Samsung Galaxy A50 Original", "300000.00")

	out := string(bytes.TrimPrefix(doc.Bytes(), []byte{ESC, '@'}))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "2x LCD"))
	assert.True(t, strings.HasSuffix(lines[0], "300000.00"))
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 32)
	}
	assert.True(t, strings.HasPrefix(lines[1], "   "))
}

func TestPairFillsWidth(t *testing.T) {
	doc := NewDocument(20)
	doc.Pair("TOTAL:", "15.00")
	out := string(bytes.TrimPrefix(doc.Bytes(), []byte{ESC, '@'}))
	assert.Equal(t, "TOTAL:         15.00\n", out)
}

func TestNonASCIIIsReplaced(t *testing.T) {
	doc := NewDocument(12)
	doc.Pair("Café", "1.00")
	out := string(bytes.TrimPrefix(doc.Bytes(), []byte{ESC, '@'}))
	assert.Equal(t, "Caf?    1.00\n", out)
}

func TestHeadingRestoresStyle(t *testing.T) {
	doc := NewDocument(Width58mm)
	doc.Heading("SHOP")
	out := doc.Bytes()
	assert.True(t, bytes.HasSuffix(out, []byte{GS, '!', byte(SizeNormal), ESC, 'E', 0, ESC, 'a', byte(AlignLeft)}))
	assert.Contains(t, string(out), "SHOP\n")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc"}, wrap("abc", 10))
	assert.Equal(t, []string{"abcde", "fghij"}, wrap("abcdefghij", 5))
	assert.Equal(t, []string{"one", "two", "three"}, wrap("one two three", 5))
}

func TestBufferPrinterAndConfig(t *testing.T) {
	p := NewBufferPrinter()
	require.NoError(t, p.Print(context.Background(), []byte("hello")))
	assert.Equal(t, [][]byte{[]byte("hello")}, p.Jobs())

	_, err := New(Config{Type: TypeUSB})
	assert.ErrorIs(t, err, ErrMissingTarget)
	_, err = New(Config{Type: "bluetooth"})
	assert.ErrorIs(t, err, ErrUnknownType)

	np, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, TypeNone, np.Type())
	assert.False(t, np.IsConnected(context.Background()))

	usb, err := New(Config{Type: TypeUSB, Device: "/dev/usb/lp0"})
	require.NoError(t, err)
	assert.Equal(t, TypeUSB, usb.Type())
}
