package feed

import (
	"bytes"
	"regexp"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
)

var (
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM      = []byte{0xFF, 0xFE}
	utf16BEBOM      = []byte{0xFE, 0xFF}
	declEncoding    = regexp.MustCompile(`^(\s*<\?xml[^>]*?encoding\s*=\s*["'])([^"']*)(["'])`)
	xmlDeclaration  = []byte("<?xml")
	stylesheetHrefs = regexp.MustCompile(`(?mi)<\?xml-stylesheet\s[^>]*href=["']([^"']*)["']`)
)

// toUTF8 normalizes raw feed bytes to UTF-8 and makes the XML declaration
// say so.
//
// A byte order mark wins over everything else. Valid UTF-8 is kept as is.
// Anything else is decoded with the encoding the declaration names, or
// Windows-1252 when the name is unknown.
func toUTF8(raw []byte) ([]byte, error) {
	if bytes.HasPrefix(raw, utf16LEBOM) || bytes.HasPrefix(raw, utf16BEBOM) {
		// ExpectBOM picks the byte order from the mark and drops it.
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return nil, tcerrs.E(tcerrs.InvalidFeed, err)
		}
		raw = decoded
	}

	doc := bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, tcerrs.E(tcerrs.InvalidFeed, "empty feed document")
	}

	if !utf8.Valid(doc) {
		var enc encoding.Encoding = charmap.Windows1252
		if m := declEncoding.FindSubmatch(doc); m != nil {
			if e, _ := charset.Lookup(string(m[2])); e != nil {
				enc = e
			}
		}

		decoded, err := enc.NewDecoder().Bytes(doc)
		if err != nil {
			return nil, tcerrs.E(tcerrs.InvalidFeed, err)
		}
		doc = decoded
	}

	doc = bytes.TrimLeft(doc, " \t\r\n")
	if !bytes.HasPrefix(doc, xmlDeclaration) {
		return nil, tcerrs.E(tcerrs.InvalidFeed, "document has no xml declaration")
	}

	return declEncoding.ReplaceAll(doc, []byte("${1}UTF-8${3}")), nil
}

// stylesheetHref finds the href of an <?xml-stylesheet?> instruction.
func stylesheetHref(doc []byte) *string {
	m := stylesheetHrefs.FindSubmatch(doc)
	if m == nil {
		return nil
	}
	href := string(m[1])

	return &href
}
