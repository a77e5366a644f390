// Package seal pulls seal pictures out of OFD signature data.
//
// An electronic seal (GB/T 38540) is a DER structure that carries the stamp
// picture as an OCTET STRING somewhere inside it. The exact layout differs
// between seal versions and vendors, so Extract walks the whole tree and
// keeps every octet string that looks like an image or an OFD package.
package seal

import (
	"bytes"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Picture formats recognised by Format.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatOFD  = "ofd"
)

// maxDepth bounds recursion on hostile input.
const maxDepth = 32

const constructed = 0x20

var magics = []struct {
	prefix []byte
	format string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), FormatPNG},
	{[]byte{0xff, 0xd8, 0xff}, FormatJPEG},
	{[]byte("GIF87a"), FormatGIF},
	{[]byte("GIF89a"), FormatGIF},
	{[]byte("BM"), FormatBMP},
	{[]byte("PK\x03\x04"), FormatOFD},
}

// Format names the picture format of data, or returns "" when the bytes
// are not a recognised picture.
func Format(data []byte) string {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.prefix) {
			if m.format == FormatBMP && len(data) < 14 {
				return ""
			}
			return m.format
		}
	}
	return ""
}

// Extract returns the pictures found in a SignedValue. Data that already
// is a picture is returned as is. Malformed DER yields whatever was found
// before the damage.
func Extract(der []byte) [][]byte {
	if len(der) == 0 {
		return nil
	}
	if Format(der) != "" {
		return [][]byte{der}
	}
	var out [][]byte
	walk(cryptobyte.String(der), 0, &out)
	return out
}

func walk(s cryptobyte.String, depth int, out *[][]byte) {
	if depth > maxDepth {
		return
	}
	for !s.Empty() {
		var elem cryptobyte.String
		var tag asn1.Tag
		if !s.ReadAnyASN1(&elem, &tag) {
			return
		}
		switch {
		case tag == asn1.OCTET_STRING:
			if Format(elem) != "" {
				*out = append(*out, bytes.Clone(elem))
				continue
			}
			// Some producers wrap a nested structure in an octet string.
			walk(elem, depth+1, out)
		case tag&constructed != 0:
			walk(elem, depth+1, out)
		}
	}
}
