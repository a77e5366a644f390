package ofd

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Size limits applied while unpacking. They bound memory use on hostile
// archives whose entries inflate far beyond their compressed size.
const (
	MaxPartSize    = 64 << 20
	MaxArchiveSize = 512 << 20
)

// EntryName is the part every OFD package starts from.
const EntryName = "OFD.xml"

// Package is an unpacked OFD archive. Part names use forward slashes and
// have no leading slash.
type Package struct {
	parts map[string][]byte
	fold  map[string]string // lower-case name -> name
	names []string
}

// Open unpacks an OFD archive held in memory.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	// Names are normalised below and never touch the filesystem, so
	// absolute or backslashed entries are acceptable.
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrNotOFD, err)
	}

	p := &Package{
		parts: make(map[string][]byte, len(zr.File)),
		fold:  make(map[string]string, len(zr.File)),
	}
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		b, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		total += int64(len(b))
		if total > MaxArchiveSize {
			return nil, fmt.Errorf("%w: archive exceeds %d bytes", ErrPartTooLarge, MaxArchiveSize)
		}
		name := CleanName(f.Name)
		if name == "" {
			continue
		}
		p.parts[name] = b
		p.fold[strings.ToLower(name)] = name
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)

	if !p.Has(EntryName) {
		return nil, fmt.Errorf("%w: no %s entry", ErrNotOFD, EntryName)
	}
	return p, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxPartSize {
		return nil, fmt.Errorf("%w: %s", ErrPartTooLarge, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	b, err := io.ReadAll(io.LimitReader(rc, MaxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if len(b) > MaxPartSize {
		return nil, fmt.Errorf("%w: %s", ErrPartTooLarge, f.Name)
	}
	return b, nil
}

// CleanName normalises a part name: backslashes become slashes and any
// leading "/", "./" or "../" is dropped.
func CleanName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// Names lists all parts in lexical order.
func (p *Package) Names() []string {
	return append([]string(nil), p.names...)
}

// Has reports whether a part exists, ignoring case.
func (p *Package) Has(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

func (p *Package) lookup(name string) (string, bool) {
	name = CleanName(name)
	if _, ok := p.parts[name]; ok {
		return name, true
	}
	actual, ok := p.fold[strings.ToLower(name)]
	return actual, ok
}

// Read returns the content of a part. Exact names win over case-insensitive
// matches.
func (p *Package) Read(name string) ([]byte, error) {
	actual, ok := p.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, CleanName(name))
	}
	return p.parts[actual], nil
}

// Resolve turns a location found in part cur into a part name.
//
//	"/Doc_0/x.xml"  is taken from the package root
//	"./x.xml"       is relative to the directory of cur
//	"../x.xml"      is relative to the parent of that directory
//	"x.xml"         is relative to the directory of cur
func (p *Package) Resolve(cur, loc string) string {
	return resolveIn(path.Dir(CleanName(cur)), loc)
}

func resolveIn(dir, loc string) string {
	loc = strings.ReplaceAll(strings.TrimSpace(loc), `\`, "/")
	if loc == "" {
		return ""
	}
	if strings.HasPrefix(loc, "/") {
		return CleanName(loc)
	}
	return CleanName(path.Join(dir, loc))
}

// Find resolves loc against dir and reads it. Producers disagree on what
// locations are relative to, so when the resolved part is missing Find
// falls back to the first part whose name ends with the location.
func (p *Package) Find(dir, loc string) (string, []byte, error) {
	name := resolveIn(dir, loc)
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty location", ErrMissingPart)
	}
	if actual, ok := p.lookup(name); ok {
		return actual, p.parts[actual], nil
	}

	suffix := "/" + strings.ToLower(CleanName(loc))
	for _, n := range p.names {
		if strings.HasSuffix("/"+strings.ToLower(n), suffix) {
			return n, p.parts[n], nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// Decode unmarshals an XML part into v.
func (p *Package) Decode(name string, v any) error {
	b, err := p.Read(name)
	if err != nil {
		return err
	}
	return decodeXML(b, v)
}

func decodeXML(b []byte, v any) error {
	if err := newDecoder(b).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadXML, err)
	}
	return nil
}

func newDecoder(b []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.CharsetReader = charsetReader
	dec.Strict = false
	return dec
}

// charsetReader lets parts declared as GBK, GB18030 or GB2312 decode.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
