// Package fonts finds TrueType and OpenType data for the font names that
// appear in OFD documents.
//
// OFD producers name fonts loosely ("Times New Roman Bold", "宋体",
// "SimSun"), so lookups go through several keys: the name as written, a
// normalized PostScript-like form, the family, and a table of common
// Chinese aliases.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font/sfnt"

	"github.com/ranvane/pdf4ofd/internal/fileutil"
)

// ErrNotFound indicates no installed or configured font matches.
var ErrNotFound = errors.New("font not found")

// maxFontSize skips files too large to be a single font face.
const maxFontSize = 64 << 20

// maxNameLen drops garbage name records.
const maxNameLen = 50

var styleSuffixes = []string{"Bold", "Italic", "Regular", "Light", "Medium"}

// NormalizeName turns "Times New Roman Bold" into "TimesNewRoman-Bold".
// Spaces are removed and a hyphen is put before a style word unless one is
// already there. The bare "TimesNewRoman" maps to the PDF base font name
// "Times-Roman".
func NormalizeName(name string) string {
	n := strings.ReplaceAll(strings.TrimSpace(name), " ", "")
	for _, style := range styleSuffixes {
		i := strings.Index(n, style)
		if i <= 0 || n[i-1] == '-' {
			continue
		}
		n = n[:i] + "-" + n[i:]
	}
	if n == "TimesNewRoman" {
		return "Times-Roman"
	}
	return n
}

// key folds a name for map lookups.
func key(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// aliases maps Chinese font names to the English family names the fonts
// publish in their name tables, and back.
var aliases = map[string][]string{
	"宋体":       {"SimSun", "NSimSun", "Songti SC", "STSong"},
	"新宋体":      {"NSimSun", "SimSun"},
	"黑体":       {"SimHei", "Heiti SC", "STHeiti"},
	"楷体":       {"KaiTi", "Kaiti SC", "STKaiti"},
	"仿宋":       {"FangSong", "STFangsong"},
	"微软雅黑":     {"Microsoft YaHei"},
	"simsun":   {"宋体"},
	"simhei":   {"黑体"},
	"kaiti":    {"楷体"},
	"fangsong": {"仿宋"},
}

// Alias lists the alternative names for name, if any.
func Alias(name string) []string {
	if a, ok := aliases[strings.TrimSpace(name)]; ok {
		return a
	}
	return aliases[key(name)]
}

// Face is one indexed font face.
type Face struct {
	Path       string
	Index      int // position inside a collection
	Family     string
	FullName   string
	PostScript string
	// Embeddable is false for faces inside a .ttc collection, which PDF
	// writers cannot embed as a single TrueType program.
	Embeddable bool
}

// Registry indexes font files and resolves names to font data. It is safe
// for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	faces    []*Face
	index    map[string]*Face
	data     map[string][]byte
	fallback string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]*Face),
		data:  make(map[string][]byte),
	}
}

// SetDefault sets the font used when nothing else matches. It is a font
// name known to the registry or a path to a font file.
func (r *Registry) SetDefault(nameOrPath string) {
	r.mu.Lock()
	r.fallback = nameOrPath
	r.mu.Unlock()
}

// DefaultDirs returns the system font directories for the running OS.
func DefaultDirs() []string {
	switch runtime.GOOS {
	case "windows":
		root := os.Getenv("WINDIR")
		if root == "" {
			root = `C:\Windows`
		}
		return []string{filepath.Join(root, "Fonts")}
	case "darwin":
		dirs := []string{"/Library/Fonts", "/System/Library/Fonts"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
		return dirs
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
		return dirs
	}
}

// Scan indexes every .ttf, .otf and .ttc file below dirs. Missing
// directories are skipped; unreadable or broken files are ignored.
func (r *Registry) Scan(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			switch fileutil.Ext(path) {
			case "ttf", "otf", "ttc":
				_ = r.AddFile(path)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// AddFile indexes the faces of one font file.
func (r *Registry) AddFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading font %s: %w", path, err)
	}
	if info.Size() > maxFontSize {
		return fmt.Errorf("font %s: file too large", path)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- font paths come from configured directories
	if err != nil {
		return fmt.Errorf("reading font %s: %w", path, err)
	}
	return r.add(path, data)
}

func (r *Registry) add(path string, data []byte) error {
	var fonts []*sfnt.Font
	collection := fileutil.Ext(path) == "ttc"
	if collection {
		c, err := sfnt.ParseCollection(data)
		if err != nil {
			return fmt.Errorf("parsing font %s: %w", path, err)
		}
		for i := 0; i < c.NumFonts(); i++ {
			f, err := c.Font(i)
			if err != nil {
				continue
			}
			fonts = append(fonts, f)
		}
	} else {
		f, err := sfnt.Parse(data)
		if err != nil {
			return fmt.Errorf("parsing font %s: %w", path, err)
		}
		fonts = append(fonts, f)
	}

	var buf sfnt.Buffer
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range fonts {
		face := &Face{
			Path:       path,
			Index:      i,
			Family:     nameRecord(f, &buf, sfnt.NameIDFamily),
			FullName:   nameRecord(f, &buf, sfnt.NameIDFull),
			PostScript: nameRecord(f, &buf, sfnt.NameIDPostScript),
			Embeddable: !collection,
		}
		r.faces = append(r.faces, face)
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for _, name := range []string{face.FullName, face.PostScript, NormalizeName(face.FullName), face.Family, base} {
			r.indexName(name, face)
		}
	}
	if !collection {
		r.data[path] = data
	}
	return nil
}

// indexName binds name to face. Embeddable faces win over collection
// members, otherwise the first face indexed keeps the name.
func (r *Registry) indexName(name string, face *Face) {
	k := key(name)
	if k == "" {
		return
	}
	if cur, ok := r.index[k]; ok && (cur.Embeddable || !face.Embeddable) {
		return
	}
	r.index[k] = face
}

func nameRecord(f *sfnt.Font, buf *sfnt.Buffer, id sfnt.NameID) string {
	s, err := f.Name(buf, id)
	if err != nil {
		return ""
	}
	s = strings.TrimSpace(s)
	if len(s) > maxNameLen || strings.Contains(s, "://") {
		return ""
	}
	return s
}

// Faces lists every indexed face sorted by family.
func (r *Registry) Faces() []Face {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Face, 0, len(r.faces))
	for _, f := range r.faces {
		out = append(out, *f)
	}
	slices.SortStableFunc(out, func(a, b Face) int { return strings.Compare(a.Family, b.Family) })
	return out
}

// Resolve returns embeddable font data for a font name and family. The
// lookup order is the name as written, its normalized form, the family,
// the alias table, and finally the default font.
func (r *Registry) Resolve(name, family string) ([]byte, *Face, error) {
	candidates := []string{name, NormalizeName(name), family}
	candidates = append(candidates, Alias(name)...)
	candidates = append(candidates, Alias(family)...)

	r.mu.RLock()
	fallback := r.fallback
	for _, c := range candidates {
		face, ok := r.index[key(c)]
		if ok && face.Embeddable {
			data := r.data[face.Path]
			r.mu.RUnlock()
			f := *face
			return data, &f, nil
		}
	}
	r.mu.RUnlock()

	switch {
	case fallback == "":
	case fileutil.IsFilePath(fallback):
		return r.resolveFile(fallback)
	case key(name) != key(fallback):
		return r.Resolve(fallback, "")
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(name+" "+family))
}

// resolveFile loads a font given by path, indexing it on first use.
func (r *Registry) resolveFile(path string) ([]byte, *Face, error) {
	r.mu.RLock()
	_, loaded := r.data[path]
	r.mu.RUnlock()
	if !loaded {
		if err := r.AddFile(path); err != nil {
			return nil, nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	data := r.data[path]
	for _, face := range r.faces {
		if face.Path == path && data != nil {
			f := *face
			return data, &f, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s is not embeddable", ErrNotFound, path)
}
