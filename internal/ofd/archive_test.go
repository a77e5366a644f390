package ofd_test

// Notes:
// - Package fixtures are built in memory with archive/zip; no testdata files
//   are needed.
// - The size limits (MaxPartSize, MaxArchiveSize) are not exercised: building
//   a 64 MiB fixture is too slow for the unit suite.

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/ranvane/pdf4ofd/internal/ofd"
)

// buildZip writes parts into a zip archive in the given order.
func buildZip(t *testing.T, parts ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p[0])
		if err != nil {
			t.Fatalf("creating %s: %v", p[0], err)
		}
		if _, err := w.Write([]byte(p[1])); err != nil {
			t.Fatalf("writing %s: %v", p[0], err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func part(name, content string) [2]string {
	return [2]string{name, content}
}

const minimalOFD = `<?xml version="1.0" encoding="UTF-8"?>
<ofd:OFD xmlns:ofd="http://www.ofdspec.org/2016" Version="1.0" DocType="OFD">
<ofd:DocBody><ofd:DocRoot>Doc_0/Document.xml</ofd:DocRoot></ofd:DocBody>
</ofd:OFD>`

// ---------------------------------------------------------------------------
// TestOpen - Archive validation and name normalisation
// ---------------------------------------------------------------------------

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "not a zip", data: []byte("%PDF-1.7"), wantErr: ofd.ErrNotOFD},
		{name: "empty", data: nil, wantErr: ofd.ErrNotOFD},
		{name: "zip without OFD.xml", data: buildZip(t, part("readme.txt", "hi")), wantErr: ofd.ErrNotOFD},
		{name: "valid", data: buildZip(t, part("OFD.xml", minimalOFD))},
		{name: "leading slash", data: buildZip(t, part("/OFD.xml", minimalOFD))},
		{name: "lower case entry", data: buildZip(t, part("ofd.xml", minimalOFD))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ofd.Open(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPackage_NamesAndRead(t *testing.T) {
	t.Parallel()

	data := buildZip(t,
		part("OFD.xml", minimalOFD),
		part(`Doc_0\Pages\Page_0\Content.xml`, "<Page/>"),
		part("./Doc_0/Res/a.png", "png"),
	)
	p, err := ofd.Open(data)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	want := []string{"Doc_0/Pages/Page_0/Content.xml", "Doc_0/Res/a.png", "OFD.xml"}
	got := p.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if b, err := p.Read("doc_0/res/A.PNG"); err != nil || string(b) != "png" {
		t.Errorf("Read(case-folded) = %q, %v, want \"png\", nil", b, err)
	}
	if _, err := p.Read("Doc_0/missing.xml"); !errors.Is(err, ofd.ErrMissingPart) {
		t.Errorf("Read(missing) error = %v, want ErrMissingPart", err)
	}
}

// ---------------------------------------------------------------------------
// TestResolve - Location rules
// ---------------------------------------------------------------------------

func TestResolve(t *testing.T) {
	t.Parallel()

	p, err := ofd.Open(buildZip(t, part("OFD.xml", minimalOFD)))
	if err != nil {
		t.Fatal(err)
	}
	const cur = "Doc_0/Pages/Page_0/Content.xml"

	tests := []struct {
		name string
		loc  string
		want string
	}{
		{"absolute", "/Doc_0/Res/a.png", "Doc_0/Res/a.png"},
		{"dot relative", "./Res/a.png", "Doc_0/Pages/Page_0/Res/a.png"},
		{"parent relative", "../Tpl.xml", "Doc_0/Pages/Tpl.xml"},
		{"bare", "Res/a.png", "Doc_0/Pages/Page_0/Res/a.png"},
		{"backslashes", `Res\a.png`, "Doc_0/Pages/Page_0/Res/a.png"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := p.Resolve(cur, tt.loc); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", cur, tt.loc, got, tt.want)
			}
		})
	}

	if got := p.Resolve("OFD.xml", "Doc_0/Document.xml"); got != "Doc_0/Document.xml" {
		t.Errorf("Resolve from root = %q, want Doc_0/Document.xml", got)
	}
}

func TestFind_SuffixFallback(t *testing.T) {
	t.Parallel()

	p, err := ofd.Open(buildZip(t,
		part("OFD.xml", minimalOFD),
		part("Doc_0/Res/image_1.jpg", "jpg"),
	))
	if err != nil {
		t.Fatal(err)
	}

	name, data, err := p.Find("Doc_0/Pages/Page_0", "Res/image_1.jpg")
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if name != "Doc_0/Res/image_1.jpg" || string(data) != "jpg" {
		t.Errorf("Find() = %q, %q, want Doc_0/Res/image_1.jpg, jpg", name, data)
	}
	if _, _, err := p.Find("Doc_0", "nothing.png"); !errors.Is(err, ofd.ErrMissingPart) {
		t.Errorf("Find(missing) error = %v, want ErrMissingPart", err)
	}
}

// ---------------------------------------------------------------------------
// TestDecode_GBK - Charset handling
// ---------------------------------------------------------------------------

func TestDecode_GBK(t *testing.T) {
	t.Parallel()

	xmlText := `<?xml version="1.0" encoding="GBK"?>
<ofd:OFD xmlns:ofd="http://www.ofdspec.org/2016">
<ofd:DocBody><ofd:DocInfo><ofd:Title>电子发票</ofd:Title></ofd:DocInfo>
<ofd:DocRoot>Doc_0/Document.xml</ofd:DocRoot></ofd:DocBody></ofd:OFD>`
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(xmlText)
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	data := buildZip(t,
		part("OFD.xml", gbk),
		part("Doc_0/Document.xml", `<ofd:Document xmlns:ofd="http://www.ofdspec.org/2016"><ofd:Pages/></ofd:Document>`),
	)
	doc, err := ofd.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc.Info.Title != "电子发票" {
		t.Errorf("Title = %q, want %q", doc.Info.Title, "电子发票")
	}
}
