package ofd

// XML shapes of the parts read by Parse. Tags carry no namespace so both
// prefixed ("ofd:Page") and unprefixed elements match.

type xmlOFD struct {
	DocBody []xmlDocBody `xml:"DocBody"`
}

type xmlDocBody struct {
	DocInfo    xmlDocInfo `xml:"DocInfo"`
	DocRoot    string     `xml:"DocRoot"`
	Signatures string     `xml:"Signatures"`
}

type xmlDocInfo struct {
	DocID          string   `xml:"DocID"`
	Title          string   `xml:"Title"`
	Author         string   `xml:"Author"`
	Subject        string   `xml:"Subject"`
	Abstract       string   `xml:"Abstract"`
	Creator        string   `xml:"Creator"`
	CreatorVersion string   `xml:"CreatorVersion"`
	CreationDate   string   `xml:"CreationDate"`
	Keywords       []string `xml:"Keywords>Keyword"`
}

type xmlDocument struct {
	CommonData struct {
		MaxUnitID    string           `xml:"MaxUnitID"`
		PageArea     xmlArea          `xml:"PageArea"`
		PublicRes    []string         `xml:"PublicRes"`
		DocumentRes  []string         `xml:"DocumentRes"`
		TemplatePage []xmlTemplateDef `xml:"TemplatePage"`
	} `xml:"CommonData"`
	Pages       []xmlPageRef `xml:"Pages>Page"`
	Annotations string       `xml:"Annotations"`
	Attachments string       `xml:"Attachments"`
}

type xmlArea struct {
	PhysicalBox string `xml:"PhysicalBox"`
}

type xmlTemplateDef struct {
	ID      string `xml:"ID,attr"`
	BaseLoc string `xml:"BaseLoc,attr"`
	ZOrder  string `xml:"ZOrder,attr"`
}

type xmlPageRef struct {
	ID      string `xml:"ID,attr"`
	BaseLoc string `xml:"BaseLoc,attr"`
}

type xmlRes struct {
	BaseLoc     string          `xml:"BaseLoc,attr"`
	Fonts       []xmlFont       `xml:"Fonts>Font"`
	MultiMedias []xmlMultiMedia `xml:"MultiMedias>MultiMedia"`
}

type xmlFont struct {
	ID         string `xml:"ID,attr"`
	FontName   string `xml:"FontName,attr"`
	FamilyName string `xml:"FamilyName,attr"`
	Charset    string `xml:"Charset,attr"`
	Bold       string `xml:"Bold,attr"`
	Italic     string `xml:"Italic,attr"`
	Serif      string `xml:"Serif,attr"`
	FixedWidth string `xml:"FixedWidth,attr"`
	FontFile   string `xml:"FontFile"`
}

type xmlMultiMedia struct {
	ID        string `xml:"ID,attr"`
	Type      string `xml:"Type,attr"`
	Format    string `xml:"Format,attr"`
	MediaFile string `xml:"MediaFile"`
}

type xmlPage struct {
	Template []struct {
		TemplateID string `xml:"TemplateID,attr"`
		ZOrder     string `xml:"ZOrder,attr"`
	} `xml:"Template"`
	Area xmlArea `xml:"Area"`
}

type xmlColor struct {
	Value string `xml:"Value,attr"`
}

type xmlTextObject struct {
	ID          string           `xml:"ID,attr"`
	Boundary    string           `xml:"Boundary,attr"`
	Font        string           `xml:"Font,attr"`
	Size        string           `xml:"Size,attr"`
	CTM         string           `xml:"CTM,attr"`
	FillColor   *xmlColor        `xml:"FillColor"`
	CGTransform []xmlCGTransform `xml:"CGTransform"`
	TextCode    []xmlTextCode    `xml:"TextCode"`
}

type xmlCGTransform struct {
	CodePosition int    `xml:"CodePosition,attr"`
	CodeCount    int    `xml:"CodeCount,attr"`
	GlyphCount   int    `xml:"GlyphCount,attr"`
	Glyphs       string `xml:"Glyphs"`
}

type xmlTextCode struct {
	X      string `xml:"X,attr"`
	Y      string `xml:"Y,attr"`
	DeltaX string `xml:"DeltaX,attr"`
	DeltaY string `xml:"DeltaY,attr"`
	Text   string `xml:",chardata"`
}

type xmlPathObject struct {
	ID              string    `xml:"ID,attr"`
	Boundary        string    `xml:"Boundary,attr"`
	CTM             string    `xml:"CTM,attr"`
	LineWidth       string    `xml:"LineWidth,attr"`
	Stroke          string    `xml:"Stroke,attr"`
	Fill            string    `xml:"Fill,attr"`
	FillColor       *xmlColor `xml:"FillColor"`
	StrokeColor     *xmlColor `xml:"StrokeColor"`
	AbbreviatedData string    `xml:"AbbreviatedData"`
}

type xmlImageObject struct {
	ID         string `xml:"ID,attr"`
	Boundary   string `xml:"Boundary,attr"`
	CTM        string `xml:"CTM,attr"`
	ResourceID string `xml:"ResourceID,attr"`
}

type xmlAnnotations struct {
	Pages []struct {
		PageID  string `xml:"PageID,attr"`
		FileLoc string `xml:"FileLoc"`
	} `xml:"Page"`
}

type xmlPageAnnot struct {
	Annots []xmlAnnot `xml:"Annot"`
}

type xmlAnnot struct {
	ID         string `xml:"ID,attr"`
	Type       string `xml:"Type,attr"`
	Subtype    string `xml:"Subtype,attr"`
	Visible    string `xml:"Visible,attr"`
	Appearance []struct {
		Boundary string `xml:"Boundary,attr"`
		Inner    []byte `xml:",innerxml"`
	} `xml:"Appearance"`
}

type xmlSignatures struct {
	Signatures []struct {
		ID      string `xml:"ID,attr"`
		Type    string `xml:"Type,attr"`
		BaseLoc string `xml:"BaseLoc,attr"`
	} `xml:"Signature"`
}

type xmlSignature struct {
	StampAnnots []struct {
		ID       string `xml:"ID,attr"`
		PageRef  string `xml:"PageRef,attr"`
		Boundary string `xml:"Boundary,attr"`
	} `xml:"SignedInfo>StampAnnot"`
	SealLoc     string `xml:"SignedInfo>Seal>BaseLoc"`
	SignedValue string `xml:"SignedValue"`
}

type xmlAttachments struct {
	Attachments []struct {
		ID      string `xml:"ID,attr"`
		Name    string `xml:"Name,attr"`
		Format  string `xml:"Format,attr"`
		FileLoc string `xml:"FileLoc"`
	} `xml:"Attachment"`
}
