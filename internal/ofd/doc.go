// Package ofd reads and writes OFD (GB/T 33190) document packages.
//
// An OFD file is a zip archive of XML parts. The entry part OFD.xml points
// at one or more documents; each document lists its pages, resources,
// templates, annotations and signatures:
//
//	OFD.xml
//	Doc_0/
//	├── Document.xml          # CommonData, Pages, Annotations
//	├── PublicRes.xml         # fonts, color spaces
//	├── DocumentRes.xml       # multimedia (images)
//	├── Res/                  # resource files
//	├── Pages/Page_N/Content.xml
//	├── Tpls/Tpl_N/Content.xml
//	├── Annots/Annotations.xml
//	└── Signs/Signatures.xml
//
// Parse turns a package into a Document: pages with their content objects
// in drawing order, plus the fonts, media, annotations and seals they refer
// to. Coordinates stay in millimetres with a top-left origin; converting to
// another coordinate system is the caller's concern.
//
// Builder goes the other way and assembles a single-document package from
// pages of content objects.
package ofd
