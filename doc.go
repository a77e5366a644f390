// Package pdf4ofd converts documents between PDF and OFD, the Chinese
// fixed-layout format (GB/T 33190), and between either format and images.
//
// # Quick Start
//
// Create a converter, convert, and close when done:
//
//	conv, err := pdf4ofd.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	data, err := pdf4ofd.ReadDocument("invoice.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := conv.Convert(ctx, pdf4ofd.Input{
//	    Direction: pdf4ofd.PDFToOFD,
//	    Document:  data,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("invoice.ofd", result.Output, 0644)
//
// # Directions
//
//   - pdf2ofd: PDF to OFD. ModeText keeps text lines, rectangles and
//     pictures as OFD objects; ModeImage keeps only the pictures.
//   - ofd2pdf: OFD to PDF, including embedded fonts, seals and annotations.
//   - ofd2img: one PNG per OFD page, rendered by headless Chrome.
//   - img2ofd and img2pdf: one page per picture, sized by WithImageDPI.
//
// Content that cannot be carried over is reported in
// ConvertResult.Warnings; it never fails the conversion on its own.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := pdf4ofd.NewConverter(
//	    pdf4ofd.WithTimeout(2 * time.Minute),
//	    pdf4ofd.WithFontDirs("/usr/share/fonts/chinese"),
//	    pdf4ofd.WithFallbackPDF(true),
//	)
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool:
//
//	pool, err := pdf4ofd.NewConverterPool(pdf4ofd.ResolvePoolSize(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	conv := pool.Acquire()
//	defer pool.Release(conv)
//
// Converters in a pool share one font index, so system fonts are scanned
// once.
//
// # Error Handling
//
// Errors wrap sentinels that can be matched with errors.Is:
//
//	if errors.Is(err, pdf4ofd.ErrInvalidOFD) {
//	    // source is not a readable OFD package
//	}
//
// Browser errors (ErrBrowserConnect, ErrPageLoad, ErrScreenshot) come only
// from ofd2img.
package pdf4ofd
