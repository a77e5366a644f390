package pdf4ofd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ranvane/pdf4ofd/internal/ofd"
	"github.com/ranvane/pdf4ofd/internal/render"
)

// imagesToOFD builds one OFD page per picture, sized so the picture prints
// at the configured DPI. Pictures that cannot be read are skipped with a
// warning.
func (c *Converter) imagesToOFD(ctx context.Context, input Input) (*ConvertResult, error) {
	norm := c.normalizer()
	dpi := c.cfg.imageDPI

	var b *ofd.Builder
	res := &ConvertResult{}
	for i, data := range input.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := "image " + strconv.Itoa(i+1)
		img, err := norm.Normalize(ctx, name, data)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}

		box := ofd.Box{W: ofd.PixelsToMM(img.Width, dpi), H: ofd.PixelsToMM(img.Height, dpi)}
		if b == nil {
			b = ofd.NewBuilder(box)
		}
		id := b.AddImage(strconv.Itoa(i), img.Data, img.Ext())
		b.AddPage(box).AddImage(ofd.Image{
			Boundary:   box,
			CTM:        &ofd.Matrix{A: box.W, D: box.H},
			ResourceID: strconv.Itoa(id),
		})
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, render.ErrNoPages)
	}

	var info ofd.Info
	applyMetadata(&info, input.Metadata)
	b.SetInfo(info)

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: writing OFD: %w", ErrRender, err)
	}
	res.Output = out
	res.Pages = b.Pages()
	return res, nil
}

// imagesToPDF builds one PDF page per picture.
func (c *Converter) imagesToPDF(ctx context.Context, input Input) (*ConvertResult, error) {
	var info ofd.Info
	applyMetadata(&info, input.Metadata)

	opts := render.Options{Images: c.normalizer()}
	out, warnings, err := render.ImagesPDF(ctx, input.Images, c.cfg.imageDPI, info, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, render.ErrNoPages) {
			return nil, fmt.Errorf("%w: %w (%d images unreadable)", ErrRender, err, len(warnings))
		}
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return &ConvertResult{
		Output:   out,
		Pages:    len(input.Images) - len(warnings),
		Warnings: warnings,
	}, nil
}
