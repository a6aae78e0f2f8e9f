// Package card renders a yearly recap as a shareable PNG.
package card

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // cover decoders
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/pkg/logger"
)

const (
	defaultWidth  = 1200
	defaultHeight = 630
	margin        = 60
	titleScale    = 4
	bodyScale     = 2
	lineGap       = 10
	// maxCoverPixels bounds a cover's decoded size; osu! covers are 2400x660.
	maxCoverPixels = 4096 * 4096
)

var (
	baseColor    = color.RGBA{R: 0x1c, G: 0x17, B: 0x19, A: 0xff}
	accentColor  = color.RGBA{R: 0xff, G: 0x66, B: 0xaa, A: 0xff}
	overlayColor = color.NRGBA{A: 0xb0}
)

// CoverFetcher loads the background cover image.
type CoverFetcher interface {
	Fetch(ctx context.Context, rawURL string) (imageproxy.Image, error)
}

// Renderer draws recap cards.
type Renderer struct {
	width, height int
	covers        CoverFetcher
	logger        logger.Logger
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithSize sets the card dimensions in pixels.
func WithSize(w, h int) Option {
	return func(r *Renderer) {
		if w > 2*margin && h > 2*margin {
			r.width, r.height = w, h
		}
	}
}

// WithCoverFetcher enables the cover background.
func WithCoverFetcher(f CoverFetcher) Option {
	return func(r *Renderer) { r.covers = f }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, height: defaultHeight}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes rc as PNG to w. A cover that cannot be loaded is skipped.
func (r *Renderer) Render(ctx context.Context, w io.Writer, rc model.YearlyRecap) error {
	dst := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(baseColor), image.Point{}, draw.Src)

	if rc.BackgroundImage != "" && r.covers != nil {
		if err := r.drawCover(ctx, dst, rc.BackgroundImage); err != nil {
			r.log().Warn(ctx, "cover skipped", logger.String("url", rc.BackgroundImage), logger.Error(err))
		}
	}

	lines := Lines(rc)
	y := margin
	for i, line := range lines {
		scale, col := bodyScale, color.Color(color.White)
		if i == 0 {
			scale, col = titleScale, accentColor
		}
		lineHeight := basicfont.Face7x13.Height * scale
		if y+lineHeight > r.height-margin/2 {
			break
		}
		maxChars := (r.width - 2*margin) / (basicfont.Face7x13.Advance * scale)
		drawText(dst, truncate(printable(line), maxChars), margin, y, scale, col)
		y += lineHeight + lineGap
	}

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrRender, err)
	}
	return nil
}

func (r *Renderer) drawCover(ctx context.Context, dst *image.RGBA, rawURL string) error {
	img, err := r.covers.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("%w: decode cover header: %w", ErrRender, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxCoverPixels {
		return fmt.Errorf("%w: cover %dx%d: %w", ErrRender, cfg.Width, cfg.Height, ErrCoverTooLarge)
	}
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("%w: decode cover: %w", ErrRender, err)
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(overlayColor), image.Point{}, draw.Over)
	return nil
}

func (r *Renderer) log() logger.Logger {
	if r.logger == nil {
		return logger.Named("card")
	}
	return r.logger
}

// drawText renders s with the 7x13 bitmap face and scales it up by scale.
func drawText(dst draw.Image, s string, x, y, scale int, col color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	h := face.Height
	if w == 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.NearestNeighbor.Scale(dst, target, glyphs, glyphs.Bounds(), draw.Over, nil)
}
