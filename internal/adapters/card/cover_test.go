package card

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
)

type staticCovers struct{ data []byte }

func (s staticCovers) Fetch(context.Context, string) (imageproxy.Image, error) {
	return imageproxy.Image{Data: s.data, ContentType: "image/png"}, nil
}

// pngHeader returns a signature and IHDR chunk for a w x h grayscale PNG
// with no pixel data behind it.
func pngHeader(w, h uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	_ = binary.Write(&ihdr, binary.BigEndian, w)
	_ = binary.Write(&ihdr, binary.BigEndian, h)
	ihdr.Write([]byte{8, 0, 0, 0, 0})

	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&out, binary.BigEndian, uint32(ihdr.Len()-4))
	out.Write(ihdr.Bytes())
	_ = binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return out.Bytes()
}

func TestDrawCoverBounds(t *testing.T) {
	Convey("Given a cover that declares huge dimensions", t, func() {
		r := NewRenderer(WithCoverFetcher(staticCovers{data: pngHeader(20000, 20000)}))
		dst := image.NewRGBA(image.Rect(0, 0, 10, 10))

		err := r.drawCover(context.Background(), dst, "https://assets.ppy.sh/cover.png")

		Convey("Then it is rejected from the header alone", func() {
			So(errors.Is(err, ErrRender), ShouldBeTrue)
			So(errors.Is(err, ErrCoverTooLarge), ShouldBeTrue)
		})
	})

	Convey("Given a cover within bounds but truncated", t, func() {
		r := NewRenderer(WithCoverFetcher(staticCovers{data: pngHeader(100, 100)}))
		dst := image.NewRGBA(image.Rect(0, 0, 10, 10))

		err := r.drawCover(context.Background(), dst, "https://assets.ppy.sh/cover.png")

		Convey("Then the full decode reports the failure", func() {
			So(errors.Is(err, ErrRender), ShouldBeTrue)
			So(errors.Is(err, ErrCoverTooLarge), ShouldBeFalse)
		})
	})
}

func TestPrintable(t *testing.T) {
	Convey("Given metadata outside the bitmap face", t, func() {
		So(printable("Top play: 夜に駆ける - YOASOBI"), ShouldEqual, "Top play: ????? - YOASOBI")
		So(printable("Ado [Café]"), ShouldEqual, "Ado [Caf?]")
		So(printable("plain ASCII"), ShouldEqual, "plain ASCII")
	})
}
