package emulator

import (
	"encoding/binary"
	"image"
)

// ScreenData is one video frame, its pixels are
// row-major XRGB8888 words.
type ScreenData struct {
	Width  int
	Height int
	Pixels []uint32
}

func (s ScreenData) Clone() ScreenData {
	s.Pixels = append([]uint32(nil), s.Pixels...)
	return s
}

// RGBA converts the pixels into a byte stream of RGBA quads
// with the full alpha.
func (s ScreenData) RGBA() []byte {
	out := make([]byte, len(s.Pixels)*4)
	for i, px := range s.Pixels {
		binary.BigEndian.PutUint32(out[i*4:], px<<8|0xff)
	}
	return out
}

func (s ScreenData) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	copy(img.Pix, s.RGBA())
	return img
}
