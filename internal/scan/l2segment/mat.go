package l2segment

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// toMat copies img into a zero-origin three-channel 8-bit Mat in BGR order.
// Colours are read non-premultiplied and alpha is dropped.
func toMat(img image.Image) (gocv.Mat, error) {
	px := imaging.Clone(img)
	w, h := px.Bounds().Dx(), px.Bounds().Dy()
	buf := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := px.Pix[y*px.Stride : y*px.Stride+w*4]
		for x := 0; x < w; x++ {
			buf = append(buf, row[4*x+2], row[4*x+1], row[4*x])
		}
	}
	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("convert %dx%d image: %w", w, h, err)
	}
	return m, nil
}

// fromMat copies a BGR Mat produced by toMat (or an OpenCV op over one)
// back into a zero-origin opaque image.
func fromMat(m gocv.Mat) (*image.NRGBA, error) {
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("convert mat: unexpected type %v", m.Type())
	}
	w, h := m.Cols(), m.Rows()
	buf := m.ToBytes()
	if len(buf) != w*h*3 {
		return nil, fmt.Errorf("convert mat: %d bytes for %dx%d", len(buf), w, h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[4*i] = buf[3*i+2]
		img.Pix[4*i+1] = buf[3*i+1]
		img.Pix[4*i+2] = buf[3*i]
		img.Pix[4*i+3] = 0xff
	}
	return img, nil
}

// smooth runs the enabled blur and opening steps over m and returns a new
// Mat owned by the caller. Blur is a normalised k×k box with reflected
// borders; opening uses a k×k rectangular structuring element.
func smooth(m gocv.Mat, cfg Config) gocv.Mat {
	out := m.Clone()
	if cfg.BlurEnable {
		blurred := gocv.NewMat()
		gocv.Blur(out, &blurred, image.Pt(cfg.BlurKernel, cfg.BlurKernel))
		out.Close()
		out = blurred
	}
	if cfg.OpenEnable {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(cfg.OpenKernel, cfg.OpenKernel))
		opened := gocv.NewMat()
		gocv.MorphologyEx(out, &opened, gocv.MorphOpen, kernel)
		kernel.Close()
		out.Close()
		out = opened
	}
	return out
}
