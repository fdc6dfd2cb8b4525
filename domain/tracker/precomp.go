// Package tracker implements a pure-Go visual tracker based on normalized
// cross-correlation (NCC) template matching. It needs no native libraries and
// backs the screen-capture build.
package tracker

import (
	"image"
	"math"
)

// grayPrecomp stores per-pixel luma and its summed-area tables (integral
// images) for one search window. The integrals allow O(1) window sum and
// variance queries.
type grayPrecomp struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
	origin     image.Point
}

// templatePrecomp holds luma and summary statistics for a template.
type templatePrecomp struct {
	gray  []float32
	W, H  int
	meanT float64
	stdT  float64
}

func luma(r, g, b uint8) float64 {
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

// buildGrayPrecomp computes luma and integrals for rect within img.
func buildGrayPrecomp(img *image.RGBA, rect image.Rectangle) *grayPrecomp {
	rect = rect.Intersect(img.Bounds())
	W, H := rect.Dx(), rect.Dy()
	if W <= 0 || H <= 0 {
		return nil
	}
	need := W * H
	p := &grayPrecomp{
		gray:       make([]float64, need),
		integral:   make([]float64, need),
		integralSq: make([]float64, need),
		W:          W,
		H:          H,
		origin:     rect.Min,
	}
	for y := 0; y < H; y++ {
		row := img.Pix[img.PixOffset(rect.Min.X, rect.Min.Y+y):]
		var rowSum, rowSum2 float64
		for x := 0; x < W; x++ {
			g := luma(row[x*4], row[x*4+1], row[x*4+2])
			off := y*W + x
			p.gray[off] = g
			rowSum += g
			rowSum2 += g * g
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*W+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*W+x] + rowSum2
			}
		}
	}
	return p
}

// buildTemplate extracts the template under rect from img.
func buildTemplate(img *image.RGBA, rect image.Rectangle) *templatePrecomp {
	rect = rect.Intersect(img.Bounds())
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	gray := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(rect.Min.X, rect.Min.Y+y):]
		for x := 0; x < w; x++ {
			gray[y*w+x] = float32(luma(row[x*4], row[x*4+1], row[x*4+2]))
		}
	}
	return newTemplatePrecomp(gray, w, h)
}

func newTemplatePrecomp(gray []float32, w, h int) *templatePrecomp {
	var sumT, sumT2 float64
	for _, g := range gray {
		v := float64(g)
		sumT += v
		sumT2 += v * v
	}
	n := float64(w * h)
	meanT := sumT / n
	varT := (sumT2 - sumT*sumT/n) / n
	stdT := 0.0
	if varT > 0 {
		stdT = math.Sqrt(varT)
	}
	return &templatePrecomp{gray: gray, W: w, H: h, meanT: meanT, stdT: stdT}
}

// scaled resamples the template by factor with bilinear interpolation. It
// returns nil when the result would be smaller than 2x2.
func (base *templatePrecomp) scaled(factor float64) *templatePrecomp {
	if base == nil || factor <= 0 {
		return nil
	}
	if factor == 1.0 {
		return base
	}
	w := int(float64(base.W) * factor)
	h := int(float64(base.H) * factor)
	if w < 2 || h < 2 {
		return nil
	}
	gray := make([]float32, w*h)
	fx := float64(base.W) / float64(w)
	fy := float64(base.H) / float64(h)
	bw, bh := base.W, base.H
	src := base.gray
	for y := 0; y < h; y++ {
		ys := clampF((float64(y)+0.5)*fy-0.5, 0, float64(bh-1))
		y0 := int(math.Floor(ys))
		y1 := min(y0+1, bh-1)
		dy := ys - float64(y0)
		for x := 0; x < w; x++ {
			xs := clampF((float64(x)+0.5)*fx-0.5, 0, float64(bw-1))
			x0 := int(math.Floor(xs))
			x1 := min(x0+1, bw-1)
			dx := xs - float64(x0)
			top := float64(src[y0*bw+x0])*(1-dx) + float64(src[y0*bw+x1])*dx
			bottom := float64(src[y1*bw+x0])*(1-dx) + float64(src[y1*bw+x1])*dx
			gray[y*w+x] = float32(top*(1-dy) + bottom*dy)
		}
	}
	return newTemplatePrecomp(gray, w, h)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// integralSum returns the inclusive sum over [x0..x1] x [y0..y1] of an
// integral image stored row-major with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}
