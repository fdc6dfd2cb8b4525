package tracker

import (
	"math"
	"runtime"
	"sync"
)

// matchResult is the best placement of a template inside a search window, in
// frame coordinates.
type matchResult struct {
	X, Y  int
	W, H  int
	Score float64
	Scale float64
}

// nccAt scores the template placed at window offset (x, y). ok is false when
// the window patch has no variance.
func nccAt(pre *grayPrecomp, pc *templatePrecomp, x, y int) (float64, bool) {
	w, h := pc.W, pc.H
	n := float64(w * h)
	sumF := integralSum(pre.integral, pre.W, x, y, x+w-1, y+h-1)
	sumF2 := integralSum(pre.integralSq, pre.W, x, y, x+w-1, y+h-1)
	meanF := sumF / n
	varF := (sumF2 - sumF*sumF/n) / n
	if varF <= 1e-9 {
		return 0, false
	}
	var sumFT float64
	for py := 0; py < h; py++ {
		frow := pre.gray[(y+py)*pre.W+x:]
		trow := pc.gray[py*w : (py+1)*w]
		for px, t := range trow {
			sumFT += frow[px] * float64(t)
		}
	}
	denom := n * math.Sqrt(varF) * pc.stdT
	if denom <= 0 {
		return 0, false
	}
	return (sumFT - n*meanF*pc.meanT) / denom, true
}

// matchWindow scans pre with a coarse stride and optionally refines around the
// best coarse hit. Score is -1 when nothing could be scored.
func matchWindow(pre *grayPrecomp, pc *templatePrecomp, stride int, refine bool) matchResult {
	res := matchResult{Score: -1}
	if pre == nil || pc == nil || pc.stdT <= 1e-9 {
		return res
	}
	W, H := pre.W, pre.H
	w, h := pc.W, pc.H
	if W < w || H < h {
		return res
	}
	if stride <= 0 {
		stride = 1
	}
	bestX, bestY, best := 0, 0, -1.0
	for y := 0; y <= H-h; y += stride {
		for x := 0; x <= W-w; x += stride {
			if s, ok := nccAt(pre, pc, x, y); ok && s > best {
				best, bestX, bestY = s, x, y
			}
		}
	}
	if refine && stride > 1 && best > -1 {
		cx, cy := bestX, bestY
		for y := max(0, cy-stride); y <= min(H-h, cy+stride); y++ {
			for x := max(0, cx-stride); x <= min(W-w, cx+stride); x++ {
				if s, ok := nccAt(pre, pc, x, y); ok && s > best {
					best, bestX, bestY = s, x, y
				}
			}
		}
	}
	res.X, res.Y = bestX+pre.origin.X, bestY+pre.origin.Y
	res.W, res.H = w, h
	res.Score = best
	return res
}

// matchScales evaluates the template at every scale in parallel and returns
// the highest scoring placement.
func matchScales(pre *grayPrecomp, scaledTmpls map[float64]*templatePrecomp, stride int, refine bool) matchResult {
	results := make(chan matchResult, len(scaledTmpls))
	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	for factor, pc := range scaledTmpls {
		if pc == nil {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(factor float64, pc *templatePrecomp) {
			defer wg.Done()
			defer func() { <-sem }()
			r := matchWindow(pre, pc, stride, refine)
			r.Scale = factor
			results <- r
		}(factor, pc)
	}
	wg.Wait()
	close(results)
	best := matchResult{Score: -1}
	for r := range results {
		if r.Score > best.Score || (r.Score == best.Score && r.Scale == 1.0) {
			best = r
		}
	}
	return best
}
