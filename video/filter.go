package video

import "gocv.io/x/gocv"

// FrameFilter transforms frames before they reach the detector.
type FrameFilter interface {
	Apply(src gocv.Mat, dst *gocv.Mat)
}

// NopFilter passes frames through untouched.
type NopFilter struct{}

// Apply copies src into dst.
func (NopFilter) Apply(src gocv.Mat, dst *gocv.Mat) {
	src.CopyTo(dst)
}

// EqualizeFilter boosts contrast on dim footage: the frame is converted
// to grayscale, histogram equalized and converted back, so the detector
// input keeps its channel count.
type EqualizeFilter struct{}

// Apply writes the equalized frame into dst.
func (EqualizeFilter) Apply(src gocv.Mat, dst *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)
	gocv.CvtColor(gray, dst, gocv.ColorGrayToBGR)
}
