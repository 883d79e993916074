package detect

import (
	"image"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const defaultInputSize = 416

// YOLOConfig configures the DNN detector.
type YOLOConfig struct {
	// WeightsPath points to the Darknet weights file.
	WeightsPath string
	// ConfigPath points to the network config file.
	ConfigPath string
	// NamesPath points to the class names file, one label per line.
	NamesPath string
	// MinConfidence drops detections below this class score.
	MinConfidence float64
	// Keep restricts output to these class labels. Empty keeps all.
	Keep []string
	// InputSize is the square network input, defaultInputSize when 0.
	InputSize int
}

// YOLO runs a YOLO network on the OpenCV DNN CPU backend.
type YOLO struct {
	mu            sync.Mutex
	net           gocv.Net
	classNames    []string
	keep          map[string]struct{}
	inputSize     int
	minConfidence float64
}

// NewYOLO loads the network and class names.
func NewYOLO(cfg YOLOConfig) (*YOLO, error) {
	net := gocv.ReadNet(cfg.WeightsPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, errors.Errorf("Can't read network from %s / %s", cfg.WeightsPath, cfg.ConfigPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	data, err := os.ReadFile(cfg.NamesPath)
	if err != nil {
		net.Close()
		return nil, errors.Wrap(err, "Can't read class names")
	}
	classNames := make([]string, 0)
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			classNames = append(classNames, name)
		}
	}
	if len(classNames) == 0 {
		net.Close()
		return nil, errors.Errorf("No class names in %s", cfg.NamesPath)
	}

	var keep map[string]struct{}
	if len(cfg.Keep) > 0 {
		keep = make(map[string]struct{}, len(cfg.Keep))
		for _, name := range cfg.Keep {
			keep[name] = struct{}{}
		}
	}
	inputSize := cfg.InputSize
	if inputSize <= 0 {
		inputSize = defaultInputSize
	}

	return &YOLO{
		net:           net,
		classNames:    classNames,
		keep:          keep,
		inputSize:     inputSize,
		minConfidence: cfg.MinConfidence,
	}, nil
}

// Detect runs one frame through the network. Rows below MinConfidence or
// outside the keep set are skipped.
func (y *YOLO) Detect(frame gocv.Mat) (*Result, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if frame.Empty() {
		return nil, errors.New("Can't detect on an empty frame")
	}

	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(y.inputSize, y.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	frameWidth := float32(frame.Cols())
	frameHeight := float32(frame.Rows())

	res := &Result{}
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		scores := data.ColRange(5, data.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)
		classID := maxLoc.X
		confidence := float64(maxVal)

		if confidence >= y.minConfidence && classID < len(y.classNames) {
			className := y.classNames[classID]
			if y.keepClass(className) {
				centerX := data.GetFloatAt(0, 0) * frameWidth
				centerY := data.GetFloatAt(0, 1) * frameHeight
				width := data.GetFloatAt(0, 2) * frameWidth
				height := data.GetFloatAt(0, 3) * frameHeight
				left := int(centerX - width/2)
				top := int(centerY - height/2)
				res.Rects = append(res.Rects, image.Rect(left, top, left+int(width), top+int(height)))
				res.ClassNames = append(res.ClassNames, className)
				res.Confidences = append(res.Confidences, confidence)
			}
		}

		scores.Close()
		data.Close()
		row.Close()
	}
	return res, nil
}

func (y *YOLO) keepClass(name string) bool {
	if y.keep == nil {
		return true
	}
	_, ok := y.keep[name]
	return ok
}

// ClassNames returns the loaded label vocabulary.
func (y *YOLO) ClassNames() []string {
	out := make([]string, len(y.classNames))
	copy(out, y.classNames)
	return out
}

// Close releases the network.
func (y *YOLO) Close() error {
	return y.net.Close()
}
