package detect

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// yoloInputSize is the square input resolution the network was trained at.
const yoloInputSize = 416

// YOLODetector implements Detector using a YOLOv3 network trained on a single
// "juggling ball" class, run through the gocv DNN module.
type YOLODetector struct {
	net         gocv.Net
	outputNames []string
	config      Config
	mu          sync.Mutex
}

// NewYOLODetector loads the network from the given weights and model
// configuration files.
func NewYOLODetector(weightsPath, configPath string, config Config) (*YOLODetector, error) {
	net := gocv.ReadNet(weightsPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("could not load network from %s", weightsPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	// Resolve the unconnected output layer names once up front.
	layerNames := net.GetLayerNames()
	var outputNames []string
	for _, i := range net.GetUnconnectedOutLayers() {
		if i-1 < len(layerNames) {
			outputNames = append(outputNames, layerNames[i-1])
		}
	}
	if len(outputNames) == 0 {
		net.Close()
		return nil, fmt.Errorf("network has no unconnected output layers")
	}

	return &YOLODetector{
		net:         net,
		outputNames: outputNames,
		config:      config,
	}, nil
}

// Detect runs the network on a frame and returns candidate ball detections
// after confidence filtering and non-maximum suppression.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	frameWidth := float32(frame.Cols())
	frameHeight := float32(frame.Rows())

	blob := gocv.BlobFromImage(*frame, 1.0/255.0,
		image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	outputs := d.net.ForwardLayers(d.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	var boxes []image.Rectangle
	var scores []float32

	for _, output := range outputs {
		for row := 0; row < output.Rows(); row++ {
			// Row layout: center x, center y, w, h, objectness, class scores.
			// There is a single class, so its score is at column 5.
			confidence := output.GetFloatAt(row, 5)
			if confidence <= d.config.ConfThreshold {
				continue
			}

			centerX := output.GetFloatAt(row, 0) * frameWidth
			centerY := output.GetFloatAt(row, 1) * frameHeight
			width := output.GetFloatAt(row, 2) * frameWidth
			height := output.GetFloatAt(row, 3) * frameHeight

			left := int(centerX - width/2)
			top := int(centerY - height/2)
			boxes = append(boxes, image.Rect(left, top, left+int(width), top+int(height)))
			scores = append(scores, confidence)
		}
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	// Collapse overlapping boxes for the same ball.
	keep := gocv.NMSBoxes(boxes, scores, d.config.ConfThreshold, d.config.NMSThreshold)

	detections := make([]Detection, 0, len(keep))
	for _, i := range keep {
		detections = append(detections, Detection{
			Box:        boxes[i],
			Confidence: float64(scores[i]),
		})
	}

	return detections, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
