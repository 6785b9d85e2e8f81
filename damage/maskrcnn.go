//go:build withcv
// +build withcv

/*
DESCRIPTION
  maskrcnn.go provides a damage Detector running a Mask R-CNN instance
  segmentation model through the OpenCV DNN module.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package damage

import (
	"fmt"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Output layers of the Mask R-CNN graph.
var outputLayers = []string{"detection_out_final", "detection_masks"}

// Mask scores above this are part of the instance.
const maskCut = 0.5

// MaskRCNN is a Detector backed by a Mask R-CNN network.
type MaskRCNN struct {
	net     gocv.Net
	classes []string
	minConf float64
	mu      sync.Mutex
}

// NewMaskRCNN loads the network from model and config. classes names the
// class indices of the network; detections scoring below minConf are not
// returned.
func NewMaskRCNN(model, config string, classes []string, minConf float64) (*MaskRCNN, error) {
	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, errors.Errorf("could not load damage model from %s and %s", model, config)
	}
	err := net.SetPreferableBackend(gocv.NetBackendDefault)
	if err != nil {
		net.Close()
		return nil, errors.Wrap(err, "could not set backend")
	}
	err = net.SetPreferableTarget(gocv.NetTargetCPU)
	if err != nil {
		net.Close()
		return nil, errors.Wrap(err, "could not set target")
	}
	return &MaskRCNN{net: net, classes: classes, minConf: minConf}, nil
}

// Detect implements Detector.
func (m *MaskRCNN) Detect(img image.Image) ([]Instance, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "could not convert image to mat")
	}
	defer mat.Close()

	w, h := mat.Cols(), mat.Rows()
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(w, h), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	outs := m.net.ForwardLayers(outputLayers)
	defer func() {
		for i := range outs {
			outs[i].Close()
		}
	}()
	if len(outs) != len(outputLayers) {
		return nil, errors.Errorf("expected %d outputs, got %d", len(outputLayers), len(outs))
	}

	// Boxes are 1x1xNx7: batch, class, score, x1, y1, x2, y2 (normalized).
	boxes, err := outs[0].DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read boxes")
	}
	// Masks are NxCxMHxMW.
	dims := outs[1].Size()
	if len(dims) != 4 {
		return nil, errors.Errorf("unexpected mask shape %v", dims)
	}
	nc, mh, mw := dims[1], dims[2], dims[3]
	masks, err := outs[1].DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "could not read masks")
	}

	bounds := image.Rect(0, 0, w, h)
	var insts []Instance
	for i := 0; i+7 <= len(boxes); i += 7 {
		score := float64(boxes[i+2])
		if score < m.minConf {
			continue
		}
		class := int(boxes[i+1])
		box := image.Rect(
			int(boxes[i+3]*float32(w)), int(boxes[i+4]*float32(h)),
			int(boxes[i+5]*float32(w)), int(boxes[i+6]*float32(h)),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		inst := Instance{Class: m.className(class), Score: score, Box: box}
		off := ((i/7)*nc + class) * mh * mw
		if class < nc && off+mh*mw <= len(masks) {
			inst.Mask = Mask(masks[off:off+mh*mw], mw, mh, box, maskCut)
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func (m *MaskRCNN) className(id int) string {
	if id >= 0 && id < len(m.classes) {
		return m.classes[id]
	}
	return fmt.Sprintf("class %d", id)
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *MaskRCNN) Close() error {
	return m.net.Close()
}
