//go:build withcv
// +build withcv

/*
DESCRIPTION
  midas.go provides a monocular depth Estimator running a MiDaS/DPT model
  exported to ONNX through the OpenCV DNN module.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package depth

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DPT models expect inputs scaled to [-1,1].
const (
	inputMean  = 127.5
	inputScale = 1 / 127.5
)

// MiDaS is an Estimator backed by a MiDaS/DPT network.
type MiDaS struct {
	net  gocv.Net
	size int
	mu   sync.Mutex
}

// NewMiDaS loads the ONNX model at path. size is the square input
// resolution of the network.
func NewMiDaS(path string, size uint) (*MiDaS, error) {
	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return nil, errors.Errorf("could not load depth model from %s", path)
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
	return &MiDaS{net: net, size: int(size)}, nil
}

// Estimate implements Estimator.
func (m *MiDaS) Estimate(path string) (*Field, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, errors.Wrapf(ErrEstimation, "could not read image %s", path)
	}

	blob := gocv.BlobFromImage(img, inputScale, image.Pt(m.size, m.size), gocv.NewScalar(inputMean, inputMean, inputMean, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	// Output is 1xHxW predicted inverse depth.
	dims := out.Size()
	if len(dims) < 2 {
		return nil, errors.Wrapf(ErrEstimation, "unexpected output shape %v", dims)
	}
	h, w := dims[len(dims)-2], dims[len(dims)-1]
	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrapf(ErrEstimation, "could not read depth output: %v", err)
	}
	return Normalize(raw, w, h)
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (m *MiDaS) Close() error {
	return m.net.Close()
}
