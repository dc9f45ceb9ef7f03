// Package device models the host/device boundary in front of the systolic
// fabric: whole operands are bulk-copied into device-resident buffers
// before compute starts and the output is read back afterwards. The copies
// are trivial; the value of the package is keeping the boundary explicit
// and accounting for the bytes that cross it.
package device

import "github.com/samcharles93/lattice/internal/tensor"

const bytesPerScalar = 4

// Memory owns the device-resident copies for one computation and tracks
// transfer statistics in both directions.
type Memory struct {
	toDevice  int64
	toHost    int64
	transfers int64
}

// CopyMat transfers a plain scalar matrix to the device.
func (m *Memory) CopyMat(src *tensor.Mat) tensor.Mat {
	out := src.Clone()
	m.record(int64(len(out.Data))*bytesPerScalar, true)
	return out
}

// CopyPacked transfers a lane-packed matrix to the device.
func (m *Memory) CopyPacked(src *tensor.Packed) tensor.Packed {
	out := src.Clone()
	m.record(int64(len(out.Data))*bytesPerScalar, true)
	return out
}

// ReadBack transfers a device-resident packed matrix into the host buffer
// dst. The shapes must match.
func (m *Memory) ReadBack(dst, src *tensor.Packed) {
	if dst.Rows != src.Rows || dst.VCols != src.VCols || dst.Width != src.Width {
		panic("device: read-back shape mismatch")
	}
	copy(dst.Data, src.Data)
	m.record(int64(len(src.Data))*bytesPerScalar, false)
}

func (m *Memory) record(bytes int64, toDevice bool) {
	m.transfers++
	if toDevice {
		m.toDevice += bytes
	} else {
		m.toHost += bytes
	}
}

// Totals reports the transfer counts accumulated so far.
func (m *Memory) Totals() (transfers, bytesToDevice, bytesToHost int64) {
	return m.transfers, m.toDevice, m.toHost
}
