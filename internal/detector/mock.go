package detector

import (
	"image"
	"sync"
)

// Mock is a Detector returning fixed boxes, for tests and local runs.
type Mock struct {
	mu sync.Mutex

	// Boxes is returned from every Detect call, in order
	Boxes []image.Rectangle
	// Centered, when set, ignores Boxes and returns one box covering the
	// central half of the image
	Centered bool
	// Err is returned instead of boxes when non-nil
	Err error
	// CallCount tracks the number of times Detect was called
	CallCount int
}

// NewMock creates a Mock that returns boxes in the given order.
func NewMock(boxes ...image.Rectangle) *Mock {
	return &Mock{Boxes: boxes}
}

// NewCenterMock creates a Mock that always "finds" a face in the middle of the image.
func NewCenterMock() *Mock {
	return &Mock{Centered: true}
}

// Detect returns the configured boxes.
func (m *Mock) Detect(img *image.Gray) ([]image.Rectangle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Centered {
		b := img.Bounds()
		w, h := b.Dx()/2, b.Dy()/2
		if w == 0 || h == 0 {
			return nil, nil
		}
		x, y := b.Min.X+b.Dx()/4, b.Min.Y+b.Dy()/4
		return []image.Rectangle{image.Rect(x, y, x+w, y+h)}, nil
	}
	return append([]image.Rectangle(nil), m.Boxes...), nil
}

// Calls returns the number of Detect calls so far.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

var _ Detector = (*Mock)(nil)
