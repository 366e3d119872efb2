package detector

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, 1.1, DefaultParams.ScaleFactor)
	assert.Equal(t, 4, DefaultParams.MinNeighbors)
}

func TestCandidatePaths(t *testing.T) {
	paths := CandidatePaths("")
	require.NotEmpty(t, paths)
	assert.Equal(t, DefaultCascade, paths[0])
	for _, p := range paths[1:] {
		assert.Equal(t, DefaultCascade, filepath.Base(p))
	}

	abs := CandidatePaths("/models/face.xml")
	assert.Equal(t, []string{"/models/face.xml"}, abs)

	rel := CandidatePaths("models/face.xml")
	assert.Equal(t, "models/face.xml", rel[0])
	assert.Greater(t, len(rel), 1)
}

func TestMock_ReturnsBoxesInOrder(t *testing.T) {
	first := image.Rect(10, 10, 20, 20)
	second := image.Rect(0, 0, 100, 100)
	m := NewMock(first, second)

	boxes, err := m.Detect(image.NewGray(image.Rect(0, 0, 200, 200)))
	require.NoError(t, err)
	assert.Equal(t, []image.Rectangle{first, second}, boxes)
	assert.Equal(t, 1, m.Calls())
}

func TestMock_NoBoxes(t *testing.T) {
	m := NewMock()

	boxes, err := m.Detect(image.NewGray(image.Rect(0, 0, 50, 50)))
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestMock_Error(t *testing.T) {
	m := NewMock()
	m.Err = errors.New("cascade failure")

	_, err := m.Detect(image.NewGray(image.Rect(0, 0, 50, 50)))
	assert.EqualError(t, err, "cascade failure")
}

func TestCenterMock(t *testing.T) {
	m := NewCenterMock()

	boxes, err := m.Detect(image.NewGray(image.Rect(0, 0, 400, 200)))
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, image.Rect(100, 50, 300, 150), boxes[0])

	boxes, err = m.Detect(image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Empty(t, boxes)
}
