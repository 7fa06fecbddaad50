package render

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWritesValidPNG(t *testing.T) {
	task := types.Task{
		Train: []types.Example{
			{Input: [][]int{{0, 1}, {1, 0}}, Output: [][]int{{1, 0, 2}, {0, 1, 2}}},
			{Input: [][]int{{3}}, Output: [][]int{{3}, {3}}},
		},
	}

	path := filepath.Join(t.TempDir(), "task.png")
	require.NoError(t, Renderer{}.Render(task, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.NotZero(t, img.Bounds().Dx())
	assert.NotZero(t, img.Bounds().Dy())
}

func TestRenderRejectsTaskWithNoTrainingPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.png")
	err := Renderer{}.Render(types.Task{}, path)
	assert.Error(t, err)
}

func TestColorForOutOfRangeFallsBackToWhite(t *testing.T) {
	c := colorFor(99)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(255), c.G)
	assert.Equal(t, uint8(255), c.B)
}

func TestDrawGridPaintsEveryCell(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, cellPixels*2, cellPixels*2))
	drawGrid(img, [][]int{{1, 2}, {3, 4}}, 0, 0)

	center := img.RGBAAt(cellPixels/2, cellPixels/2)
	assert.Equal(t, palette[1], center)
	assert.Equal(t, palette[2], img.RGBAAt(cellPixels*3/2, cellPixels/2))
	assert.Equal(t, palette[3], img.RGBAAt(cellPixels/2, cellPixels*3/2))
	assert.Equal(t, palette[4], img.RGBAAt(cellPixels*3/2, cellPixels*3/2))
}
