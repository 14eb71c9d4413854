package shift

import (
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 100, 50, 255
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, imaging.Save(img, paths[i]))
	}
	return paths
}

func grayTransform() Transform {
	return func(img image.Image) (image.Image, error) {
		return imaging.Grayscale(img), nil
	}
}

func TestRunShiftsAllImages(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")
	paths := writeTestImages(t, inDir, "a.png", "b.png", "c.png")

	failures, err := New(outDir, grayTransform).
		WithWorkers(2).
		WithProgress(false).
		Run(paths)
	require.NoError(t, err)
	assert.Empty(t, failures)

	for _, path := range paths {
		target := filepath.Join(outDir, filepath.Base(path))
		out, err := imaging.Open(target)
		require.NoError(t, err)
		assert.Equal(t, 8, out.Bounds().Dx())
	}
}

func TestRunIsolatesFailingItems(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")
	paths := writeTestImages(t, inDir, "a.png", "b.png")
	paths = append(paths, filepath.Join(inDir, "missing.png"))

	failures, err := New(outDir, grayTransform).
		WithWorkers(2).
		WithProgress(false).
		Run(paths)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, paths[2], failures[0].Path)
	assert.Error(t, failures[0].Err)

	// The good items were still processed.
	for _, path := range paths[:2] {
		_, err := os.Stat(filepath.Join(outDir, filepath.Base(path)))
		assert.NoError(t, err)
	}
}

func TestRunIsolatesTransformErrors(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")
	paths := writeTestImages(t, inDir, "a.png", "b.png", "c.png")

	// Every second call fails: the batch still runs to completion and the
	// failures are collected instead of aborting.
	failing := func() Transform {
		inner := grayTransform()
		calls := 0
		return func(img image.Image) (image.Image, error) {
			calls++
			if calls%2 == 0 {
				return nil, errors.New("transform refused the image")
			}
			return inner(img)
		}
	}
	failures, err := New(outDir, failing).WithProgress(false).Run(paths)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
}

func TestFactoryCalledPerWorker(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")
	paths := writeTestImages(t, inDir, "a.png", "b.png", "c.png", "d.png")

	var mu sync.Mutex
	created := 0
	factory := func() Transform {
		mu.Lock()
		created++
		mu.Unlock()
		return grayTransform()
	}
	_, err := New(outDir, factory).WithWorkers(2).WithProgress(false).Run(paths)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestRunCreatesOutputDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "nested", "deep", "out")
	paths := writeTestImages(t, inDir, "a.png")
	_, err := New(outDir, grayTransform).WithProgress(false).Run(paths)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "a.png"))
	assert.NoError(t, err)
}
