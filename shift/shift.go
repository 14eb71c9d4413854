// Package shift rewrites the distribution of an image dataset: every image is
// loaded, passed through a transform and saved into an output directory under
// its original name. Items are processed by a bounded worker pool and a
// failing item never aborts the batch.
package shift

import (
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Transform maps one image to another. augment.StrongAugment.Apply satisfies
// it; a single Transform value must only be used by one worker.
type Transform func(image.Image) (image.Image, error)

// Failure records one item that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Shifter shifts a dataset with a pool of workers. Each worker gets its own
// Transform from the factory, so stateful transforms (like StrongAugment,
// which records its last policy) are never shared.
type Shifter struct {
	outputDir string
	factory   func() Transform
	workers   int
	progress  bool
}

// New creates a Shifter writing into outputDir. The factory is called once
// per worker.
func New(outputDir string, factory func() Transform) *Shifter {
	return &Shifter{
		outputDir: outputDir,
		factory:   factory,
		workers:   1,
		progress:  true,
	}
}

// WithWorkers sets the number of parallel workers. Values below 1 are treated
// as 1. It returns the Shifter to allow chaining.
func (s *Shifter) WithWorkers(n int) *Shifter {
	if n < 1 {
		n = 1
	}
	s.workers = n
	return s
}

// WithProgress enables or disables the progress bar. It returns the Shifter
// to allow chaining.
func (s *Shifter) WithProgress(enabled bool) *Shifter {
	s.progress = enabled
	return s
}

// Run processes every path and returns the items that failed, in no
// particular order. The returned error covers setup only (e.g. the output
// directory could not be created); per-item errors go into the Failure list.
func (s *Shifter) Run(paths []string) ([]Failure, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %q", s.outputDir)
	}
	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Shifting dataset"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
	}

	workers := s.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	jobs := make(chan string, workers)
	var (
		mu       sync.Mutex
		failures []Failure
		wg       sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn := s.factory()
			for path := range jobs {
				if err := s.processOne(path, fn); err != nil {
					klog.Warningf("shift: %q failed: %v", path, err)
					mu.Lock()
					failures = append(failures, Failure{Path: path, Err: err})
					mu.Unlock()
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}
	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	return failures, nil
}

// processOne loads, transforms and saves a single image.
func (s *Shifter) processOne(path string, fn Transform) error {
	img, err := imaging.Open(path)
	if err != nil {
		return errors.Wrap(err, "loading image")
	}
	out, err := fn(img)
	if err != nil {
		return errors.Wrap(err, "transforming image")
	}
	target := filepath.Join(s.outputDir, filepath.Base(path))
	if err := imaging.Save(out, target); err != nil {
		return errors.Wrapf(err, "saving to %q", target)
	}
	return nil
}
