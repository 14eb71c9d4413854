// Command strongaugment augments every image under a directory tree and
// writes the results into an output directory, preserving file names.
//
//	strongaugment -output /tmp/shifted -config augment.yaml ./dataset
//
// Without -config it uses the default space and count strategy.
package main

import (
	"flag"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/jopo666/StrongAugment/augment"
	"github.com/jopo666/StrongAugment/internal/xslices"
	"github.com/jopo666/StrongAugment/shift"
)

var (
	flagConfig = flag.String("config", "", "YAML configuration file with the strategy and augmentation space. "+
		"If empty, the default count strategy over the default space is used.")
	flagOutput  = flag.String("output", "", "Output directory for the augmented images. Required.")
	flagWorkers = flag.Int("workers", runtime.NumCPU(), "Number of parallel workers. Each worker gets its own augmenter.")
	flagSeed    = flag.Int64("seed", 0, "Base random seed. Worker i uses seed+i, so runs are reproducible. "+
		"0 means a fresh random seed per worker.")
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		klog.Errorf("Expected exactly one input directory. See 'strongaugment -help'.")
		os.Exit(1)
	}
	if *flagOutput == "" {
		klog.Errorf("Missing -output directory. See 'strongaugment -help'.")
		os.Exit(1)
	}

	paths := must.M1(collectImages(args[0]))
	if len(paths) == 0 {
		klog.Errorf("No images (jpg/jpeg/png) found under %q.", args[0])
		os.Exit(1)
	}

	var workerIdx atomic.Int64
	factory := func() shift.Transform {
		sa := must.M1(buildAugmenter(workerIdx.Add(1)))
		return func(img image.Image) (image.Image, error) { return sa.Apply(img) }
	}

	start := time.Now()
	failures := must.M1(shift.New(*flagOutput, factory).WithWorkers(*flagWorkers).Run(paths))
	report(len(paths), failures, time.Since(start))
	if len(failures) > 0 {
		os.Exit(1)
	}
}

// buildAugmenter creates the augmenter for one worker. Each worker gets a
// distinct seed so they do not produce identical policies in lock-step.
func buildAugmenter(worker int64) (*augment.StrongAugment, error) {
	cfg := &augment.Config{}
	if *flagConfig != "" {
		var err error
		cfg, err = augment.LoadConfig(*flagConfig)
		if err != nil {
			return nil, err
		}
	}
	if *flagSeed != 0 {
		seed := *flagSeed + worker
		cfg.Seed = &seed
	}
	return cfg.Build()
}

func collectImages(root string) (paths []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	return
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1)
	valueStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

func report(total int, failures []shift.Failure, elapsed time.Duration) {
	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return valueStyle
		}).
		Row("Images", humanize.Comma(int64(total))).
		Row("Failed", humanize.Comma(int64(len(failures)))).
		Row("Elapsed", elapsed.Round(time.Millisecond).String())
	fmt.Println(table.Render())
	if len(failures) > 0 {
		fmt.Println("Failed files:")
		for _, path := range xslices.Map(failures, func(f shift.Failure) string { return f.Path }) {
			fmt.Printf("  %s\n", path)
		}
	}
}
