package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	"github.com/banshee-data/laserscan/internal/scan/pipeline"
)

// manifestFrame is one entry of the frame manifest.
type manifestFrame struct {
	Raw      string  `json:"raw"`
	Laser    string  `json:"laser,omitempty"`
	AngleDeg float64 `json:"angle_deg"`
}

// frameRef is a manifest entry with paths resolved against the manifest
// directory. Images are decoded lazily during replay.
type frameRef struct {
	raw      string
	laser    string
	angleDeg float64
}

func loadManifest(path string) ([]frameRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []manifestFrame
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	frames := make([]frameRef, 0, len(entries))
	for i, e := range entries {
		if e.Raw == "" {
			return nil, fmt.Errorf("frame %d: raw image path is required", i)
		}
		frames = append(frames, frameRef{raw: resolve(e.Raw), laser: resolve(e.Laser), angleDeg: e.AngleDeg})
	}
	return frames, nil
}

// decodeImage reads a PNG, JPEG, GIF, BMP or TIFF frame. EXIF orientation
// is applied so phone captures line up with the calibrated sensor axes.
func decodeImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// writeMask dumps the binary mask of the last processed frame as a BMP.
func writeMask(dir string, index int, e *pipeline.Engine) error {
	mask := e.Image(pipeline.ImageBinary)
	if mask == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("mask_%04d.bmp", index)))
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, mask); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r frameRef) load() (pipeline.ScanFrame, error) {
	raw, err := decodeImage(r.raw)
	if err != nil {
		return pipeline.ScanFrame{}, err
	}
	f := pipeline.ScanFrame{Raw: raw, AngleDeg: r.angleDeg}
	if r.laser != "" {
		if f.Laser, err = decodeImage(r.laser); err != nil {
			return pipeline.ScanFrame{}, err
		}
	}
	return f, nil
}

type replaySummary struct {
	frames int
	failed int
}

// replay feeds every frame to e, stopping early if ctx is cancelled. Frames
// that fail to load or process are counted and skipped. When maskDir is set
// the binary mask of each processed frame is written there.
func replay(ctx context.Context, e *pipeline.Engine, frames []frameRef, maskDir string) replaySummary {
	var s replaySummary
	for _, ref := range frames {
		if ctx.Err() != nil {
			log.Printf("Replay interrupted after %d frames", s.frames)
			break
		}
		s.frames++
		f, err := ref.load()
		if err != nil {
			s.failed++
			log.Printf("Skipping frame at %.2f°: %v", ref.angleDeg, err)
			continue
		}
		if _, err := e.IngestFrame(f); err != nil {
			s.failed++
			continue
		}
		if maskDir != "" {
			if err := writeMask(maskDir, s.frames-1, e); err != nil {
				log.Printf("Failed to write mask: %v", err)
			}
		}
	}
	return s
}
