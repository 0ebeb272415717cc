package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l2segment"
	"github.com/banshee-data/laserscan/internal/scan/l3columns"
	"github.com/banshee-data/laserscan/internal/scan/l4geometry"
	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

// ErrNilFrame is returned by IngestFrame when the frame has no raw image.
var ErrNilFrame = errors.New("pipeline: frame has no raw image")

// ScanFrame is one camera capture at a platform angle. Laser, when set, is
// the laser-on capture and Raw the laser-off capture of the same view; the
// stripe is then segmented from their difference.
type ScanFrame struct {
	Raw      image.Image
	Laser    image.Image
	AngleDeg float64
}

// ImageKind selects one of the debug images kept from the last frame.
type ImageKind int

const (
	ImageRaw ImageKind = iota
	ImageLaser
	ImageDiff
	ImageBinary
)

func (k ImageKind) String() string {
	switch k {
	case ImageRaw:
		return "raw"
	case ImageLaser:
		return "laser"
	case ImageDiff:
		return "diff"
	case ImageBinary:
		return "binary"
	default:
		return fmt.Sprintf("ImageKind(%d)", int(k))
	}
}

// SessionRecorder persists scan sessions. Implemented by
// storage/sqlite.SessionStore.
type SessionRecorder interface {
	CreateSession(id uuid.UUID, calibration l1calib.Params, startedAt time.Time) error
	FinishSession(id uuid.UUID, cloud l5cloud.Cloud, stoppedAt time.Time) error
}

// Options configures NewEngine.
type Options struct {
	// QueueCapacity bounds the increment queue. Zero means
	// l5cloud.DefaultQueueCapacity.
	QueueCapacity int

	// Recorder, when non-nil, receives session start and finish.
	Recorder SessionRecorder

	// Now overrides the clock used for session timestamps.
	Now func() time.Time
}

// Engine runs frames through the scanner pipeline and accumulates the
// session cloud. Configure, StartScan, StopScan and IngestFrame share one
// mutex, so a frame is processed and appended entirely within the session
// it started in. PollIncrement, IsQueueEmpty and FullCloud only take the
// accumulator lock and never wait for a frame in progress.
type Engine struct {
	mu       sync.Mutex
	settings Settings
	pending  *Settings
	tables   *l1calib.LookupTables
	images   [ImageBinary + 1]image.Image
	session  uuid.UUID

	acc      *l5cloud.Accumulator
	recorder SessionRecorder
	now      func() time.Time
}

// NewEngine returns an idle engine using DefaultSettings.
func NewEngine(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		settings: DefaultSettings(),
		acc:      l5cloud.NewAccumulator(opts.QueueCapacity),
		recorder: opts.Recorder,
		now:      now,
	}
}

// Configure validates s and applies it. On error the current settings are
// kept. While a scan is running the settings are staged and take effect at
// the next StartScan.
func (e *Engine) Configure(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acc.State() == l5cloud.Scanning {
		staged := s
		e.pending = &staged
		diagf("settings staged until next scan")
		return nil
	}
	e.apply(s)
	return nil
}

// apply installs s. Lookup tables are rebuilt lazily by prepare.
// Caller holds e.mu.
func (e *Engine) apply(s Settings) {
	e.settings = s
	e.pending = nil
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Pending reports whether settings are staged for the next scan.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != nil
}

// StartScan applies staged settings, clears the cloud and the increment
// queue, and begins a new session. Calling it mid-scan discards the running
// session.
func (e *Engine) StartScan() (uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.apply(*e.pending)
	}

	id := uuid.New()
	if e.recorder != nil {
		if err := e.recorder.CreateSession(id, e.settings.Calibration, e.now()); err != nil {
			return uuid.Nil, fmt.Errorf("record session start: %w", err)
		}
	}
	e.acc.StartScan()
	e.session = id
	for i := range e.images {
		e.images[i] = nil
	}
	diagf("scan %s started (mode=%s)", id, e.settings.Mode)
	return id, nil
}

// StopScan ends the session. The cloud stays readable until the next
// StartScan. Stopping an idle engine is a no-op.
func (e *Engine) StopScan() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acc.State() != l5cloud.Scanning {
		return nil
	}
	e.acc.StopScan()
	st := e.acc.Stats()
	diagf("scan %s stopped: frames=%d points=%d dropped=%d", e.session, st.Frames, st.Points, st.Dropped)
	if e.recorder != nil {
		if err := e.recorder.FinishSession(e.session, e.acc.Cloud(), e.now()); err != nil {
			opsf("failed to record scan %s: %v", e.session, err)
			return fmt.Errorf("record session finish: %w", err)
		}
	}
	return nil
}

// Session returns the id of the current or last session.
func (e *Engine) Session() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// State returns the accumulator lifecycle state.
func (e *Engine) State() l5cloud.State { return e.acc.State() }

// Stats returns accumulator counters for the current session.
func (e *Engine) Stats() l5cloud.Stats { return e.acc.Stats() }

// IngestFrame processes f and appends the resulting points to the session
// cloud. A frame that cannot be processed yields an empty delta and an
// error; the session continues. A frame with no laser pixels, or none inside
// the ROI, yields an empty delta and nil.
func (e *Engine) IngestFrame(f ScanFrame) (l5cloud.Delta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acc.State() != l5cloud.Scanning {
		return l5cloud.Delta{}, l5cloud.ErrNotScanning
	}
	if f.Raw == nil {
		opsf("dropping frame at %.2f°: %v", f.AngleDeg, ErrNilFrame)
		return l5cloud.Delta{}, ErrNilFrame
	}

	b := f.Raw.Bounds()
	settings, tables, err := e.prepare(b.Dx(), b.Dy())
	if err != nil {
		opsf("dropping frame at %.2f°: %v", f.AngleDeg, err)
		return l5cloud.Delta{}, err
	}

	source := f.Raw
	var diff *image.NRGBA
	if f.Laser != nil {
		diff, err = l2segment.Diff(f.Laser, f.Raw)
		if err != nil {
			opsf("dropping frame at %.2f°: %v", f.AngleDeg, err)
			return l5cloud.Delta{}, err
		}
		source = diff
	}

	mask, vis, err := l2segment.Segment(source, settings.Segmentation)
	if err != nil {
		opsf("dropping frame at %.2f°: %v", f.AngleDeg, err)
		return l5cloud.Delta{}, err
	}
	samples, err := l3columns.Extract(mask, source, settings.Mode)
	if err != nil {
		opsf("dropping frame at %.2f°: %v", f.AngleDeg, err)
		return l5cloud.Delta{}, err
	}

	mapped := l4geometry.Map(samples, f.AngleDeg, tables, f.Raw, settings.ZOffset)
	kept := l4geometry.Filter(mapped, settings.Range)
	tracef("frame %.2f°: columns=%d mapped=%d kept=%d", f.AngleDeg, len(samples), mapped.Len(), kept.Len())

	e.keepImages(f, diff, vis)

	return e.acc.Ingest(l5cloud.DeltaFromBatch(kept))
}

// prepare returns the active settings and lookup tables for a
// width x height frame, rebuilding them when the size or calibration
// changed. Caller holds e.mu.
func (e *Engine) prepare(width, height int) (Settings, *l1calib.LookupTables, error) {
	s := e.settings
	if !e.tables.Matches(s.Calibration, width, height) {
		t, err := l1calib.DeriveLookupTables(s.Calibration, width, height)
		if err != nil {
			return s, nil, err
		}
		diagf("lookup tables rebuilt for %dx%d", width, height)
		e.tables = t
	}
	return s, e.tables, nil
}

// keepImages records the debug images of f. Caller holds e.mu.
func (e *Engine) keepImages(f ScanFrame, diff *image.NRGBA, vis *image.RGBA) {
	e.images[ImageRaw] = f.Raw
	e.images[ImageLaser] = f.Laser
	e.images[ImageDiff] = nil
	if diff != nil {
		e.images[ImageDiff] = diff
	}
	e.images[ImageBinary] = vis
}

// Image returns the requested debug image from the last processed frame,
// or nil when there is none. It waits for a frame in progress.
func (e *Engine) Image(kind ImageKind) image.Image {
	if kind < ImageRaw || kind > ImageBinary {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images[kind]
}

// FullCloud returns a copy of every point accumulated this session.
func (e *Engine) FullCloud() l5cloud.Cloud { return e.acc.Cloud() }

// PollIncrement pops the oldest queued delta without blocking.
func (e *Engine) PollIncrement() (l5cloud.Delta, bool) { return e.acc.Poll() }

// IsQueueEmpty reports whether no increment is waiting.
func (e *Engine) IsQueueEmpty() bool { return e.acc.QueueEmpty() }
