package anvil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	"github.com/Badel2/anvil-region/internal/config"
	"github.com/Badel2/anvil-region/internal/logging"
	"github.com/Badel2/anvil-region/nbt"
)

// RegionCoord is a region's position in region space, i.e. a chunk
// coordinate pair already divided by 32.
type RegionCoord struct {
	X, Z int32
}

// ChunkCoord is an absolute world chunk position, as returned by the
// folder-wide ListChunks.
type ChunkCoord struct {
	X, Z int32
}

// Provider is the folder-level facade over a directory of region
// files. Every call opens the region file it needs and closes it
// before returning; no Region engine is cached across calls, so two
// Providers (or two goroutines driving the same one) never contend
// over a shared handle, at the cost of re-parsing a header on every
// access.
type Provider struct {
	dir string
	log *logging.Logger
	cfg *config.Config
}

// ProviderOption configures a Provider at construction time.
type ProviderOption func(*Provider)

// WithProviderLogger attaches a diagnostic logger to every Region the
// provider opens.
func WithProviderLogger(l *logging.Logger) ProviderOption {
	return func(p *Provider) { p.log = l }
}

// WithProviderConfig attaches settings loaded via internal/config.Load
// to every Region the provider opens, in place of WithProviderLogger:
// it tightens the per-chunk size cap and builds the logger from cfg's
// logging section instead of a separately constructed *Logger.
func WithProviderConfig(cfg *config.Config) ProviderOption {
	return func(p *Provider) { p.cfg = cfg }
}

// NewProvider returns a Provider rooted at dir. dir is not required to
// exist yet; SaveChunk creates it on first use.
func NewProvider(dir string, opts ...ProviderOption) *Provider {
	p := &Provider{dir: dir}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) regionPath(rx, rz int32) string {
	return filepath.Join(p.dir, RegionFileName(rx, rz))
}

// regionOptions builds the Option set every Region the provider opens
// is constructed with. A config, if attached, takes precedence over a
// plain logger since it can build one itself from its logging section.
func (p *Provider) regionOptions() []Option {
	if p.cfg != nil {
		return []Option{WithConfig(p.cfg)}
	}
	return []Option{WithLogger(p.log)}
}

// LoadChunk reads the chunk at absolute chunk coordinates (cx, cz). It
// returns a *RegionNotFoundError if the containing region file does
// not exist, distinct from a *ChunkNotFoundError for an empty slot
// inside an existing region.
func (p *Provider) LoadChunk(cx, cz int32) (nbt.CompoundTag, error) {
	rx, rz := ChunkToRegion(cx, cz)
	path := p.regionPath(rx, rz)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &RegionNotFoundError{RegionX: rx, RegionZ: rz}
		}
		return nil, fmt.Errorf("anvil: statting region %s: %w", path, err)
	}

	region, err := OpenFile(path, p.regionOptions()...)
	if err != nil {
		return nil, err
	}
	defer region.Close()

	lx, lz := ChunkLocal(cx, cz)
	return region.ReadChunk(lx, lz)
}

// SaveChunk writes the chunk at absolute chunk coordinates (cx, cz),
// creating the provider's directory and the target region file if
// either does not yet exist.
func (p *Provider) SaveChunk(cx, cz int32, tag nbt.CompoundTag) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("anvil: creating region directory %s: %w", p.dir, err)
	}

	rx, rz := ChunkToRegion(cx, cz)
	region, err := OpenFile(p.regionPath(rx, rz), p.regionOptions()...)
	if err != nil {
		return err
	}
	defer region.Close()

	lx, lz := ChunkLocal(cx, cz)
	return region.WriteChunk(lx, lz, tag)
}

// ListRegions returns the coordinates of every validly-named region
// file in the provider's directory. Entries that do not match the
// strict r.<i32>.<i32>.mca grammar are silently skipped, the same way
// a world loader ignores stray files dropped into a region folder.
func (p *Provider) ListRegions() ([]RegionCoord, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("anvil: reading region directory %s: %w", p.dir, err)
	}

	var coords []RegionCoord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rx, rz, err := ParseRegionFileName(e.Name())
		if err != nil {
			continue
		}
		coords = append(coords, RegionCoord{X: rx, Z: rz})
	}
	return coords, nil
}

// ListChunksInRegion returns the local coordinates of every occupied
// slot in region (rx, rz). It is a convenience for callers that already
// know which single region they want; ListChunks is the folder-wide
// enumeration.
func (p *Provider) ListChunksInRegion(rx, rz int32) ([]RegionAndOffset, error) {
	path := p.regionPath(rx, rz)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &RegionNotFoundError{RegionX: rx, RegionZ: rz}
		}
		return nil, fmt.Errorf("anvil: statting region %s: %w", path, err)
	}

	region, err := OpenFile(path, p.regionOptions()...)
	if err != nil {
		return nil, err
	}
	defer region.Close()

	var out []RegionAndOffset
	for lz := uint8(0); lz < regionDim; lz++ {
		for lx := uint8(0); lx < regionDim; lx++ {
			if !region.Metadata(lx, lz).empty() {
				out = append(out, RegionAndOffset{RegionX: rx, RegionZ: rz, LocalX: lx, LocalZ: lz})
			}
		}
	}
	return out, nil
}

// ListChunks enumerates every occupied chunk slot across every
// validly-named region file in the provider's directory, returning
// absolute chunk coordinates. It walks ListRegions and aggregates each
// discovered region's occupied slots via ListChunksInRegion.
func (p *Provider) ListChunks() ([]ChunkCoord, error) {
	regions, err := p.ListRegions()
	if err != nil {
		return nil, err
	}

	var out []ChunkCoord
	for _, rc := range regions {
		slots, err := p.ListChunksInRegion(rc.X, rc.Z)
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			out = append(out, ChunkCoord{
				X: rc.X*regionDim + int32(s.LocalX),
				Z: rc.Z*regionDim + int32(s.LocalZ),
			})
		}
	}
	return out, nil
}

// ExportRegions bundles the given regions into a single gzip-
// compressed tar stream written to w, for shipping a world backup or
// handing a subset of a world off to another tool. Regions that do not
// exist are skipped rather than failing the whole export.
func (p *Provider) ExportRegions(ctx context.Context, w io.Writer, coords []RegionCoord) error {
	paths := make(map[string]string, len(coords))
	for _, c := range coords {
		path := p.regionPath(c.X, c.Z)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		paths[path] = filepath.Base(path)
	}

	files, err := archives.FilesFromDisk(ctx, nil, paths)
	if err != nil {
		return fmt.Errorf("anvil: collecting region files for export: %w", err)
	}

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}

	if err := format.Archive(ctx, w, files); err != nil {
		return fmt.Errorf("anvil: archiving regions: %w", err)
	}

	p.log.Info("exported %d region(s)", len(files))
	return nil
}
