// Package gltfgen converts frame-numbered mesh sequences into a single
// animated glTF document.
package gltfgen

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/binzume/gltfgen/config"
	"github.com/binzume/gltfgen/converter"
	"github.com/binzume/gltfgen/diag"
	"github.com/binzume/gltfgen/discover"
	"github.com/binzume/gltfgen/gltfutil"
	"github.com/binzume/gltfgen/logger"
	"github.com/binzume/gltfgen/meshio"
	"github.com/binzume/gltfgen/transfer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const Version = "0.4.0"

// LoadOptions returns the loader settings of cfg.
func LoadOptions(cfg *config.Config) meshio.Options {
	return meshio.Options{Reverse: cfg.Reverse, InvertTets: cfg.InvertTets}
}

// TransferOptions returns the attribute selection of cfg.
func TransferOptions(cfg *config.Config) transfer.Options {
	return transfer.Options{
		Attributes:        cfg.Attributes,
		Colors:            cfg.Colors,
		TexCoords:         cfg.TexCoords,
		Normals:           cfg.Normals,
		Tangents:          cfg.Tangents,
		MaterialAttribute: cfg.MaterialAttribute,
	}
}

// LoadFrames reads and cleans entries on up to cfg.Workers goroutines.
// Files that cannot be decoded are reported to sink and skipped; any other
// error aborts the load. The result is sorted by (name, frame).
func LoadFrames(ctx context.Context, entries []discover.Entry, cfg *config.Config, sink *diag.Sink) ([]*converter.Frame, error) {
	if sink == nil {
		sink = diag.New(nil)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	lopt, topt := LoadOptions(cfg), TransferOptions(cfg)
	lopt.Sink = sink

	frames := make([]*converter.Frame, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := meshio.Load(e.Path, lopt)
			var ferr *meshio.FormatError
			if errors.As(err, &ferr) {
				sink.Reportf("load", "skipping %v", ferr)
				return nil
			} else if err != nil {
				return err
			}
			lo, hi := m.Bounds()
			logger.Debug("loaded", zap.String("path", e.Path),
				zap.Int("vertices", m.NumVertices()), zap.Int("faces", m.NumFaces()),
				zap.Float32s("min", lo[:]), zap.Float32s("max", hi[:]))
			m, tr := transfer.Clean(m, topt, sink)
			frames[i] = &converter.Frame{Name: e.Name, Frame: e.Frame, Mesh: m, Transfer: tr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := frames[:0]
	for _, f := range frames {
		if f != nil {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, converter.ErrNoMeshes
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Frame < out[j].Frame
	})
	return out, nil
}

// Run converts the files matching pattern and writes the document to output.
// It returns the path actually written.
func Run(ctx context.Context, pattern, output string, cfg *config.Config, sink *diag.Sink) (string, error) {
	entries, err := discover.Find(pattern, cfg.Step)
	if errors.Is(err, discover.ErrNoMatches) {
		return "", fmt.Errorf("%w: %w", converter.ErrNoMeshes, err)
	} else if err != nil {
		return "", err
	}
	logger.Info("found meshes", zap.Int("files", len(entries)))

	frames, err := LoadFrames(ctx, entries, cfg, sink)
	if err != nil {
		return "", err
	}
	output = gltfutil.OutputPath(output)
	doc, err := converter.Convert(frames, cfg, converter.ExportOptions{
		Generator:   "gltfgen " + Version,
		EmbedImages: gltfutil.IsBinary(output),
		OutputDir:   filepath.Dir(output),
	}, sink)
	if err != nil {
		return "", err
	}
	if err := gltfutil.Save(doc, output); err != nil {
		return "", err
	}
	logger.Info("saved", zap.String("path", output), zap.Int("nodes", len(doc.Nodes)))
	return output, nil
}
