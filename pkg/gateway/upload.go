package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/metrics"
	"github.com/marmos91/storfiler/pkg/storepath"
)

// Upload is one file of an Add request.
//
// Open is called once per target endpoint, so every endpoint reads the
// payload from the start. The returned stream must be seekable so stores
// can determine its length.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadSeekCloser, error)
}

// NewBytesUpload returns an Upload serving data from memory.
func NewBytesUpload(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadSeekCloser, error) {
			return nopSeekCloser{bytes.NewReader(data)}, nil
		},
	}
}

type nopSeekCloser struct {
	io.ReadSeeker
}

func (nopSeekCloser) Close() error { return nil }

// UploadResult is the outcome of writing one file to one endpoint.
type UploadResult struct {
	File     string `json:"file"`
	Endpoint string `json:"endpoint"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// UploadReport lists one result per (file, endpoint) pair, files in request
// order and endpoints in resolution order within each file.
type UploadReport struct {
	Results   []UploadResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// Partial reports whether some but not all pairs failed.
func (r *UploadReport) Partial() bool {
	return r.Failed > 0 && r.Succeeded > 0
}

// AllFailed reports whether no pair succeeded.
func (r *UploadReport) AllFailed() bool {
	return r.Succeeded == 0 && r.Failed > 0
}

// validFileName reports whether name has a usable last segment. Dot segments
// would address the folder itself.
func validFileName(name string) bool {
	switch storepath.Name(name) {
	case "", ".", "..":
		return false
	}
	return true
}

// Add writes every file to every write endpoint.
//
// The request is rejected with ErrInvalidInput before any backend call when
// no file is supplied or a file has no name. Each (file, endpoint) pair is
// written independently and concurrently; a failing pair is logged and
// recorded in the report while its siblings continue. Files land at
// endpoint prefix (unless full-path) / subPath / file name.
func (d *Dispatcher) Add(ctx context.Context, r *Resource, m *Method, files []Upload, subPath string) (*UploadReport, error) {
	start := time.Now()

	endpoints, err := ResolveWrite(m, r)
	if err != nil {
		d.finish(ActionAdd, r, start, metrics.OutcomeError)
		return nil, err
	}

	if len(files) == 0 {
		d.finish(ActionAdd, r, start, metrics.OutcomeError)
		return nil, fmt.Errorf("no file supplied: %w", ErrInvalidInput)
	}
	for i, f := range files {
		if !validFileName(f.Name) || f.Open == nil {
			d.finish(ActionAdd, r, start, metrics.OutcomeError)
			return nil, fmt.Errorf("file #%d has no name: %w", i+1, ErrInvalidInput)
		}
	}

	results := make([]UploadResult, len(files)*len(endpoints))

	g := d.group()
	for fi, f := range files {
		f := f
		for ei, e := range endpoints {
			e := e
			idx := fi*len(endpoints) + ei
			target := targetPath(m, e, storepath.Combine(subPath, storepath.Name(f.Name)))

			results[idx] = UploadResult{
				File:     f.Name,
				Endpoint: e.String(),
				Kind:     kindOf(e),
				Path:     storepath.Normalize(target, true),
			}

			g.Go(func() error {
				err := d.writeOne(ctx, e, target, f)
				if err != nil {
					results[idx].Error = err.Error()
					d.metrics.RecordEndpointCall(string(ActionAdd), kindOf(e), metrics.OutcomeError)
					if ctx.Err() == nil {
						logger.Error("Add %s/%s: writing %s to %s failed: %v", r.Name, m, target, e, err)
					}
					return nil
				}
				results[idx].OK = true
				d.metrics.RecordEndpointCall(string(ActionAdd), kindOf(e), metrics.OutcomeSuccess)
				d.metrics.RecordBytes("write", f.Size)
				return nil
			})
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		d.finish(ActionAdd, r, start, metrics.OutcomeError)
		return nil, err
	}

	report := &UploadReport{Results: results}
	for _, res := range results {
		if res.OK {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	switch {
	case report.AllFailed():
		d.finish(ActionAdd, r, start, metrics.OutcomeError)
	case report.Partial():
		d.finish(ActionAdd, r, start, metrics.OutcomePartial)
	default:
		d.finish(ActionAdd, r, start, metrics.OutcomeSuccess)
	}
	return report, nil
}

func (d *Dispatcher) writeOne(ctx context.Context, e *Endpoint, target string, f Upload) error {
	s, err := d.factory.Open(ctx, e.Provider, "")
	if err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", f.Name, err)
	}
	defer src.Close()

	return s.Write(ctx, target, src)
}
