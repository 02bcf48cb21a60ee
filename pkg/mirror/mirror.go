// Package mirror copies the images a project references into local storage
// and records the local reference on the module or component that points
// at them.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"behancesync/internal/downloader"
	"behancesync/pkg/behance"
	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
	"behancesync/pkg/metrics"
)

// Downloader fetches asset bytes
type Downloader interface {
	Download(ctx context.Context, url string) (*behance.Asset, error)
}

// Storage persists assets by reference
type Storage interface {
	Lookup(ref string) (string, bool)
	SaveAsset(r io.Reader, ref, ext string) (string, error)
}

// Options configures a Mirror
type Options struct {
	// Concurrency bounds downloads per project; 0 runs one worker per asset
	Concurrency int
	// FailOnError makes any failed asset fail the whole project
	FailOnError bool
	Metrics     *metrics.Metrics
}

// Mirror fetches assets once and hands out stable local references
type Mirror struct {
	downloader Downloader
	storage    Storage
	opts       Options
	group      singleflight.Group
	logger     logger.Logger
}

// Summary describes what MirrorProject did
type Summary struct {
	Mirrored int
	Failed   int
	Errors   []error
}

// Reference returns the local reference for an asset URL. It is a UUIDv5 of
// the URL, so the same asset always gets the same reference and records
// built from unchanged data keep their digest.
func Reference(assetURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(assetURL)).String()
}

// New creates a Mirror
func New(d Downloader, s Storage, opts Options, log logger.Logger) *Mirror {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Mirror{
		downloader: d,
		storage:    s,
		opts:       opts,
		logger:     log.WithField("component", "mirror"),
	}
}

// MirrorAsset makes sure the asset at assetURL is stored locally and returns
// its reference. Stored assets are not fetched again, and concurrent calls
// for one URL share a single download.
func (m *Mirror) MirrorAsset(ctx context.Context, assetURL string) (string, error) {
	if assetURL == "" {
		return "", errs.New(errs.ErrorTypeAsset, "empty asset URL")
	}
	ref := Reference(assetURL)

	v, err, _ := m.group.Do(ref, func() (interface{}, error) {
		if _, ok := m.storage.Lookup(ref); ok {
			m.opts.Metrics.ObserveAsset(metrics.AssetCached)
			logger.LogAsset(m.logger, assetURL, ref, true, nil)
			return ref, nil
		}

		asset, err := m.downloader.Download(ctx, assetURL)
		if err != nil {
			return nil, err
		}

		ext := extensionFor(assetURL, asset.ContentType)
		if _, err := m.storage.SaveAsset(bytes.NewReader(asset.Data), ref, ext); err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeAsset, "failed to store "+assetURL)
		}

		m.opts.Metrics.ObserveAsset(metrics.AssetMirrored)
		logger.LogAsset(m.logger, assetURL, ref, false, nil)
		return ref, nil
	})
	if err != nil {
		m.opts.Metrics.ObserveAsset(metrics.AssetFailed)
		logger.LogAsset(m.logger, assetURL, ref, false, err)
		if errs.IsType(err, errs.ErrorTypeAsset) {
			return "", err
		}
		return "", errs.Wrap(err, errs.ErrorTypeAsset, "failed to mirror "+assetURL)
	}
	return v.(string), nil
}

// target is one place in a project that points at an asset
type target struct {
	url    string
	attach func(ref string)
}

// collectTargets lists every mirrorable asset in a normalized project:
// an image module's original rendition and each media collection
// component's source.
func collectTargets(p *behance.Project) []target {
	var targets []target
	for i := range p.Modules {
		mod := &p.Modules[i]
		switch {
		case mod.Image != nil:
			img := mod.Image
			if u := img.Sizes[behance.SizeOriginal]; u != "" {
				targets = append(targets, target{url: u, attach: func(ref string) { img.LocalFile = ref }})
			}
		case mod.Collection != nil:
			for j := range mod.Collection.Components {
				comp := &mod.Collection.Components[j]
				if comp.Src != "" {
					targets = append(targets, target{url: comp.Src, attach: func(ref string) { comp.LocalFile = ref }})
				}
			}
		}
	}
	return targets
}

// MirrorProject mirrors every asset of a normalized project and sets
// LocalFile on the modules and components that reference them. It returns
// only after all downloads have finished. Failed assets are left without a
// LocalFile; with FailOnError the first failure is returned instead.
func (m *Mirror) MirrorProject(ctx context.Context, p *behance.Project) (Summary, error) {
	var summary Summary

	targets := collectTargets(p)
	if len(targets) == 0 {
		return summary, nil
	}

	// One job per distinct URL
	var jobs []downloader.Job
	seen := make(map[string]bool)
	for _, t := range targets {
		if !seen[t.url] {
			seen[t.url] = true
			jobs = append(jobs, downloader.Job{URL: t.url})
		}
	}

	workers := m.opts.Concurrency
	if workers <= 0 || workers > len(jobs) {
		workers = len(jobs)
	}
	pool := downloader.NewWorkerPool(workers, m, m.logger)
	results := pool.Run(ctx, jobs)

	refs := make(map[string]string, len(results))
	for _, r := range results {
		if r.Error != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, r.Error)
			continue
		}
		refs[r.Job.URL] = r.Ref
	}

	for _, t := range targets {
		if ref, ok := refs[t.url]; ok {
			t.attach(ref)
			summary.Mirrored++
		}
	}

	if summary.Failed > 0 {
		m.logger.WarnWithFields("Some assets could not be mirrored", map[string]interface{}{
			"project_id": p.ID,
			"failed":     summary.Failed,
			"mirrored":   summary.Mirrored,
		})
		if m.opts.FailOnError {
			return summary, errs.Wrap(summary.Errors[0], errs.ErrorTypeAsset,
				fmt.Sprintf("project %d: %d asset(s) failed", p.ID, summary.Failed))
		}
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// extensionFor picks a file extension from the URL path, falling back to
// the response content type
func extensionFor(assetURL, contentType string) string {
	if u, err := url.Parse(assetURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
				return exts[0]
			}
		}
	}
	return ""
}
