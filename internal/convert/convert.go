// Package convert renders an Org-roam source vault into an Obsidian-style
// Markdown vault: one file per node, links rewritten, attachments copied out
// of their sharded source layout.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/attach"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/org"
	"github.com/starford/ansuz/internal/storage"
)

// Options controls a conversion run.
type Options struct {
	// UseTitle names attachment folders after the sanitized note title
	// instead of the node ID.
	UseTitle bool
	// Workers bounds the number of files converted concurrently.
	// Zero means 4.
	Workers int
}

// Result summarizes a conversion run.
type Result struct {
	Notes              int
	AttachmentsCopied  int
	MissingAttachments []string
}

// Run syncs the catalog from the source vault and converts every node to a
// Markdown file in the output vault. Missing attachments are collected, not
// fatal; the first file-level failure aborts the run.
func Run(ctx context.Context, svc *catalog.Service, store *attach.Store, out storage.Provider, logger *slog.Logger, opts Options) (*Result, error) {
	if err := svc.Sync(logger); err != nil {
		return nil, fmt.Errorf("convert: sync catalog: %w", err)
	}

	metas, err := svc.Store().List("")
	if err != nil {
		return nil, fmt.Errorf("convert: list source vault: %w", err)
	}

	resolve := func(id string) (string, bool) {
		row, err := svc.Resolve(id)
		if err != nil {
			return "", false
		}
		return row.Title, true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	res := &Result{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, m := range metas {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			data, err := svc.Store().Read(m.Path)
			if err != nil {
				return fmt.Errorf("convert: read %s: %w", m.Path, err)
			}

			for _, n := range org.Extract(data) {
				folder := n.ID
				if opts.UseTitle {
					folder = SanitizeFilename(n.Title)
				}

				md := Render(n, folder, resolve)
				outName := SanitizeFilename(n.Title) + ".md"
				if err := out.Write(outName, []byte(md)); err != nil {
					return fmt.Errorf("convert: write %s: %w", outName, err)
				}

				copied, missing := copyAttachments(store, out.Root(), n, folder, logger)

				mu.Lock()
				res.Notes++
				res.AttachmentsCopied += copied
				res.MissingAttachments = append(res.MissingAttachments, missing...)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("conversion complete",
		slog.Int("notes", res.Notes),
		slog.Int("attachments", res.AttachmentsCopied),
		slog.Int("missing_attachments", len(res.MissingAttachments)))
	return res, nil
}

// copyAttachments copies every attachment of the node into
// <outRoot>/attachments/<folder>/. Names from file: links are reduced to
// their base name, matching how the rewritten body references them.
func copyAttachments(store *attach.Store, outRoot string, n org.Node, folder string, logger *slog.Logger) (copied int, missing []string) {
	destDir := filepath.Join(outRoot, "attachments", folder)
	for _, raw := range n.Attachments {
		name := path.Base(raw)
		if err := store.Copy(n.ID, name, destDir); err != nil {
			logger.Warn("attachment not found",
				slog.String("node", n.ID),
				slog.String("name", name),
				slog.String("error", err.Error()))
			missing = append(missing, attach.SourcePath(n.ID, name))
			continue
		}
		copied++
	}
	return copied, missing
}
