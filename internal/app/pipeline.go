package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/render"
	"github.com/MrWong99/scriptvox/internal/roster"
)

// Run processes every document in order and saves the final roster to
// <output_dir>/roster.yaml. Documents that cannot be read are logged and
// skipped. Run stops early only when ctx is done or the renderer cannot
// create its output directory; the partial Summary is returned either way.
func (a *App) Run(ctx context.Context) (Summary, error) {
	if a.renderer == nil {
		return Summary{}, ErrNoSynthesizer
	}
	if addr := a.cfg.Observe.ListenAddr; addr != "" {
		if err := a.startServer(ctx, addr); err != nil {
			return Summary{}, err
		}
	}

	sum := Summary{RunID: uuid.NewString(), Roster: a.seed}
	slog.Info("run started", "run_id", sum.RunID, "files", len(a.files))
	for i, path := range a.files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		next, err := a.processFile(ctx, i+1, path, sum.Roster, &sum)
		sum.Roster = next
		if err != nil {
			return sum, err
		}
	}

	out := filepath.Join(a.cfg.Render.OutputDir, RosterFile)
	if err := roster.SaveFile(out, sum.Roster); err != nil {
		return sum, fmt.Errorf("app: %w", err)
	}

	slog.Info("run complete",
		"run_id", sum.RunID,
		"files", sum.Files,
		"skipped", sum.Skipped,
		"sentences", sum.Attribution.Total(),
		"fallbacks", sum.Attribution.Fallback,
		"written", sum.Written,
		"failed", sum.Failed,
		"voices", len(a.assigner.Assignments()),
	)
	return sum, nil
}

// processFile runs one document through every stage. It returns the roster
// to carry into the next document.
func (a *App) processFile(ctx context.Context, index int, path string, cur roster.Roster, sum *Summary) (roster.Roster, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.file",
		trace.WithAttributes(
			attribute.String("run_id", sum.RunID),
			attribute.String("file", path),
			attribute.Int("index", index),
		))
	defer span.End()
	log := observe.Logger(ctx)

	n, err := novel.Load(path)
	if err != nil {
		log.Error("skipping unreadable document", "file", path, "err", err)
		span.SetStatus(codes.Error, "load failed")
		sum.Skipped++
		return cur, nil
	}

	next, err := a.updateRoster(ctx, n, cur)
	if err != nil {
		return next, err
	}

	stats, err := a.attributor.Attribute(ctx, n, next)
	sum.Attribution.Add(stats)
	if err != nil {
		return next, err
	}

	rep, err := a.renderer.Render(ctx, index, n)
	sum.Written += rep.Written
	sum.Failed += rep.Failed
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return next, err
	}

	m := render.BuildManifest(n, a.assigner.Assignments(), rep.Chunks)
	m.Run = sum.RunID
	if err := render.WriteManifest(rep.Dir, m); err != nil {
		log.Error("manifest not written", "file", path, "err", err)
	}

	sum.Files++
	log.Info("document done",
		"file", path,
		"narrators", len(next),
		"inferred", stats.Inferred,
		"fast_path", stats.FastPath,
		"fallback", stats.Fallback,
	)
	return next, nil
}

// updateRoster extracts over the document in chunks and logs suspected
// naming drift in the result.
func (a *App) updateRoster(ctx context.Context, n *novel.Novel, cur roster.Roster) (roster.Roster, error) {
	chunks := render.ChunkLines(n.Lines(), a.cfg.Roster.ChunkChars)
	next, err := a.extractor.Update(ctx, chunks, cur)
	if err != nil {
		return next, err
	}
	for _, p := range roster.SimilarNames(next, a.cfg.Roster.DriftThreshold) {
		observe.Logger(ctx).Warn("possible naming drift in roster",
			"file", n.Path, "a", p.A, "b", p.B, "score", p.Score, "reason", p.Reason)
	}
	return next, nil
}

// ExtractRoster runs roster extraction alone over the whole corpus, starting
// from the seed roster. It needs no synthesizer.
func (a *App) ExtractRoster(ctx context.Context) (roster.Roster, error) {
	cur := a.seed
	for _, path := range a.files {
		n, err := novel.Load(path)
		if err != nil {
			slog.Error("skipping unreadable document", "file", path, "err", err)
			continue
		}
		cur, err = a.updateRoster(ctx, n, cur)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}
