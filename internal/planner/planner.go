package planner

import (
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sysplan/internal/ir"
	"github.com/roach88/sysplan/internal/optree"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Planner builds and merges plans for batches of descriptors.
// A Planner holds only configuration and is safe for concurrent use.
type Planner struct {
	reporter Reporter
	workers  int
	merge    bool
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithReporter sets the callback that receives diagnostics.
func WithReporter(r Reporter) Option {
	return func(p *Planner) {
		p.reporter = r
	}
}

// WithWorkers sets how many descriptors are built concurrently.
// Values below 2 build sequentially.
func WithWorkers(n int) Option {
	return func(p *Planner) {
		p.workers = n
	}
}

// WithoutMerge disables the merge phase: every descriptor keeps its own
// entry.
func WithoutMerge() Option {
	return func(p *Planner) {
		p.merge = false
	}
}

// WithLogger sets the structured logger for debug tracing.
// Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Planner with the given options.
func New(opts ...Option) *Planner {
	p := &Planner{
		workers: 1,
		merge:   true,
		logger:  discardLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type built struct {
	root *optree.Foreach
	err  error
}

// Plan builds a tree per descriptor and merges equivalent data sources.
//
// Descriptor errors are reported and the offending descriptor is skipped;
// its siblings still plan. The returned error is non-nil only for internal
// errors, in which case no plan is produced.
func (p *Planner) Plan(ds []ir.Descriptor) (*Plan, error) {
	results := make([]built, len(ds))
	buildOne := func(i int) {
		root, err := Build(ds[i])
		results[i] = built{root: root, err: err}
	}

	if p.workers > 1 && len(ds) > 1 {
		// Workers never fail the group: each outcome, error included, is
		// kept in results so it can be handled in descriptor order below.
		var g errgroup.Group
		g.SetLimit(p.workers)
		for i := range ds {
			g.Go(func() error {
				buildOne(i)
				return nil
			})
		}
		g.Wait()
	} else {
		for i := range ds {
			buildOne(i)
		}
	}

	plan := &Plan{}
	entries := make([]Entry, 0, len(ds))
	for i, r := range results {
		if r.err != nil {
			var pe *Error
			if !errors.As(r.err, &pe) {
				return nil, r.err
			}
			p.report(pe.Diagnostic)
			plan.Diagnostics = append(plan.Diagnostics, pe.Diagnostic)
			continue
		}
		p.logger.Debug("descriptor planned",
			"routine", ds[i].Routine,
			"nodes", optree.Size(r.root),
		)
		entries = append(entries, Entry{
			Root:    r.root,
			Origins: []Origin{{
				Descriptor: ds[i],
				Key:        ir.DataSourceKey(ds[i]),
				Hash:       ir.DescriptorHash(ds[i]),
			}},
		})
	}

	if !p.merge {
		plan.Entries = entries
		return plan, nil
	}

	merged, err := mergeEntries(entries, p.logger)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			p.report(pe.Diagnostic)
		}
		return nil, err
	}
	plan.Entries = merged

	p.logger.Debug("plan merged",
		"descriptors", len(ds),
		"entries", len(merged),
	)
	return plan, nil
}

func (p *Planner) report(d Diagnostic) {
	if p.reporter != nil {
		p.reporter(d)
	}
}
