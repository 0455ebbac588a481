// Package pipeline orchestrates estimate generation: it normalizes the
// budget, obtains and repairs the cost table, fans out the remaining
// completions and places everything into the selected HTML template.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/document"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/pricing"
	"github.com/tsanders/estimate-ai/pkg/prompt"
	"github.com/tsanders/estimate-ai/pkg/provider"
	"github.com/tsanders/estimate-ai/pkg/reconcile"
	"github.com/tsanders/estimate-ai/pkg/schedule"
	"github.com/tsanders/estimate-ai/pkg/templates"
	"github.com/tsanders/estimate-ai/pkg/ux"
)

// ErrInvalidInput is returned before any completion is requested when the
// request lacks required fields.
var ErrInvalidInput = errors.New("invalid input")

// maxRawDescription bounds the description taken from raw material when the
// extraction found none.
const maxRawDescription = 1000

// Generator produces estimates.
type Generator struct {
	provider   provider.Provider
	prompts    *prompt.Templates
	templates  *templates.Store
	reconciler *reconcile.Reconciler
	resolver   *schedule.Resolver
	logger     *zap.Logger
	progress   ux.ProgressWriter
	now        func() time.Time
}

// New creates a Generator. Provider is required.
func New(cfg Config) (*Generator, error) {
	if cfg.Provider == nil {
		return nil, errors.New("pipeline: provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Progress == nil {
		cfg.Progress = &ux.NoOpProgressWriter{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Prompts == nil {
		p, err := prompt.Load(prompt.Config{Provider: cfg.Provider.Name()})
		if err != nil {
			return nil, err
		}
		cfg.Prompts = p
	}
	if cfg.Templates == nil {
		s, err := templates.New("", cfg.Logger)
		if err != nil {
			return nil, err
		}
		cfg.Templates = s
	}

	resolver := schedule.NewResolver(cfg.LeadDays)
	resolver.Now = cfg.Now

	return &Generator{
		provider:   cfg.Provider,
		prompts:    cfg.Prompts,
		templates:  cfg.Templates,
		reconciler: reconcile.New(cfg.Reconcile),
		resolver:   resolver,
		logger:     cfg.Logger,
		progress:   cfg.Progress,
		now:        cfg.Now,
	}, nil
}

// Prompts returns the prompt set, shared with session edits.
func (g *Generator) Prompts() *prompt.Templates { return g.prompts }

// Templates returns the template store.
func (g *Generator) Templates() *templates.Store { return g.templates }

// Provider returns the completion provider.
func (g *Generator) Provider() provider.Provider { return g.provider }

// run is the state of one generation request.
type run struct {
	g        *Generator
	progress ux.ProgressWriter

	mu     sync.Mutex
	tokens int
	cost   float64
}

func (g *Generator) newRun(progress ux.ProgressWriter) *run {
	if progress == nil {
		progress = g.progress
	}
	return &run{g: g, progress: progress}
}

// complete sends one prompt and returns the reply text.
func (r *run) complete(ctx context.Context, kind prompt.Kind, data prompt.Data) (string, error) {
	p, err := r.g.prompts.Build(kind, data)
	if err != nil {
		return "", err
	}
	resp, err := r.g.provider.Complete(ctx, provider.CompletionRequest{
		SystemPrompt: p.System,
		UserPrompt:   p.User,
		JSON:         p.JSON,
		Label:        string(kind),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}

	r.mu.Lock()
	r.tokens += resp.TokensUsed
	r.cost += resp.Cost
	r.mu.Unlock()

	r.g.logger.Debug("completion finished",
		zap.String("kind", string(kind)),
		zap.Int("tokens", resp.TokensUsed),
		zap.Float64("cost", resp.Cost))
	r.progress.Step(string(kind))
	return resp.Text, nil
}

// prose completes kind and cleans the reply for display.
func (r *run) prose(ctx context.Context, kind prompt.Kind, data prompt.Data) (string, error) {
	text, err := r.complete(ctx, kind, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(provider.StripFences(text)), nil
}

func completeJSON[T any](ctx context.Context, r *run, kind prompt.Kind, data prompt.Data) (T, error) {
	text, err := r.complete(ctx, kind, data)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := provider.DecodeJSON[T](text)
	if err != nil {
		return v, fmt.Errorf("%s: %w", kind, err)
	}
	return v, nil
}

// Generate produces an estimate from structured project info.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	return g.generate(ctx, req, g.newRun(req.Progress))
}

// GenerateFromRaw extracts project info from free-form material, then
// generates as Generate does.
func (g *Generator) GenerateFromRaw(ctx context.Context, req RawRequest) (*Result, error) {
	raw := strings.TrimSpace(req.RawText)
	if raw == "" {
		return nil, fmt.Errorf("%w: raw text is empty", ErrInvalidInput)
	}

	r := g.newRun(req.Progress)
	r.progress.StartPhase("자료 분석", 1)
	reply, err := completeJSON[extractReply](ctx, r, prompt.ExtractInfo, prompt.Data{RawText: raw})
	r.progress.EndPhase()
	if err != nil {
		return nil, err
	}

	project := reply.merge(req.Defaults)
	if strings.TrimSpace(project.Name) == "" {
		project.Name = estimate.DefaultProjectName
	}
	if strings.TrimSpace(project.Description) == "" {
		project.Description = truncateRunes(raw, maxRawDescription)
	}
	g.logger.Info("project info extracted",
		zap.String("project", project.Name),
		zap.String("client", project.Client),
		zap.String("budget", project.Budget))

	return g.generate(ctx, Request{
		Project:      project,
		Template:     req.Template,
		TemplateHTML: req.TemplateHTML,
	}, r)
}

func (g *Generator) generate(ctx context.Context, req Request, r *run) (*Result, error) {
	started := time.Now()
	project := req.Project
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tmpl, err := g.template(req.Template, req.TemplateHTML)
	if err != nil {
		return nil, err
	}
	variant := tmpl.Variant
	log := g.logger.With(zap.String("template", tmpl.Name), zap.Stringer("variant", variant))

	budget := currency.NewBudget(project.Budget)
	now := g.now()
	data := g.baseData(project, budget, now)

	// Phase 1: the cost table fixes every monetary figure.
	r.progress.StartPhase("비용 산출", 1)
	costKind := prompt.CostTable
	if variant == estimate.VariantDetailed {
		costKind = prompt.DetailedCostTable
	}
	data.Rows = variant.CostRows()
	reply, err := completeJSON[costReply](ctx, r, costKind, data)
	r.progress.EndPhase()
	if err != nil {
		return nil, err
	}
	items, err := reply.lineItems(data.Rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", costKind, err)
	}

	var target int64
	if budget.Resolved {
		target = budget.Amount
	}
	rec := g.reconciler.Reconcile(target, items)
	for _, adj := range rec.Adjustments {
		log.Info("cost item adjusted",
			zap.String("step", adj.Step),
			zap.String("label", adj.Label),
			zap.Int64("from", adj.From),
			zap.Int64("to", adj.To))
	}
	breakdown := currency.NewBreakdown(rec.Total)

	content := &document.Content{
		Project:   project,
		Issued:    now,
		Period:    g.resolver.ProjectPeriod(project.Timeline),
		Breakdown: breakdown,
		Items:     rec.Items,
	}
	data.SubTotal = currency.Format(breakdown.SubTotal)
	data.Total = currency.Format(breakdown.Total)

	// Phase 2: everything else, in parallel.
	if err := g.fanOut(ctx, r, variant, data, content); err != nil {
		return nil, err
	}

	html, skipped, err := document.Fill(tmpl.HTML, variant, content)
	if err != nil {
		return nil, fmt.Errorf("fill template: %w", err)
	}
	if len(skipped) > 0 {
		log.Debug("template regions skipped", zap.Strings("regions", skipped))
	}

	r.mu.Lock()
	tokens, cost := r.tokens, r.cost
	r.mu.Unlock()

	res := &Result{
		HTML:         html,
		Template:     tmpl.Name,
		Variant:      variant,
		Project:      project,
		Budget:       budget,
		Breakdown:    breakdown,
		Items:        rec.Items,
		Adjustments:  rec.Adjustments,
		Tiers:        content.Tiers,
		Timeline:     content.Timeline,
		Duration:     content.Duration,
		Phases:       content.Phases,
		Installments: content.Installments,
		Skipped:      skipped,
		TokensUsed:   tokens,
		Cost:         cost,
		Elapsed:      time.Since(started),
	}
	log.Info("estimate generated",
		zap.Int64("total", breakdown.Total),
		zap.Int("tokens", tokens),
		zap.Float64("cost", cost),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// fanOut issues the phase-2 completions for variant. The first failure
// cancels the rest.
func (g *Generator) fanOut(ctx context.Context, r *run, variant estimate.Variant, data prompt.Data, c *document.Content) error {
	eg, ctx := errgroup.WithContext(ctx)

	var plan phasePlanReply
	switch variant {
	case estimate.VariantDetailed:
		r.progress.StartPhase("상세 내용 작성", 5)
		eg.Go(func() (err error) {
			c.Overview, err = r.prose(ctx, prompt.DetailedOverview, data)
			return err
		})
		eg.Go(func() error {
			reply, err := completeJSON[timelineReply](ctx, r, prompt.ScopePeriod, data)
			if err != nil {
				return err
			}
			c.Scope = g.resolver.Resolve(reply.stages())
			c.TotalPeriod = strings.TrimSpace(reply.TotalPeriod)
			c.Duration = schedule.Duration(c.Scope)
			return nil
		})
		eg.Go(func() error {
			reply, err := completeJSON[timelineReply](ctx, r, prompt.DetailedSchedule, data)
			if err != nil {
				return err
			}
			c.Tasks = g.resolver.Resolve(reply.stages())
			return nil
		})
		eg.Go(func() error {
			reply, err := completeJSON[deliverablesReply](ctx, r, prompt.Deliverables, data)
			if err != nil {
				return err
			}
			c.Deliverables = reply.Deliverables
			return nil
		})

	case estimate.VariantPhased:
		r.progress.StartPhase("단계별 계획 작성", 3)
		eg.Go(func() (err error) {
			c.Overview, err = r.prose(ctx, prompt.Overview, data)
			return err
		})
		eg.Go(func() (err error) {
			plan, err = completeJSON[phasePlanReply](ctx, r, prompt.PhasePlan, data)
			return err
		})

	default:
		r.progress.StartPhase("견적 내용 작성", 4)
		eg.Go(func() (err error) {
			c.Overview, err = r.prose(ctx, prompt.Overview, data)
			return err
		})
		eg.Go(func() error {
			reply, err := completeJSON[timelineReply](ctx, r, prompt.Timeline, data)
			if err != nil {
				return err
			}
			c.Timeline = g.resolver.Resolve(reply.stages())
			c.Duration = schedule.Duration(c.Timeline)
			return nil
		})
		eg.Go(func() error {
			reply, err := completeJSON[packagesReply](ctx, r, prompt.Packages, data)
			if err != nil {
				return err
			}
			c.Tiers = pricing.PinTiers(reply.tiers(), c.Breakdown.Total, c.Project.PackageBudgets)
			return nil
		})
	}
	eg.Go(func() (err error) {
		c.Closing, err = r.prose(ctx, prompt.Closing, data)
		return err
	})

	err := eg.Wait()
	r.progress.EndPhase()
	if err != nil {
		return err
	}

	if variant == estimate.VariantPhased {
		phases, err := plan.phases()
		if err != nil {
			return fmt.Errorf("%s: %w", prompt.PhasePlan, err)
		}
		c.Phases = pricing.ScalePhases(c.Breakdown.SubTotal, phases)
		c.Installments = pricing.PhaseInstallments(c.Breakdown.Total, c.Phases)
		c.Bundles = pricing.PhaseBundles(c.Phases)
		c.Notes = plan.Notes
	}
	return nil
}

func (g *Generator) template(name, inline string) (templates.Template, error) {
	if strings.TrimSpace(inline) != "" {
		if name == "" {
			name = "upload"
		}
		return templates.Template{
			Name:    name,
			Source:  templates.SourceInline,
			Variant: document.DetectVariant(name, inline),
			HTML:    inline,
		}, nil
	}
	t, err := g.templates.Get(name)
	if err != nil {
		return templates.Template{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

func (g *Generator) baseData(p estimate.ProjectInfo, budget estimate.Budget, now time.Time) prompt.Data {
	d := prompt.Data{
		ProjectName:            p.DisplayName(),
		ProjectDescription:     p.Description,
		ClientName:             p.DisplayClient(),
		Timeline:               p.Timeline,
		AdditionalRequirements: p.AdditionalRequirements,
		Instructions:           p.Instructions,
		Attachment:             p.Attachment,
		BudgetText:             strings.TrimSpace(p.Budget),
		Packages:               packageBudgetText(p.PackageBudgets),
		StartDate:              g.resolver.LeadDate().Format("01/02"),
		Today:                  schedule.FormatDate(now),
	}
	if budget.Resolved && budget.Amount > 0 {
		d.Budget = currency.Format(budget.Amount)
	}
	return d
}

func packageBudgetText(b estimate.PackageBudgets) string {
	var parts []string
	for _, t := range []struct {
		name  estimate.TierName
		price int64
	}{
		{estimate.TierBasic, b.Basic},
		{estimate.TierStandard, b.Standard},
		{estimate.TierPremium, b.Premium},
	} {
		if t.price > 0 {
			parts = append(parts, t.name.DisplayName()+" "+currency.Format(t.price))
		}
	}
	return strings.Join(parts, ", ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
