package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/analytics"
	"github.com/GriffinCanCode/sketchbox/internal/history"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/id"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
)

// GaveUpMessage is shown when no fix produced a working program.
const GaveUpMessage = "We tried multiple times but couldn't generate your animation. Please try again with a different description."

// ErrFeedEmpty is returned when the feed has nothing to show.
var ErrFeedEmpty = errors.New("no animations in the feed yet")

// GaveUpError is returned once every fix attempt failed.
type GaveUpError struct {
	Attempts  int
	LastError string
	Code      string
}

func (e *GaveUpError) Error() string { return GaveUpMessage }

// Coder writes and repairs programs.
type Coder interface {
	Generate(ctx context.Context, description string) (string, error)
	Fix(ctx context.Context, brokenCode, message string) (string, error)
}

// Library stores and serves shared programs.
type Library interface {
	Save(ctx context.Context, code, description string) (string, error)
	Get(ctx context.Context, id string) (*types.Animation, error)
	Feed(ctx context.Context) (*types.Animation, error)
	SaveMood(ctx context.Context, animationID string, mood types.Mood) (bool, error)
}

// Previewer runs a program headlessly.
type Previewer interface {
	Run(ctx context.Context, req preview.Request) (*preview.Result, error)
}

// Journal records runs locally.
type Journal interface {
	Record(ctx context.Context, e *history.Entry) error
	SetRemoteID(ctx context.Context, runID id.HistoryID, remoteID string) error
}

// Events receives analytics events.
type Events interface {
	Track(name string, metadata map[string]any)
}

// Options configures a Studio.
type Options struct {
	FixAttempts int
	Frames      int
}

// Studio ties generation, preview, fixing and sharing together.
type Studio struct {
	coder     Coder
	library   Library
	previewer Previewer
	journal   Journal
	events    Events
	tracer    *tracing.Tracer
	log       *logging.Logger
	opts      Options
	policy    *bluemonday.Policy
}

// Option configures optional collaborators.
type Option func(*Studio)

// WithJournal records every run.
func WithJournal(j Journal) Option {
	return func(s *Studio) { s.journal = j }
}

// WithEvents sends analytics events.
func WithEvents(e Events) Option {
	return func(s *Studio) { s.events = e }
}

// WithTracer wraps operations in spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Studio) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Studio) { s.log = logging.OrNop(l) }
}

// New creates a Studio.
func New(coder Coder, library Library, previewer Previewer, opts Options, options ...Option) *Studio {
	if opts.FixAttempts < 0 {
		opts.FixAttempts = 0
	}
	s := &Studio{
		coder:     coder,
		library:   library,
		previewer: previewer,
		log:       logging.OrNop(nil),
		opts:      opts,
		policy:    bluemonday.StrictPolicy(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Creation is a program that ran, possibly after fixes.
type Creation struct {
	Description string
	Code        string
	Fixes       int
	Result      *preview.Result
	HistoryID   id.HistoryID
}

// Create generates a program for description, previews it and asks for fixes
// while it fails, up to FixAttempts times. Failures of the generate call
// itself are returned as is.
func (s *Studio) Create(ctx context.Context, description string) (*Creation, error) {
	description = s.CleanDescription(description)
	if err := utils.ValidateDescription(description); err != nil {
		return nil, err
	}

	var out *Creation
	err := s.tracer.Trace(ctx, "studio.create", func(ctx context.Context) error {
		s.track(analytics.AnimationCreateAttempt, map[string]any{"prompt": description})

		code, err := s.coder.Generate(ctx, description)
		if err != nil {
			s.track(analytics.AnimationCreationError, map[string]any{"prompt": description, "error": err.Error()})
			return err
		}
		s.track(analytics.AnimationCreated, map[string]any{"prompt": description, "success": true})

		out, err = s.converge(ctx, description, code)
		return err
	})
	return out, err
}

func (s *Studio) converge(ctx context.Context, description, code string) (*Creation, error) {
	c := &Creation{Description: description, Code: code}
	for {
		res, err := s.preview(ctx, code)
		if err != nil {
			return nil, err
		}
		c.Code, c.Result = code, res
		c.HistoryID = s.record(ctx, description, code, res, c.Fixes)

		if res.Outcome == sandbox.OutcomeLive {
			if c.Fixes > 0 {
				s.track(analytics.AnimationFixed, map[string]any{"prompt": description, "attempts": c.Fixes})
			}
			return c, nil
		}

		message := firstError(res)
		fixed, ok, err := s.fix(ctx, c, code, message)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.track(analytics.AnimationFixFailed, map[string]any{"prompt": description, "attempts": c.Fixes})
			s.log.Warn("Giving up on animation",
				zap.Int("attempts", c.Fixes), zap.String("last_error", message))
			return c, &GaveUpError{Attempts: c.Fixes, LastError: message, Code: code}
		}
		code = fixed
	}
}

// fix asks the coder for a repair of code until one comes back or the
// attempts run out. A failed call counts as an attempt. The bool is false
// when no repair was produced; the error is only ever the context error.
func (s *Studio) fix(ctx context.Context, c *Creation, code, message string) (string, bool, error) {
	for c.Fixes < s.opts.FixAttempts {
		c.Fixes++
		fixed, err := s.coder.Fix(ctx, code, message)
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if err == nil {
			return fixed, true, nil
		}
		s.log.Warn("Fix attempt failed", zap.Int("attempt", c.Fixes), zap.Error(err))
	}
	return "", false, nil
}

// Run previews code without generating anything.
func (s *Studio) Run(ctx context.Context, description, code string) (*Creation, error) {
	res, err := s.preview(ctx, code)
	if err != nil {
		return nil, err
	}
	return &Creation{
		Description: description,
		Code:        code,
		Result:      res,
		HistoryID:   s.record(ctx, description, code, res, 0),
	}, nil
}

// Share saves a program and returns its permalink id. A non-empty runID
// links the local run to it.
func (s *Studio) Share(ctx context.Context, code, description string, runID id.HistoryID) (string, error) {
	s.track(analytics.AnimationShareAttempt, nil)
	if err := utils.ValidateSource(code); err != nil {
		s.track(analytics.AnimationShareError, map[string]any{"error": err.Error()})
		return "", err
	}

	animationID, err := s.library.Save(ctx, code, s.CleanDescription(description))
	if err != nil {
		s.track(analytics.AnimationShareError, map[string]any{"error": err.Error()})
		return "", err
	}
	s.track(analytics.AnimationShared, map[string]any{"animationId": animationID})

	if runID != "" && s.journal != nil {
		if err := s.journal.SetRemoteID(ctx, runID, animationID); err != nil {
			s.log.Warn("Failed to link run to shared animation", zap.String("run_id", string(runID)), zap.Error(err))
		}
	}
	return animationID, nil
}

// Open loads a shared program by id and previews it.
func (s *Studio) Open(ctx context.Context, animationID string) (*types.Animation, *preview.Result, error) {
	if err := utils.ValidateID(animationID); err != nil {
		return nil, nil, err
	}
	anim, err := s.library.Get(ctx, animationID)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.show(ctx, anim)
	if err != nil {
		return nil, nil, err
	}
	s.track(analytics.AnimationLoaded, map[string]any{"animationId": anim.ID, "outcome": res.Outcome})
	return anim, res, nil
}

// Feed loads a random shared program and previews it.
func (s *Studio) Feed(ctx context.Context) (*types.Animation, *preview.Result, error) {
	s.track(analytics.FeedPageVisit, nil)

	anim, err := s.library.Feed(ctx)
	if err == nil && anim == nil {
		err = ErrFeedEmpty
	}
	if err != nil {
		s.track(analytics.FeedLoadError, map[string]any{"error": err.Error()})
		return nil, nil, err
	}
	s.track(analytics.RandomAnimationLoaded, map[string]any{"animationId": anim.ID})

	res, err := s.show(ctx, anim)
	if err != nil {
		return nil, nil, err
	}
	return anim, res, nil
}

// Mood records how a program made the viewer feel.
func (s *Studio) Mood(ctx context.Context, animationID, mood string) error {
	m, err := types.ParseMood(mood)
	if err != nil {
		return err
	}
	if err := utils.ValidateID(animationID); err != nil {
		return err
	}
	ok, err := s.library.SaveMood(ctx, animationID, m)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mood for %s was not accepted", animationID)
	}
	s.track(analytics.MoodSubmitted, map[string]any{"animationId": animationID, "mood": string(m)})
	return nil
}

// CleanDescription strips markup and surrounding whitespace.
func (s *Studio) CleanDescription(description string) string {
	return strings.TrimSpace(s.policy.Sanitize(description))
}

func (s *Studio) show(ctx context.Context, anim *types.Animation) (*preview.Result, error) {
	res, err := s.preview(ctx, anim.Code)
	if err != nil {
		return nil, err
	}
	if h := s.record(ctx, anim.Description, anim.Code, res, 0); h != "" && s.journal != nil {
		_ = s.journal.SetRemoteID(ctx, h, anim.ID)
	}
	return res, nil
}

func (s *Studio) preview(ctx context.Context, code string) (*preview.Result, error) {
	if err := utils.ValidateSource(code); err != nil {
		return nil, err
	}
	return s.previewer.Run(ctx, preview.Request{Source: code, Frames: s.opts.Frames})
}

func (s *Studio) record(ctx context.Context, description, code string, res *preview.Result, fixes int) id.HistoryID {
	if s.journal == nil {
		return ""
	}
	e := &history.Entry{
		Kind:        res.Kind,
		Description: description,
		Source:      code,
		Outcome:     res.Outcome,
		Errors:      res.Errors,
		FrameErrors: countFrameErrors(res.Errors),
		FixAttempts: fixes,
		Stats: map[string]float64{
			"frames":        float64(res.Frames),
			"frame_mean_ms": res.FrameTime.Mean,
			"frame_p95_ms":  res.FrameTime.P95,
		},
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn("Failed to record run", zap.Error(err))
		return ""
	}
	return e.ID
}

func (s *Studio) track(name string, metadata map[string]any) {
	if s.events != nil {
		s.events.Track(name, metadata)
	}
}

func firstError(res *preview.Result) string {
	if len(res.Errors) == 0 {
		return "Unknown error"
	}
	return res.Errors[0]
}

func countFrameErrors(errs []string) int {
	n := 0
	for _, e := range errs {
		if strings.HasPrefix(e, "Error in animation frame ") {
			n++
		}
	}
	return n
}
