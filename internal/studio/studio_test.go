package studio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sketchbox/internal/analytics"
	"github.com/GriffinCanCode/sketchbox/internal/client"
	"github.com/GriffinCanCode/sketchbox/internal/history"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/shared/types"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
)

type mockCoder struct{ mock.Mock }

func (m *mockCoder) Generate(ctx context.Context, description string) (string, error) {
	args := m.Called(ctx, description)
	return args.String(0), args.Error(1)
}

func (m *mockCoder) Fix(ctx context.Context, brokenCode, message string) (string, error) {
	args := m.Called(ctx, brokenCode, message)
	return args.String(0), args.Error(1)
}

type mockLibrary struct{ mock.Mock }

func (m *mockLibrary) Save(ctx context.Context, code, description string) (string, error) {
	args := m.Called(ctx, code, description)
	return args.String(0), args.Error(1)
}

func (m *mockLibrary) Get(ctx context.Context, id string) (*types.Animation, error) {
	args := m.Called(ctx, id)
	anim, _ := args.Get(0).(*types.Animation)
	return anim, args.Error(1)
}

func (m *mockLibrary) Feed(ctx context.Context) (*types.Animation, error) {
	args := m.Called(ctx)
	anim, _ := args.Get(0).(*types.Animation)
	return anim, args.Error(1)
}

func (m *mockLibrary) SaveMood(ctx context.Context, animationID string, mood types.Mood) (bool, error) {
	args := m.Called(ctx, animationID, mood)
	return args.Bool(0), args.Error(1)
}

// recorder collects events synchronously.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Track(name string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

const (
	working = `function setup(){ createCanvas(50, 50) } function draw(){ background(0); rect(1, 1, 5, 5) }`
	broken  = `function setup(){ createCanvas(50, 50) } function draw(){ missing() }`
)

func newHarness() *preview.Harness {
	return preview.NewHarness(preview.Config{ExecTimeout: 500 * time.Millisecond, Seed: 1}, nil, nil)
}

func newJournal(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newStudio(t *testing.T, coder Coder, lib Library, fixes int) (*Studio, *recorder, *history.Store) {
	t.Helper()
	events := &recorder{}
	journal := newJournal(t)
	s := New(coder, lib, newHarness(), Options{FixAttempts: fixes, Frames: 30},
		WithEvents(events), WithJournal(journal))
	return s, events, journal
}

func TestCreateWorksFirstTime(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "red square").Return(working, nil)

	s, events, journal := newStudio(t, coder, &mockLibrary{}, 3)
	c, err := s.Create(context.Background(), "  <b>red</b> square ")
	require.NoError(t, err)

	assert.Equal(t, "red square", c.Description)
	assert.Equal(t, working, c.Code)
	assert.Zero(t, c.Fixes)
	assert.Equal(t, sandbox.OutcomeLive, c.Result.Outcome)
	assert.Equal(t, []string{analytics.AnimationCreateAttempt, analytics.AnimationCreated}, events.names())
	coder.AssertNotCalled(t, "Fix", mock.Anything, mock.Anything, mock.Anything)

	entry, err := journal.Get(context.Background(), string(c.HistoryID))
	require.NoError(t, err)
	assert.Equal(t, "live", entry.Outcome)
	assert.Equal(t, "sketch", entry.Kind)
}

func TestCreateFixesBrokenProgram(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return(broken, nil)
	coder.On("Fix", mock.Anything, broken, mock.MatchedBy(func(msg string) bool {
		return strings.HasPrefix(msg, "Error in animation frame")
	})).Return(working, nil).Once()

	s, events, journal := newStudio(t, coder, &mockLibrary{}, 3)
	c, err := s.Create(context.Background(), "ball")
	require.NoError(t, err)

	assert.Equal(t, 1, c.Fixes)
	assert.Equal(t, working, c.Code)
	assert.Contains(t, events.names(), analytics.AnimationFixed)
	coder.AssertExpectations(t)

	runs, err := journal.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "live", runs[0].Outcome)
	assert.Equal(t, 1, runs[0].FixAttempts)
	assert.Equal(t, "error", runs[1].Outcome)
	assert.Positive(t, runs[1].FrameErrors)
}

func TestCreateGivesUp(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return(broken, nil)
	coder.On("Fix", mock.Anything, broken, mock.Anything).Return(broken, nil).Times(2)
	coder.On("Fix", mock.Anything, broken, mock.Anything).Return("", errors.New("fix service down")).Once()

	s, events, _ := newStudio(t, coder, &mockLibrary{}, 3)
	c, err := s.Create(context.Background(), "ball")

	var gaveUp *GaveUpError
	require.ErrorAs(t, err, &gaveUp)
	assert.Equal(t, GaveUpMessage, err.Error())
	assert.Equal(t, 3, gaveUp.Attempts)
	assert.Contains(t, gaveUp.LastError, "Error in animation frame")
	require.NotNil(t, c)
	assert.Equal(t, sandbox.OutcomeError, c.Result.Outcome)
	assert.Equal(t, analytics.AnimationFixFailed, events.names()[len(events.names())-1])
	coder.AssertNumberOfCalls(t, "Fix", 3)
}

func TestCreateRetriesFailedFixWithoutRerunning(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return(broken, nil)
	coder.On("Fix", mock.Anything, broken, mock.Anything).Return("", errors.New("fix service down")).Once()
	coder.On("Fix", mock.Anything, broken, mock.Anything).Return(working, nil).Once()

	s, _, journal := newStudio(t, coder, &mockLibrary{}, 3)
	c, err := s.Create(context.Background(), "ball")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Fixes)
	assert.Equal(t, sandbox.OutcomeLive, c.Result.Outcome)
	coder.AssertNumberOfCalls(t, "Fix", 2)

	runs, err := journal.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "live", runs[0].Outcome)
	assert.Equal(t, 2, runs[0].FixAttempts)
	assert.Equal(t, "error", runs[1].Outcome)
	assert.Zero(t, runs[1].FixAttempts)
}

func TestCreateGivesUpWhenEveryFixFails(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return(broken, nil)
	coder.On("Fix", mock.Anything, broken, mock.Anything).Return("", errors.New("fix service down"))

	s, _, journal := newStudio(t, coder, &mockLibrary{}, 3)
	_, err := s.Create(context.Background(), "ball")

	var gaveUp *GaveUpError
	require.ErrorAs(t, err, &gaveUp)
	assert.Equal(t, 3, gaveUp.Attempts)
	coder.AssertNumberOfCalls(t, "Fix", 3)

	runs, err := journal.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCreateZeroFixAttempts(t *testing.T) {
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return(broken, nil)

	s, _, _ := newStudio(t, coder, &mockLibrary{}, 0)
	_, err := s.Create(context.Background(), "ball")

	var gaveUp *GaveUpError
	require.ErrorAs(t, err, &gaveUp)
	assert.Zero(t, gaveUp.Attempts)
	coder.AssertNotCalled(t, "Fix", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateSurfacesGenerateFailure(t *testing.T) {
	failure := &client.RequestFailure{Op: "generate", Status: 500}
	coder := &mockCoder{}
	coder.On("Generate", mock.Anything, "ball").Return("", failure)

	s, events, _ := newStudio(t, coder, &mockLibrary{}, 3)
	_, err := s.Create(context.Background(), "ball")

	assert.ErrorIs(t, err, client.ErrRequestFailed)
	assert.Equal(t, "API request failed with status 500", err.Error())
	assert.Equal(t, []string{analytics.AnimationCreateAttempt, analytics.AnimationCreationError}, events.names())
}

func TestCreateValidatesDescription(t *testing.T) {
	s, _, _ := newStudio(t, &mockCoder{}, &mockLibrary{}, 3)
	_, err := s.Create(context.Background(), "<script></script>   ")

	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
}

func TestShare(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("Save", mock.Anything, working, "squares").Return("anim-1", nil)

	s, events, journal := newStudio(t, &mockCoder{}, lib, 3)
	ctx := context.Background()
	c, err := s.Run(ctx, "squares", working)
	require.NoError(t, err)

	animationID, err := s.Share(ctx, working, "squares", c.HistoryID)
	require.NoError(t, err)
	assert.Equal(t, "anim-1", animationID)
	assert.Equal(t, []string{analytics.AnimationShareAttempt, analytics.AnimationShared}, events.names())

	entry, err := journal.Get(ctx, string(c.HistoryID))
	require.NoError(t, err)
	assert.Equal(t, "anim-1", entry.RemoteID)
}

func TestShareError(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("Save", mock.Anything, working, "").Return("", &client.RequestFailure{Op: "save", Status: 502})

	s, events, _ := newStudio(t, &mockCoder{}, lib, 3)
	_, err := s.Share(context.Background(), working, "", "")
	assert.ErrorIs(t, err, client.ErrRequestFailed)
	assert.Equal(t, []string{analytics.AnimationShareAttempt, analytics.AnimationShareError}, events.names())

	_, err = s.Share(context.Background(), "   ", "", "")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("Get", mock.Anything, "anim-7").Return(&types.Animation{ID: "anim-7", Code: working, Description: "d"}, nil)
	lib.On("Get", mock.Anything, "gone").Return(nil, &client.RequestFailure{Op: "get", Status: 404})

	s, events, journal := newStudio(t, &mockCoder{}, lib, 3)
	ctx := context.Background()

	anim, res, err := s.Open(ctx, "anim-7")
	require.NoError(t, err)
	assert.Equal(t, "d", anim.Description)
	assert.Equal(t, sandbox.OutcomeLive, res.Outcome)
	assert.Equal(t, []string{analytics.AnimationLoaded}, events.names())

	runs, err := journal.List(ctx, history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "anim-7", runs[0].RemoteID)

	_, _, err = s.Open(ctx, "gone")
	assert.Equal(t, 404, client.StatusOf(err))

	_, _, err = s.Open(ctx, "../etc")
	assert.Error(t, err)
}

func TestFeed(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("Feed", mock.Anything).Return(&types.Animation{ID: "r1", Code: working}, nil).Once()
	lib.On("Feed", mock.Anything).Return(nil, nil).Once()

	s, events, _ := newStudio(t, &mockCoder{}, lib, 3)
	ctx := context.Background()

	anim, res, err := s.Feed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", anim.ID)
	assert.Equal(t, sandbox.OutcomeLive, res.Outcome)

	_, _, err = s.Feed(ctx)
	assert.ErrorIs(t, err, ErrFeedEmpty)

	assert.Equal(t, []string{
		analytics.FeedPageVisit, analytics.RandomAnimationLoaded,
		analytics.FeedPageVisit, analytics.FeedLoadError,
	}, events.names())
}

func TestMood(t *testing.T) {
	lib := &mockLibrary{}
	lib.On("SaveMood", mock.Anything, "a1", types.MoodCalm).Return(true, nil)
	lib.On("SaveMood", mock.Anything, "a2", types.MoodSad).Return(false, nil)

	s, events, _ := newStudio(t, &mockCoder{}, lib, 3)
	ctx := context.Background()

	require.NoError(t, s.Mood(ctx, "a1", "calm"))
	assert.ErrorContains(t, s.Mood(ctx, "a2", "sad"), "not accepted")
	assert.ErrorContains(t, s.Mood(ctx, "a1", "furious"), "unknown mood")
	assert.Equal(t, []string{analytics.MoodSubmitted}, events.names())
}
