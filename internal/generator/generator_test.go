package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) New(ctx context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	args := m.Called(ctx, body)
	msg, _ := args.Get(0).(*anthropic.Message)
	return msg, args.Error(1)
}

func reply(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: text}},
	}
}

func newTestGenerator(m *mockMessenger) *Generator {
	return NewWithMessenger(m, Options{Retries: 2, Backoff: time.Millisecond}, nil)
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"code tag", "Here:\n<code>\nfunction draw() {}\n</code>\nEnjoy", "function draw() {}"},
		{"fenced js", "```javascript\nfunction setup() {}\n```", "function setup() {}"},
		{"bare fence", "```\nlet x = 1;\n```", "let x = 1;"},
		{"plain", "  function draw() {}\n", "function draw() {}"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.reply))
		})
	}
}

func TestGenerate(t *testing.T) {
	m := &mockMessenger{}
	m.On("New", mock.Anything, mock.MatchedBy(func(p anthropic.MessageNewParams) bool {
		return p.Model == anthropic.Model("claude-sonnet-4-5") && len(p.Messages) == 1 && len(p.System) == 1
	})).Return(reply("<code>function draw() { background(255, 0, 0); }</code>"), nil).Once()

	code, err := newTestGenerator(m).Generate(context.Background(), "a red screen")
	require.NoError(t, err)
	assert.Equal(t, "function draw() { background(255, 0, 0); }", code)
	m.AssertExpectations(t)
}

func TestGenerateRetries(t *testing.T) {
	m := &mockMessenger{}
	m.On("New", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded")).Twice()
	m.On("New", mock.Anything, mock.Anything).Return(reply("<code>draw()</code>"), nil).Once()

	code, err := newTestGenerator(m).Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "draw()", code)
	m.AssertNumberOfCalls(t, "New", 3)
}

func TestGenerateGivesUp(t *testing.T) {
	m := &mockMessenger{}
	m.On("New", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := newTestGenerator(m).Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate failed after 3 attempts")
	assert.Contains(t, err.Error(), "overloaded")
}

func TestGenerateEmptyReply(t *testing.T) {
	m := &mockMessenger{}
	m.On("New", mock.Anything, mock.Anything).Return(reply("<code>  </code>"), nil)

	_, err := newTestGenerator(m).Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestFixValidatesBeforeCalling(t *testing.T) {
	m := &mockMessenger{}

	_, err := newTestGenerator(m).Fix(context.Background(), "", "boom")
	assert.Error(t, err)
	m.AssertNotCalled(t, "New", mock.Anything, mock.Anything)
}

func TestFixSendsErrorMessage(t *testing.T) {
	m := &mockMessenger{}
	m.On("New", mock.Anything, mock.Anything).Return(reply("<code>fixed()</code>"), nil)

	code, err := newTestGenerator(m).Fix(context.Background(), "draw(", "Unexpected end of input")
	require.NoError(t, err)
	assert.Equal(t, "fixed()", code)

	sent := m.Calls[0].Arguments.Get(1).(anthropic.MessageNewParams)
	assert.Contains(t, fixPrompt("draw(", "Unexpected end of input"), "Unexpected end of input")
	assert.Len(t, sent.Messages, 1)
}

func TestCanceledContextStopsRetries(t *testing.T) {
	m := &mockMessenger{}
	ctx, cancel := context.WithCancel(context.Background())
	m.On("New", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, errors.New("canceled"))

	_, err := newTestGenerator(m).Generate(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
	m.AssertNumberOfCalls(t, "New", 1)
}
