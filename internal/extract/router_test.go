package extract_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"leadscan/internal/domain"
	"leadscan/internal/extract"
	"leadscan/internal/port"
	"leadscan/mocks"
)

func providerOutput(fields string) *port.ExtractOutput {
	return &port.ExtractOutput{
		Fields:    json.RawMessage(fields),
		RawText:   "ACME CORP\nJane Doe",
		ModelUsed: "test-model",
	}
}

func textInput(text string) extract.Input {
	return extract.Input{Text: text, Mode: domain.MethodText}
}

func TestRouter_FirstSucceeds(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"Jane","company":"Acme"}`), nil)

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})
	out := r.Run(context.Background(), textInput("JANE DOE\nACME"))

	assert.True(t, out.OK)
	assert.NoError(t, out.Err)
	assert.Equal(t, "Jane", out.Record.FirstName)
	assert.Equal(t, "Acme", out.Record.Company)
	assert.Equal(t, domain.MethodText, out.Method)
	assert.Equal(t, "test-model", out.ModelUsed)
	p2.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestRouter_FirstFails_SecondSucceeds(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 500"))
	p2.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"Jane"}`), nil)

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})
	out := r.Run(context.Background(), textInput("JANE DOE"))

	assert.True(t, out.OK)
	assert.Equal(t, "Jane", out.Record.FirstName)
}

func TestRouter_EmptyResultIsFailure(t *testing.T) {
	p1 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{}`), nil)

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.Run(context.Background(), textInput("gibberish"))

	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, domain.ErrExtractionEmpty)
	assert.True(t, out.Record.IsEmpty())
}

func TestRouter_EmptyThenPopulated(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"  "}`), nil)
	p2.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"Jane"}`), nil)

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})
	out := r.Run(context.Background(), textInput("JANE DOE"))

	assert.True(t, out.OK)
	assert.Equal(t, "Jane", out.Record.FirstName)
}

func TestRouter_MalformedJSONFallsThrough(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`not json at all`), nil)
	p2.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"Jane"}`), nil)

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})
	out := r.Run(context.Background(), textInput("JANE DOE"))

	assert.True(t, out.OK)
	assert.Equal(t, "Jane", out.Record.FirstName)
}

func TestRouter_AllFail(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 500"))
	p2.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})
	out := r.Run(context.Background(), textInput("JANE DOE"))

	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, domain.ErrAllProvidersFailed)
}

func TestRouter_NoProviders(t *testing.T) {
	r := extract.NewRouter(nil, nil)
	out := r.Run(context.Background(), textInput("JANE DOE"))

	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, domain.ErrProviderUnavailable)
}

func TestRouter_RateLimitOpensCircuit(t *testing.T) {
	p1 := new(mocks.MockProvider)
	p2 := new(mocks.MockProvider)

	rlErr := extract.NewRateLimitError("openai", errors.New("429"), 60)
	p1.On("Extract", mock.Anything, mock.Anything).Return(nil, rlErr)
	p2.On("Extract", mock.Anything, mock.Anything).Return(providerOutput(`{"firstName":"Jane"}`), nil)

	r := extract.NewRouter([]port.Provider{p1, p2}, []string{"openai", "gemini"})

	out := r.Run(context.Background(), textInput("JANE DOE"))
	assert.True(t, out.OK)

	// Second run inside the backoff window skips the rate-limited provider.
	out = r.Run(context.Background(), textInput("JANE DOE"))
	assert.True(t, out.OK)
	p1.AssertNumberOfCalls(t, "Extract", 1)
	p2.AssertNumberOfCalls(t, "Extract", 2)
}

func TestRouter_AllRateLimited(t *testing.T) {
	p1 := new(mocks.MockProvider)

	rlErr := extract.NewRateLimitError("openai", errors.New("429"), 60)
	p1.On("Extract", mock.Anything, mock.Anything).Return(nil, rlErr)

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})

	out := r.Run(context.Background(), textInput("JANE DOE"))
	assert.ErrorIs(t, out.Err, domain.ErrAllProvidersFailed)

	// Circuit open, nothing attempted.
	out = r.Run(context.Background(), textInput("JANE DOE"))
	assert.ErrorIs(t, out.Err, domain.ErrAllProvidersFailed)
	p1.AssertNumberOfCalls(t, "Extract", 1)
}

func TestRouter_VisionSpoolsAndCleansUpTempImage(t *testing.T) {
	p1 := new(mocks.MockProvider)

	var seenPath string
	p1.On("Extract", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(port.ExtractInput)
		seenPath = in.ImagePath
	}).Return(providerOutput(`{"firstName":"Jane"}`), nil)

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.Run(context.Background(), extract.Input{
		ImageBytes:  []byte("fake-jpeg-bytes"),
		ContentType: "image/jpeg",
		Mode:        domain.MethodVision,
	})

	require.True(t, out.OK)
	require.NotEmpty(t, seenPath)

	content, err := os.ReadFile(seenPath)
	assert.Error(t, err, "temp image should be removed after the run")
	assert.Nil(t, content)
}

func TestRouter_VisionEmptyImage(t *testing.T) {
	p1 := new(mocks.MockProvider)

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.Run(context.Background(), extract.Input{Mode: domain.MethodVision})

	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, domain.ErrInvalidInput)
	p1.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestRouter_RunImages_MergesResults(t *testing.T) {
	p1 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).
		Return(providerOutput(`{"firstName":"Jane","phoneNumbers":["555-1234"]}`), nil).Once()
	p1.On("Extract", mock.Anything, mock.Anything).
		Return(providerOutput(`{"company":"Acme","phoneNumbers":["555-5678"]}`), nil).Once()

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.RunImages(context.Background(), []extract.Input{
		{ImageBytes: []byte("front"), ContentType: "image/jpeg", Mode: domain.MethodVision},
		{ImageBytes: []byte("back"), ContentType: "image/jpeg", Mode: domain.MethodVision},
	})

	assert.True(t, out.OK)
	assert.Equal(t, "Jane", out.Record.FirstName)
	assert.Equal(t, "Acme", out.Record.Company)
	assert.Equal(t, []string{"5551234", "5555678"}, out.Record.PhoneNumbers)
	assert.Equal(t, "test-model", out.ModelUsed)
}

func TestRouter_RunImages_PartialFailureStillSucceeds(t *testing.T) {
	p1 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream 500")).Once()
	p1.On("Extract", mock.Anything, mock.Anything).
		Return(providerOutput(`{"firstName":"Jane"}`), nil).Once()

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.RunImages(context.Background(), []extract.Input{
		{ImageBytes: []byte("front"), ContentType: "image/jpeg", Mode: domain.MethodVision},
		{ImageBytes: []byte("back"), ContentType: "image/jpeg", Mode: domain.MethodVision},
	})

	assert.True(t, out.OK)
	assert.Equal(t, "Jane", out.Record.FirstName)
}

func TestRouter_RunImages_AllFail(t *testing.T) {
	p1 := new(mocks.MockProvider)

	p1.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("upstream 500"))

	r := extract.NewRouter([]port.Provider{p1}, []string{"openai"})
	out := r.RunImages(context.Background(), []extract.Input{
		{ImageBytes: []byte("front"), ContentType: "image/jpeg", Mode: domain.MethodVision},
	})

	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, domain.ErrAllProvidersFailed)
}
