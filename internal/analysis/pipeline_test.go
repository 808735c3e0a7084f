package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/imagedata"
	"github.com/raine/skybet/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type analyzerMock struct {
	mock.Mock
}

func (m *analyzerMock) AnalyzeRounds(ctx context.Context, req llm.RoundsRequest) (*llm.RoundAnalysis, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*llm.RoundAnalysis)
	return result, args.Error(1)
}

func (m *analyzerMock) AnalyzeFairness(ctx context.Context, req llm.FairnessRequest) (*llm.FairnessSignal, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*llm.FairnessSignal)
	return result, args.Error(1)
}

var screenshot = imagedata.Image{Data: []byte("png"), MIMEType: "image/png"}

func withoutHistory(req llm.RoundsRequest) bool { return req.History == "" }

func TestPipeline_Rounds(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore("1.23", "4.5")
	ledger := history.NewLedger(store, "")
	analyzer := new(analyzerMock)

	analyzer.On("AnalyzeRounds", mock.Anything, mock.MatchedBy(withoutHistory)).
		Return(&llm.RoundAnalysis{ExtractedData: "Round History: 2.00x, 1.23x", Usage: llm.Usage{TotalTokens: 10}}, nil).Once()
	analyzer.On("AnalyzeRounds", mock.Anything, mock.MatchedBy(func(req llm.RoundsRequest) bool {
		return req.History == "Historical Data: 1.23x, 4.5x, 2.00x"
	})).Return(&llm.RoundAnalysis{ID: "final", Analysis: "done", Usage: llm.Usage{TotalTokens: 20}}, nil).Once()

	result, err := NewPipeline(analyzer, ledger).Rounds(ctx, Input{Images: []imagedata.Image{screenshot}})
	require.NoError(t, err)

	assert.Equal(t, "final", result.ID)
	assert.Equal(t, []string{"1.23", "4.5", "2.00"}, result.History)
	assert.Equal(t, "Round History: 2.00x, 1.23x", result.ExtractedData)
	assert.Equal(t, int64(30), result.Usage.TotalTokens)

	persisted, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.23", "4.5", "2.00"}, persisted)
	analyzer.AssertExpectations(t)
}

func TestPipeline_Rounds_EmptyHistoryNotInjected(t *testing.T) {
	ledger := history.NewLedger(history.NewMemoryStore(), "")
	analyzer := new(analyzerMock)
	analyzer.On("AnalyzeRounds", mock.Anything, mock.MatchedBy(withoutHistory)).
		Return(&llm.RoundAnalysis{ExtractedData: "no multipliers here"}, nil).Twice()

	result, err := NewPipeline(analyzer, ledger).Rounds(context.Background(), Input{Text: "just text"})
	require.NoError(t, err)
	assert.Empty(t, result.History)
	analyzer.AssertExpectations(t)
}

func TestPipeline_Rounds_NoInput(t *testing.T) {
	analyzer := new(analyzerMock)
	p := NewPipeline(analyzer, history.NewLedger(history.NewMemoryStore(), ""))

	_, err := p.Rounds(context.Background(), Input{Text: "   "})
	assert.ErrorIs(t, err, ErrNoInput)
	_, err = p.Fairness(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrNoInput)
	analyzer.AssertNotCalled(t, "AnalyzeRounds", mock.Anything, mock.Anything)
	analyzer.AssertNotCalled(t, "AnalyzeFairness", mock.Anything, mock.Anything)
}

func TestPipeline_Rounds_PreliminaryFailure(t *testing.T) {
	store := history.NewMemoryStore()
	analyzer := new(analyzerMock)
	analyzer.On("AnalyzeRounds", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	result, err := NewPipeline(analyzer, history.NewLedger(store, "")).
		Rounds(context.Background(), Input{Images: []imagedata.Image{screenshot}})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Zero(t, store.Writes())
}

func TestPipeline_Rounds_SecondCallFailure(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	analyzer := new(analyzerMock)
	analyzer.On("AnalyzeRounds", mock.Anything, mock.MatchedBy(withoutHistory)).
		Return(&llm.RoundAnalysis{ExtractedData: "3.3x"}, nil).Once()
	analyzer.On("AnalyzeRounds", mock.Anything, mock.Anything).
		Return(nil, errors.New("schema mismatch")).Once()

	result, err := NewPipeline(analyzer, history.NewLedger(store, "")).
		Rounds(ctx, Input{Images: []imagedata.Image{screenshot}})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	// The merge happened before the second call and is kept.
	persisted, _ := store.Read(ctx)
	assert.Equal(t, []string{"3.3"}, persisted)
}

func TestPipeline_Fairness(t *testing.T) {
	analyzer := new(analyzerMock)
	analyzer.On("AnalyzeFairness", mock.Anything, llm.FairnessRequest{Images: []imagedata.Image{screenshot}, Text: "seed"}).
		Return(&llm.FairnessSignal{ID: "sig", RiskLevel: "High"}, nil).Once()

	p := NewPipeline(analyzer, history.NewLedger(history.NewMemoryStore(), ""))
	signal, err := p.Fairness(context.Background(), Input{Images: []imagedata.Image{screenshot}, Text: " seed "})
	require.NoError(t, err)
	assert.Equal(t, "sig", signal.ID)

	analyzer.On("AnalyzeFairness", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	_, err = p.Fairness(context.Background(), Input{Text: "other"})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}
