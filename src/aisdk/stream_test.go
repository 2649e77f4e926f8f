package aisdk

import (
	"errors"
	"testing"
)

func TestAggregateStream(t *testing.T) {
	s := NewTextStream("a", "b", "c")
	s.Chunks[2].Choices[0].FinishReason = "stop"
	s.Chunks[2].Usage = &Usage{TotalTokens: 7}

	resp, err := AggregateStream(s)
	if err != nil {
		t.Fatalf("AggregateStream() error = %v", err)
	}
	if got := resp.Text(); got != "abc" {
		t.Errorf("Text() = %q, want %q", got, "abc")
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("TotalTokens = %d, want 7", resp.Usage.TotalTokens)
	}
}

func TestStreamToCallbackPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	s := NewTextStream("a")
	s.Err = boom

	var seen int
	err := StreamToCallback(s, func(chunk *StreamChunk) error {
		seen++
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("StreamToCallback() error = %v, want %v", err, boom)
	}
	if seen != 1 {
		t.Errorf("callback called %d times, want 1", seen)
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name  string
		chunk *StreamChunk
		want  string
	}{
		{"nil", nil, ""},
		{"no choices", &StreamChunk{}, ""},
		{"no delta", &StreamChunk{Choices: []Choice{{}}}, ""},
		{"text", TextChunk("hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerationConfigMerge(t *testing.T) {
	base := DefaultGenerationConfig("m", "sys")
	merged := base.Merge(&GenerateRequest{TopK: Ptr(40), SystemInstruction: "other"})
	if *merged.TopK != 40 {
		t.Errorf("TopK = %d, want 40", *merged.TopK)
	}
	if *base.TopK != DefaultTopK {
		t.Errorf("base TopK mutated to %d", *base.TopK)
	}
	if merged.SystemInstruction != "other" {
		t.Errorf("SystemInstruction = %q", merged.SystemInstruction)
	}
	if *merged.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v", *merged.Temperature)
	}
}
