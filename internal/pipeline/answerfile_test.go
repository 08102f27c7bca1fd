// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestAnswerFileRoundTrip(t *testing.T) {
	st := types.NewPipelineState("test query", nil)
	st.Results = []types.SearchResult{{Title: "r", URL: "https://a.example"}}
	st.FinalPayload = &types.Payload{
		Question: "test query",
		Overview: "the overview",
		Topics:   []types.Topic{{Title: "t", Content: "c"}},
		Sources:  []types.Citation{{ID: 1, Title: "s", URL: "https://a.example"}},
	}

	path := filepath.Join(t.TempDir(), "answer.yaml")
	require.NoError(t, WriteAnswerFile(path, st))

	af, err := ReadAnswerFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test query", af.Query)
	assert.Equal(t, "the overview", af.Payload.Overview)
	assert.Equal(t, 1, af.Summary.Results)
	assert.Equal(t, 1, af.Summary.Topics)
	assert.Equal(t, 1, af.Summary.Sources)
	assert.False(t, af.Summary.Timestamp.IsZero())
}

func TestWriteAnswerFileRequiresPayload(t *testing.T) {
	st := types.NewPipelineState("q", nil)
	err := WriteAnswerFile(filepath.Join(t.TempDir(), "x.yaml"), st)
	assert.Error(t, err)
}

func TestReadAnswerFileErrors(t *testing.T) {
	_, err := ReadAnswerFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("::: not yaml {"), 0o644))
	_, err = ReadAnswerFile(bad)
	assert.Error(t, err)
}
