//go:build integration

package integration

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/helix/internal/config"
	"github.com/agenthands/helix/internal/core"
	"github.com/agenthands/helix/internal/core/embedding"
	"github.com/agenthands/helix/internal/core/extraction"
	"github.com/agenthands/helix/internal/core/mapping"
	"github.com/agenthands/helix/internal/llm"
	"github.com/agenthands/helix/internal/query"
)

// TestExtractionFullFlow runs raw text through a live model and into a
// live store. Model output varies, so assertions stay loose.
func TestExtractionFullFlow(t *testing.T) {
	d := setupDriver(t)
	if os.Getenv("LLM_PROVIDER") == "" {
		t.Skip("skipping extraction test: LLM_PROVIDER not set")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)

	ctx := context.Background()
	logger := log.New(io.Discard)

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)
	extractor, err := extraction.NewExtractor(llmClient, cfg.Extraction.MaxTokens, cfg.Extraction.Prompt)
	require.NoError(t, err)

	importer := core.NewImporter(d, mapping.NewMapper(mapping.ModeCreate), 0, logger)
	pipe := core.NewPipeline(d, extractor, importer, true, logger)

	unique := uuid.New().String()[:8]
	sourceID := "it-llm-" + unique
	text := `Mr. Arno Feld, a married patient, attended a checkup on June 3, 2025
starting at 10:00 and ending at 10:20 (UTC). The visit was conducted by
Dr. Lena Brook at the clinic located at 12 Harbor Way, Boston, MA 02110 US.
His allergy to penicillin was confirmed during the visit.`

	rec, res, err := pipe.ProcessText(ctx, sourceID, text)
	require.NoError(t, err)
	defer cleanupRecord(t, d, sourceID)

	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.Patient.Name)
	require.NotNil(t, res)
	assert.Greater(t, res.Nodes, 0)

	trees, err := query.NewLibrary(d, embedder, logger).PatientByName(ctx, rec.Patient.Name)
	require.NoError(t, err)
	assert.NotEmpty(t, trees)

	if embedder == nil {
		t.Logf("provider %s cannot embed, skipping backfill check", cfg.LLM.Provider)
		return
	}
	n, err := embedding.NewBackfiller(d, embedder, cfg.LLM.EmbeddingModel, logger).Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}
