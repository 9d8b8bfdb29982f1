package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
)

var lele = dataset.Segment{SpeciesGroup: "Ikan Lele", Region: "Bandung"}

func writeArtifact(t *testing.T, dir string, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestStoreLoadAndCache(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "prophet_model_Ikan_Lele_Bandung.json", flatArtifact())

	store := NewStore(dir, "", 0, zaptest.NewLogger(t))
	assert.Equal(t, filepath.Join(dir, "prophet_model_Ikan_Lele_Bandung.json"), store.Path(lele))
	assert.True(t, store.Exists(lele))

	a, err := store.Load(context.Background(), lele)
	require.NoError(t, err)
	assert.Equal(t, 0.5, a.M)

	// Served from cache even after the file disappears.
	require.NoError(t, os.Remove(store.Path(lele)))
	again, err := store.Load(context.Background(), lele)
	require.NoError(t, err)
	assert.Same(t, a, again)
}

func TestStorePathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "", 0, zaptest.NewLogger(t))

	for _, seg := range []dataset.Segment{
		{SpeciesGroup: "../../secret", Region: "x"},
		{SpeciesGroup: "Ikan/Lele", Region: `Kab\Bandung`},
		{SpeciesGroup: "..", Region: ".."},
	} {
		path := store.Path(seg)
		assert.Equal(t, dir, filepath.Dir(path), seg.String())

		_, err := store.Load(context.Background(), seg)
		var notFound *ModelNotFoundError
		assert.ErrorAs(t, err, &notFound, seg.String())
	}
}

func TestStoreNotFound(t *testing.T) {
	store := NewStore(t.TempDir(), "", time.Minute, nil)
	nila := dataset.Segment{SpeciesGroup: "Ikan Nila", Region: "Kab. Garut"}

	assert.False(t, store.Exists(nila))

	_, err := store.Load(context.Background(), nila)
	var notFound *ModelNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Ikan_Nila_Kab._Garut", notFound.Segment)
	assert.Equal(t, store.Path(nila), notFound.Path)
}

func TestStoreRejectsBadArtifacts(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "m_", 0, nil)

	require.NoError(t, os.WriteFile(store.Path(lele), []byte("{not json"), 0o644))
	_, err := store.Load(context.Background(), lele)
	var artErr *ArtifactError
	require.ErrorAs(t, err, &artErr)

	invalid := flatArtifact()
	invalid.YScale = 0
	writeArtifact(t, dir, "m_Ikan_Lele_Bandung.json", invalid)
	_, err = store.Load(context.Background(), lele)
	require.ErrorAs(t, err, &artErr)

	other := flatArtifact()
	other.Region = "Garut"
	writeArtifact(t, dir, "m_Ikan_Lele_Bandung.json", other)
	_, err = store.Load(context.Background(), lele)
	require.ErrorAs(t, err, &artErr)
	assert.Contains(t, err.Error(), "Ikan_Lele_Garut")
}

func TestStoreFillsSegmentForAnonymousArtifact(t *testing.T) {
	dir := t.TempDir()
	anon := flatArtifact()
	anon.SpeciesGroup, anon.Region = "", ""
	writeArtifact(t, dir, "prophet_model_Ikan_Lele_Bandung.json", anon)

	a, err := NewStore(dir, "", 0, nil).Load(context.Background(), lele)
	require.NoError(t, err)
	assert.Equal(t, "Ikan_Lele_Bandung", a.Key())
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(t.TempDir(), "", 0, nil).Load(ctx, lele)
	assert.ErrorIs(t, err, context.Canceled)
}
