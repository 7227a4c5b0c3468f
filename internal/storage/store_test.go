package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/rbdyn/internal/verify"
)

func sampleReport() *verify.Report {
	return &verify.Report{
		Samples: []verify.Sample{
			{Q: []float64{0.1, -2.5}, V: []float64{0.3, 0.7}, DH: 1e-9, DC: 3.25e-8, DB: 0, Passed: true},
			{Q: []float64{1.5, 0.2}, V: []float64{-0.9, 0}, DH: 2e-3, DC: 1e-7, DB: 0, Passed: false},
		},
		MaxError: 2e-3,
		Passed:   false,
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "runs"))
	require.NoError(t, s.Init())

	opts := verify.DefaultOptions()
	opts.Seed = 7
	rep := sampleReport()
	id, err := s.Save("double_pendulum", opts, rep)
	require.NoError(t, err)

	meta, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "double_pendulum", meta.Model)
	assert.Equal(t, uint64(7), meta.Seed)
	assert.Equal(t, 2, meta.Samples)
	assert.Equal(t, 2e-3, meta.MaxError)
	assert.False(t, meta.Passed)

	samples, err := s.LoadSamples(id)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, rep.Samples[0].Q, samples[0].Q)
	assert.Equal(t, rep.Samples[1].V, samples[1].V)
	assert.Equal(t, rep.Samples[0].DC, samples[0].DC)
	assert.True(t, samples[0].Passed)
	assert.False(t, samples[1].Passed)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Save("arm", verify.DefaultOptions(), sampleReport())
	require.NoError(t, err)
	_, err = s.Save("twin", verify.DefaultOptions(), &verify.Report{Passed: true})
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "stray"), 0755))

	runs, err = s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "arm", runs[0].Model)
	assert.Equal(t, "twin", runs[1].Model)

	samples, err := s.LoadSamples(runs[1].ID)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
