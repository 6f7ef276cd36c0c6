package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name     string
	args     []string
	deadline bool
	err      error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	_, r.deadline = ctx.Deadline()
	if r.err != nil {
		return []byte("Invalid data found when processing input"), r.err
	}
	return nil, os.WriteFile(args[len(args)-1], []byte("ID3"), 0o644)
}

func newSampleEnv(t *testing.T, runner CommandRunner) (*testEnv, SampleService, string) {
	t.Helper()
	env := newTestEnv(t)
	dir := t.TempDir()
	svc := NewSampleService(env.store, runner, env.events, SampleConfig{
		FFmpegPath:    "ffmpeg",
		StorageDir:    dir,
		PublicBaseURL: testBaseURL,
		Seconds:       20,
		Timeout:       time.Minute,
	})
	return env, svc, dir
}

func writeStoredFile(t *testing.T, dir string, p *model.Product) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(*p.DigitalFileURL))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o644))
	return path
}

func TestSampleService_GenerateSample(t *testing.T) {
	runner := &fakeRunner{}
	env, svc, dir := newSampleEnv(t, runner)
	voice := testutil.SeedVoicePack(t, env.store)
	input := writeStoredFile(t, dir, voice)

	updated, err := svc.GenerateSample(context.Background(), voice.ID, env.admin)
	require.NoError(t, err)

	output := filepath.Join(dir, "samples", SampleFileName(voice.Slug))
	assert.Equal(t, "ffmpeg", runner.name)
	assert.Equal(t, []string{"-y", "-i", input, "-t", "20", "-vn", "-acodec", "libmp3lame", "-b:a", "128k", output}, runner.args)
	assert.True(t, runner.deadline, "ffmpeg runs under a timeout")
	assert.FileExists(t, output)

	require.NotNil(t, updated.SampleAudioURL)
	assert.Equal(t, testBaseURL+"/media/samples/"+voice.Slug+"-sample.mp3", *updated.SampleAudioURL)

	stored, err := env.catalog.GetProduct(voice.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.SampleAudioURL, stored.SampleAudioURL)

	logs := env.store.EventLogs()
	assert.Equal(t, model.EventSampleGenerated, logs[len(logs)-1].EventType)
}

func TestSampleService_Failures(t *testing.T) {
	t.Run("physical goods", func(t *testing.T) {
		env, svc, _ := newSampleEnv(t, &fakeRunner{})
		goods := testutil.SeedGoods(t, env.store, 1)
		_, err := svc.GenerateSample(context.Background(), goods.ID, env.admin)
		assert.ErrorIs(t, err, ErrSampleNotAvailable)
	})

	t.Run("file missing from storage", func(t *testing.T) {
		env, svc, _ := newSampleEnv(t, &fakeRunner{})
		voice := testutil.SeedVoicePack(t, env.store)
		_, err := svc.GenerateSample(context.Background(), voice.ID, env.admin)
		assert.ErrorIs(t, err, ErrSampleNotAvailable)
	})

	t.Run("ffmpeg fails", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("exit status 1")}
		env, svc, dir := newSampleEnv(t, runner)
		voice := testutil.SeedVoicePack(t, env.store)
		writeStoredFile(t, dir, voice)

		_, err := svc.GenerateSample(context.Background(), voice.ID, env.admin)
		assert.ErrorIs(t, err, ErrSampleGeneration)

		stored, err := env.catalog.GetProduct(voice.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.SampleAudioURL)
	})
}
