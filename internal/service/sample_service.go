package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
)

const sampleDir = "samples"

// CommandRunner runs an external program and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type SampleConfig struct {
	FFmpegPath    string
	StorageDir    string
	PublicBaseURL string
	Seconds       int64
	Timeout       time.Duration
}

type SampleService interface {
	GenerateSample(ctx context.Context, productID, adminID uuid.UUID) (*model.Product, error)
}

type sampleService struct {
	store  repository.Store
	runner CommandRunner
	events EventLogger
	cfg    SampleConfig
}

func NewSampleService(store repository.Store, runner CommandRunner, events EventLogger, cfg SampleConfig) SampleService {
	return &sampleService{store: store, runner: runner, events: events, cfg: cfg}
}

// SampleFileName is where the preview of a product is written under
// <storage>/samples and served from /media/samples.
func SampleFileName(slug string) string {
	return slug + "-sample.mp3"
}

// GenerateSample cuts the first seconds of a voice pack into an MP3 preview
// and publishes it as the product's sample_audio_url.
func (s *sampleService) GenerateSample(ctx context.Context, productID, adminID uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if product.Type != model.ProductVoicePack || product.DigitalFileURL == nil {
		return nil, ErrSampleNotAvailable
	}

	input, err := ResolveStoragePath(s.cfg.StorageDir, *product.DigitalFileURL)
	if err != nil {
		return nil, ErrSampleNotAvailable
	}
	if _, err := os.Stat(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSampleNotAvailable, err)
	}

	fileName := SampleFileName(product.Slug)
	output, err := ResolveStoragePath(s.cfg.StorageDir, filepath.Join(sampleDir, fileName))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	out, err := s.runner.Run(ctx, s.cfg.FFmpegPath,
		"-y", "-i", input,
		"-t", strconv.FormatInt(s.cfg.Seconds, 10),
		"-vn", "-acodec", "libmp3lame", "-b:a", "128k",
		output)
	if err != nil {
		log.Printf("ffmpeg failed for product %s: %v\n%s", product.ID, err, tail(out, 2000))
		return nil, fmt.Errorf("%w: %v", ErrSampleGeneration, err)
	}

	sampleURL := s.cfg.PublicBaseURL + "/media/" + sampleDir + "/" + fileName
	var updated *model.Product
	err = s.store.Transaction(func(tx repository.Store) error {
		existing, err := tx.Products().FindByIDForUpdate(product.ID)
		if err != nil {
			return err
		}
		existing.SampleAudioURL = &sampleURL
		existing.UpdatedBy = adminID.String()
		if err := tx.Products().Update(existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Log(model.EventSampleGenerated,
		fmt.Sprintf("샘플 오디오 생성: %s", updated.Name),
		map[string]interface{}{
			"product_id": updated.ID,
			"sample_url": sampleURL,
			"seconds":    s.cfg.Seconds,
		},
		nil, &adminID)
	return updated, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
