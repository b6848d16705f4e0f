// Package pipeline orchestrates a single upload end to end: validate,
// stage into a per-request temp directory, preprocess, run the scenario
// handler, and collect the displayable outcome before cleanup.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/imgio"
	"github.com/dmvision/scenario-analyzer/pkg/preprocess"
	"github.com/dmvision/scenario-analyzer/pkg/scenario"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// InputError marks failures caused by the request itself (bad extension,
// unknown scenario, unreadable image) as opposed to backend faults.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// Outcome is everything the caller needs to show the user. The image is
// base64-encoded because the temp directory is gone by the time Process
// returns.
type Outcome struct {
	ScenarioKey  string
	ScenarioName string
	ImageB64     string
	ImageMIME    string
	ShowImage    bool
	Table        []types.ResultRow
	ConstantText string
}

// Pipeline wires the scenario registry and the vision backend together.
type Pipeline struct {
	registry *scenario.Registry
	ai       aiclient.VisionClient
	log      *zap.Logger
}

func New(registry *scenario.Registry, ai aiclient.VisionClient, log *zap.Logger) *Pipeline {
	return &Pipeline{registry: registry, ai: ai, log: log}
}

// Process runs one upload through the full pipeline. Errors of type
// *InputError are the caller's fault; aiclient error types identify backend
// failures; anything else is internal.
func (p *Pipeline) Process(ctx context.Context, upload io.Reader, filename, scenarioKey string) (*Outcome, error) {
	if scenarioKey == "" {
		scenarioKey = scenario.DefaultKey
	}
	cfg, ok := p.registry.Get(scenarioKey)
	if !ok {
		return nil, &InputError{Msg: fmt.Sprintf("unknown scenario %q", scenarioKey)}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return nil, &InputError{Msg: fmt.Sprintf("unsupported file type %q, allowed: jpg, jpeg, png, webp", ext)}
	}

	dir, err := os.MkdirTemp("", "scenario-analyzer-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	stem := newStem()
	imagePath := filepath.Join(dir, stem+"."+ext)
	if err := saveUpload(upload, imagePath); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	// Decode once up front so corrupt files fail before any AI call.
	img, err := imgio.Open(imagePath)
	if err != nil {
		return nil, &InputError{Msg: "file is not a valid image"}
	}

	if len(cfg.Preprocessors) > 0 {
		processed, err := preprocess.Run(img, cfg.Preprocessors)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
		if processed != img {
			if err := imgio.Save(processed, imagePath); err != nil {
				return nil, fmt.Errorf("failed to save preprocessed image: %w", err)
			}
		}
	}

	job := scenario.Job{ImagePath: imagePath, Dir: dir, Stem: stem, Ext: ext}

	start := time.Now()
	p.log.Info("processing upload",
		zap.String("scenario", scenarioKey),
		zap.String("file", filename))

	result, err := cfg.Handler.Process(ctx, p.ai, job, cfg)
	if err != nil {
		p.log.Warn("scenario processing failed",
			zap.String("scenario", scenarioKey),
			zap.Error(err))
		return nil, err
	}

	p.log.Info("scenario processed",
		zap.String("scenario", scenarioKey),
		zap.Duration("took", time.Since(start)))

	out := &Outcome{
		ScenarioKey:  cfg.Key,
		ScenarioName: cfg.Name,
		ConstantText: cfg.ConstantText,
	}
	if cfg.ShowResultTable {
		out.Table = result.Table
	}
	if cfg.ShowAnnotatedImage {
		displayPath := result.AnnotatedPath
		if displayPath == "" {
			displayPath = imagePath
		}
		b64, err := imgio.FileToBase64(displayPath)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result image: %w", err)
		}
		out.ImageB64 = b64
		out.ImageMIME = imgio.MIMEType(ext)
		out.ShowImage = true
	}
	return out, nil
}

// newStem produces a collision-safe file stem, timestamp plus 12 hex chars.
func newStem() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return time.Now().Format("20060102_150405")
	}
	return time.Now().Format("20060102_150405") + "_" + hex.EncodeToString(buf)
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}
