package scenario

import (
	"context"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
)

// ConstantHandler never calls the AI and produces no annotated image or
// table; the scenario's ConstantText is shown to the user instead.
type ConstantHandler struct{}

func (h *ConstantHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	return &Result{}, nil
}
