package main

import (
	"context"

	"go-ekyc-gateway/pipeline"
)

// abstract interfaces for easier testing

type SubmissionPipeline interface {
	Run(context.Context, pipeline.Submission) (*pipeline.Record, *pipeline.Rejection, error)
}

type JwtCreator interface {
	CreateReceiptJwt(*pipeline.Record) (string, error)
}

// Production implementation

type submissionPipelineImpl struct {
	pipeline *pipeline.Pipeline
}

func (p submissionPipelineImpl) Run(ctx context.Context, submission pipeline.Submission) (*pipeline.Record, *pipeline.Rejection, error) {
	return p.pipeline.Run(ctx, submission)
}
