// Package moderation screens images with Cloud Vision safe search.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// ErrExplicitContent is returned when an image is flagged as adult or violent.
var ErrExplicitContent = errors.New("image contains explicit or violent content")

// Checker screens raw image bytes.
type Checker interface {
	Check(ctx context.Context, image []byte) error
}

// Annotator is the slice of the vision client this package uses.
type Annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

var _ Checker = (*SafeSearch)(nil)

type SafeSearch struct {
	annotator Annotator
	logger    *slog.Logger
}

func NewSafeSearch(annotator Annotator, logger *slog.Logger) *SafeSearch {
	return &SafeSearch{annotator: annotator, logger: logger}
}

// VisionAnnotator adapts the Cloud Vision client to Annotator.
type VisionAnnotator struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionAnnotator builds an image annotator client from a service-account JSON document.
func NewVisionAnnotator(ctx context.Context, credentialsJSON []byte) (*VisionAnnotator, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionAnnotator{client: client}, nil
}

func (a *VisionAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return a.client.BatchAnnotateImages(ctx, req)
}

func (a *VisionAnnotator) Close() error {
	return a.client.Close()
}

func (s *SafeSearch) Check(ctx context.Context, image []byte) error {
	l := s.logger.With(slog.String("method", "Check"))

	resp, err := s.annotator.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_SAFE_SEARCH_DETECTION}},
		}},
	})
	if err != nil {
		l.ErrorContext(ctx, "Safe search request failed", slog.Any("error", err))
		return fmt.Errorf("safe search request failed: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return nil
	}
	result := resp.GetResponses()[0]
	if result.GetError() != nil && result.GetError().GetMessage() != "" {
		return fmt.Errorf("safe search annotation failed: %s", result.GetError().GetMessage())
	}

	ann := result.GetSafeSearchAnnotation()
	if IsExplicit(ann) {
		l.WarnContext(ctx, "Image rejected by safe search",
			slog.String("adult", ann.GetAdult().String()),
			slog.String("violence", ann.GetViolence().String()))
		return ErrExplicitContent
	}
	return nil
}

// IsExplicit reports whether adult or violence is at least POSSIBLE.
// A missing annotation counts as safe.
func IsExplicit(ann *visionpb.SafeSearchAnnotation) bool {
	if ann == nil {
		return false
	}
	return flagged(ann.GetAdult()) || flagged(ann.GetViolence())
}

func flagged(l visionpb.Likelihood) bool {
	switch l {
	case visionpb.Likelihood_POSSIBLE, visionpb.Likelihood_LIKELY, visionpb.Likelihood_VERY_LIKELY:
		return true
	default:
		return false
	}
}
