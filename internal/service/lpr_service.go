package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"parking_tickets/internal/domain"
	"parking_tickets/internal/validation"
)

// DefaultMinPlateConfidence is the lowest Rekognition confidence, in
// percent, at which a detected line is considered as a plate.
const DefaultMinPlateConfidence float32 = 80

// TextDetector is the part of the Rekognition client LPRService uses.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type LPRService struct {
	detector      TextDetector
	minConfidence float32
	logger        *slog.Logger
}

func NewLPRService(detector TextDetector, logger *slog.Logger) *LPRService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LPRService{
		detector:      detector,
		minConfidence: DefaultMinPlateConfidence,
		logger:        logger,
	}
}

// RecognizePlate runs text detection over a camera image and returns the
// highest-confidence line that is a valid license plate.
func (s *LPRService) RecognizePlate(ctx context.Context, image []byte) (string, float32, error) {
	if s.detector == nil {
		return "", 0, errors.New("plate recognition is not configured")
	}
	if len(image) == 0 {
		return "", 0, domain.Validationf("Image is required")
	}

	out, err := s.detector.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", 0, fmt.Errorf("rekognition detect text: %w", err)
	}

	var (
		best       string
		bestConf   float32
		candidates []string
	)
	for _, det := range out.TextDetections {
		if det.Type != types.TextTypesLine || det.DetectedText == nil || det.Confidence == nil {
			continue
		}
		plate := cleanPlateText(*det.DetectedText)
		candidates = append(candidates, plate)
		if !looksLikePlate(plate) || *det.Confidence < s.minConfidence {
			continue
		}
		if *det.Confidence > bestConf {
			best, bestConf = plate, *det.Confidence
		}
	}

	if best == "" {
		s.logger.InfoContext(ctx, "no license plate recognized", "detected_lines", candidates)
		return "", 0, domain.Validationf("No license plate recognized in image")
	}
	s.logger.InfoContext(ctx, "license plate recognized", "plate", best, "confidence", bestConf)
	return best, bestConf, nil
}

// cleanPlateText drops separators cameras pick up between plate groups,
// such as dots and middle dots, and upper-cases the rest.
func cleanPlateText(text string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// looksLikePlate requires a digit so signage such as "EXIT" is skipped.
func looksLikePlate(text string) bool {
	if ok, _ := validation.ValidateLicensePlate(text); !ok {
		return false
	}
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}
