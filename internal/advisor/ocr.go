// internal/advisor/ocr.go
package advisor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// TextExtractor reads the printed text of a certificate image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// VisionExtractor runs Google Cloud Vision text detection.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionExtractor uses application default credentials unless a credentials file is given.
func NewVisionExtractor(ctx context.Context, credentialsFile string) (*VisionExtractor, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init OCR client: %w", err)
	}
	return &VisionExtractor{client: client}, nil
}

func (v *VisionExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION, MaxResults: 1}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("detect text: %w", err)
	}
	return textFromResponse(resp)
}

// textFromResponse picks the full-text annotation of the single image in resp.
func textFromResponse(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	if resp == nil || len(resp.GetResponses()) == 0 {
		return "", errors.New("no text found in certificate")
	}
	r := resp.GetResponses()[0]
	if r.GetError() != nil {
		return "", fmt.Errorf("detect text: %s", r.GetError().GetMessage())
	}
	if anns := r.GetTextAnnotations(); len(anns) > 0 && anns[0].GetDescription() != "" {
		return anns[0].GetDescription(), nil
	}
	if text := r.GetFullTextAnnotation().GetText(); text != "" {
		return text, nil
	}
	return "", errors.New("no text found in certificate")
}

func (v *VisionExtractor) Close() error {
	return v.client.Close()
}

var gpaPattern = regexp.MustCompile(`(?i)(?:GPA|percentage|average|المعدل|النسبة)[^0-9]{0,40}?(\d{2,3}(?:\.\d+)?)`)

// ExtractGPA finds the first percentage between 50 and 100 that follows a GPA keyword.
func ExtractGPA(text string) (float64, bool) {
	for _, m := range gpaPattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v >= 50 && v <= 100 {
			return v, true
		}
	}
	return 0, false
}
