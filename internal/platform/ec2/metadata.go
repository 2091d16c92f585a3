package ec2

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// MetadataAPI is the subset of the instance metadata client used here.
type MetadataAPI interface {
	GetMetadata(ctx context.Context, params *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
	GetRegion(ctx context.Context, params *imds.GetRegionInput, optFns ...func(*imds.Options)) (*imds.GetRegionOutput, error)
}

// NewMetadataClient returns a client for the local instance metadata service.
func NewMetadataClient() *imds.Client {
	return imds.New(imds.Options{})
}

// LocalInstanceID returns the ID of the instance this process runs on.
func LocalInstanceID(ctx context.Context, md MetadataAPI) (string, error) {
	out, err := md.GetMetadata(ctx, &imds.GetMetadataInput{Path: "instance-id"})
	if err != nil {
		return "", fmt.Errorf("failed to read instance id from metadata: %w", err)
	}
	defer out.Content.Close()

	data, err := io.ReadAll(out.Content)
	if err != nil {
		return "", fmt.Errorf("failed to read instance id from metadata: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("metadata returned an empty instance id")
	}
	return id, nil
}

// LocalRegion returns the region of the instance this process runs on.
func LocalRegion(ctx context.Context, md MetadataAPI) (string, error) {
	out, err := md.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("failed to read region from metadata: %w", err)
	}
	return out.Region, nil
}
