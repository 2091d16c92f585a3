package hcloud

import (
	"errors"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// IsInvalidInput checks if an error was caused by the request parameters,
// such as an unknown server type or image.
func IsInvalidInput(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
		hcloud.ErrorCodeUniquenessError,
	)
}

// IsRateLimited checks if an error indicates rate limiting.
func IsRateLimited(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeRateLimitExceeded)
}

// wrapCreateError adds a hint for the create failures a user can act on.
func wrapCreateError(name string, err error) error {
	switch {
	case IsInvalidInput(err):
		return fmt.Errorf("failed to create server %s (check provisioner_options): %w", name, err)
	case IsRateLimited(err):
		return fmt.Errorf("failed to create server %s (API rate limit reached, rerun later): %w", name, err)
	default:
		return fmt.Errorf("failed to create server %s: %w", name, err)
	}
}
