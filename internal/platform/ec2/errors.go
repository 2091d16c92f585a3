package ec2

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// isAPIErrorCode checks if err is an EC2 API error with one of the codes.
func isAPIErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.ErrorCode() == code {
			return true
		}
	}
	return false
}

// IsNotFound returns true if the error reports a missing instance or volume.
func IsNotFound(err error) bool {
	return isAPIErrorCode(err, "InvalidInstanceID.NotFound", "InvalidVolume.NotFound")
}

// IsAuthFailure returns true if the error is caused by bad credentials or
// missing permissions.
func IsAuthFailure(err error) bool {
	return isAPIErrorCode(err, "AuthFailure", "UnauthorizedOperation")
}

// IsVolumeInUse returns true if a volume is already attached at the device.
func IsVolumeInUse(err error) bool {
	return isAPIErrorCode(err, "VolumeInUse")
}

// wrapAPIError annotates err with the failed operation.
func wrapAPIError(op string, err error) error {
	if IsAuthFailure(err) {
		return fmt.Errorf("failed to %s (check AWS credentials and permissions): %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
