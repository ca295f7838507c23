package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Static errors for media address handling.
var (
	// ErrUnsupportedAddress is returned for address schemes the engine cannot read.
	ErrUnsupportedAddress = errors.New("unsupported media address")
	// ErrSignerRequired is returned for s3:// addresses when no signer is configured.
	ErrSignerRequired = errors.New("s3 address requires a configured signer")
)

// AddressSigner turns an s3://bucket/key address into a time-limited HTTPS URL.
type AddressSigner interface {
	PresignGet(ctx context.Context, address string) (string, error)
}

// Locate converts a narration or background address into something the
// ffmpeg binaries can open: http(s) URLs pass through, s3 URLs are presigned
// and file URLs or bare paths become local paths.
func Locate(ctx context.Context, signer AddressSigner, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty address", ErrUnsupportedAddress)
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedAddress, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("%w: missing host in %q", ErrUnsupportedAddress, address)
		}
		return address, nil
	case "s3":
		if signer == nil {
			return "", ErrSignerRequired
		}
		signed, err := signer.PresignGet(ctx, address)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", address, err)
		}
		return signed, nil
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("%w: empty file path", ErrUnsupportedAddress)
		}
		return u.Path, nil
	case "":
		if !strings.HasPrefix(u.Path, "/") {
			return "", fmt.Errorf("%w: relative path %q", ErrUnsupportedAddress, address)
		}
		return u.Path, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedAddress, u.Scheme)
	}
}

// IsRemote reports whether a located input is read over the network.
func IsRemote(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
