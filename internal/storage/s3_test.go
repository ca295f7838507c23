package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestSigner(t *testing.T, expiry time.Duration) *S3Signer {
	t.Helper()

	signer, err := NewS3Signer(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566", // LocalStack-like endpoint
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Expiry:          expiry,
	})
	if err != nil {
		t.Fatalf("NewS3Signer() error = %v", err)
	}
	return signer
}

func TestNewS3Signer_DefaultExpiry(t *testing.T) {
	signer := newTestSigner(t, 0)

	if signer.expiry != DefaultPresignExpiry {
		t.Errorf("expiry = %v, want %v", signer.expiry, DefaultPresignExpiry)
	}
}

func TestS3Signer_PresignGet(t *testing.T) {
	signer := newTestSigner(t, 5*time.Minute)

	signed, err := signer.PresignGet(context.Background(), "s3://verses/john/1-1.mp3")
	if err != nil {
		t.Fatalf("PresignGet() error = %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("signed URL does not parse: %v", err)
	}
	if u.Host != "localhost:4566" {
		t.Errorf("host = %q, want localhost:4566", u.Host)
	}
	if u.Path != "/verses/john/1-1.mp3" {
		t.Errorf("path = %q, want path-style bucket/key", u.Path)
	}

	q := u.Query()
	if q.Get("X-Amz-Signature") == "" {
		t.Error("missing X-Amz-Signature")
	}
	if got := q.Get("X-Amz-Expires"); got != "300" {
		t.Errorf("X-Amz-Expires = %q, want 300", got)
	}
	if !strings.Contains(q.Get("X-Amz-Credential"), "test-access-key") {
		t.Errorf("credential %q does not use the configured key", q.Get("X-Amz-Credential"))
	}
}

func TestS3Signer_PresignGet_InvalidAddress(t *testing.T) {
	signer := newTestSigner(t, 0)

	_, err := signer.PresignGet(context.Background(), "https://verses/john/1-1.mp3")
	if !errors.Is(err, ErrInvalidS3Address) {
		t.Errorf("expected ErrInvalidS3Address, got %v", err)
	}
}

func TestParseS3Address(t *testing.T) {
	tests := []struct {
		address    string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://verses/a.mp3", "verses", "a.mp3", false},
		{"s3://verses/john/1/a.mp3", "verses", "john/1/a.mp3", false},
		{"s3://verses/", "", "", true},
		{"s3:///a.mp3", "", "", true},
		{"gs://verses/a.mp3", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			bucket, key, err := ParseS3Address(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidS3Address) {
					t.Errorf("expected ErrInvalidS3Address, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseS3Address() error = %v", err)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}
