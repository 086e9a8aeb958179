package storage

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		region  string
		wantErr bool
	}{
		{"valid bucket and region", "test-bucket", "us-east-1", false},
		{"empty bucket", "", "us-east-1", true},
		{"empty region", "test-bucket", "", true},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewS3Storage(tt.bucket, tt.region)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, store.bucket)
		})
	}
}

func TestS3Storage_CleanKey(t *testing.T) {
	store := &S3Storage{bucket: "test-bucket"}

	t.Run("valid key is normalized", func(t *testing.T) {
		key, err := store.cleanKey("runs/abc.json")
		require.NoError(t, err)
		assert.Equal(t, "runs/abc.json", key)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		_, err := store.cleanKey("../other-prefix/abc.json")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

type fakeAPIError struct {
	code string
}

func (e *fakeAPIError) Error() string                 { return e.code }
func (e *fakeAPIError) ErrorCode() string             { return e.code }
func (e *fakeAPIError) ErrorMessage() string          { return e.code }
func (e *fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", &fakeAPIError{code: "NoSuchKey"}, true},
		{"NotFound", &fakeAPIError{code: "NotFound"}, true},
		{"AccessDenied", &fakeAPIError{code: "AccessDenied"}, false},
		{"plain error", errors.New("network down"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}
