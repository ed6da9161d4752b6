package secrets

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

type fakeAccessor struct {
	gotName string
	data    []byte
	err     error
}

func (f *fakeAccessor) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.gotName = req.GetName()
	if f.err != nil {
		return nil, f.err
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: f.data},
	}, nil
}

func (f *fakeAccessor) Close() error { return nil }

func TestSourceGet(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		err      error
		want     string
		wantErr  bool
		wantPath string
	}{
		{
			name:     "trimsValue",
			data:     []byte("fal-key-123\n"),
			want:     "fal-key-123",
			wantPath: "projects/my-proj/secrets/fal-api-key/versions/latest",
		},
		{
			name:    "emptySecret",
			data:    []byte("  \n"),
			wantErr: true,
		},
		{
			name:    "accessDenied",
			err:     errors.New("permission denied"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAccessor{data: tt.data, err: tt.err}
			s := &Source{client: fake, project: "my-proj"}

			got, err := s.Get(context.Background(), "fal-api-key")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Get() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Get() = %q, want %q", got, tt.want)
			}
			if tt.wantPath != "" && fake.gotName != tt.wantPath {
				t.Errorf("requested %q, want %q", fake.gotName, tt.wantPath)
			}
		})
	}
}

func TestVersionName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "fal", "projects/p/secrets/fal/versions/latest"},
		{"fullPath", "projects/other/secrets/fal", "projects/other/secrets/fal/versions/latest"},
		{"pinnedVersion", "projects/other/secrets/fal/versions/3", "projects/other/secrets/fal/versions/3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := versionName("p", tt.in); got != tt.want {
				t.Errorf("versionName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSourceRequiresProject(t *testing.T) {
	if _, err := NewSource(context.Background(), ""); err == nil {
		t.Error("expected error without project")
	}
}
