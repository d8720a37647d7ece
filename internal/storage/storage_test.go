package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "posts/hello/a.jpg", want: "posts/hello/a.jpg"},
		{key: "/posts/hello/a.jpg", want: "posts/hello/a.jpg"},
		{key: "", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "posts/../../x", wantErr: true},
		{key: "posts//a.jpg", wantErr: true},
		{key: "posts/./a.jpg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("cleanKey(%q) error = %v, want ErrInvalidKey", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("cleanKey(%q): %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("cleanKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLocal_PutDelete(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/media/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	if err := l.Put(ctx, "posts/hello/a.jpg", "image/jpeg", []byte("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "posts", "hello", "a.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}

	if u := l.URL("posts/hello/a.jpg"); u != "/media/posts/hello/a.jpg" {
		t.Errorf("URL = %q", u)
	}
	if u := l.URL(""); u != "" {
		t.Errorf("URL(\"\") = %q, want empty", u)
	}

	if err := l.Put(ctx, "posts/hello/a.jpg", "image/jpeg", []byte("replaced")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _ = os.ReadFile(filepath.Join(root, "posts", "hello", "a.jpg"))
	if string(got) != "replaced" {
		t.Errorf("overwrite content = %q", got)
	}

	if err := l.Delete(ctx, "posts/hello/a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "posts", "hello", "a.jpg")); !os.IsNotExist(err) {
		t.Errorf("file still exists after Delete: %v", err)
	}
	if err := l.Delete(ctx, "posts/hello/a.jpg"); err != nil {
		t.Errorf("Delete of missing file: %v", err)
	}
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := l.Put(context.Background(), "../escape.txt", "text/plain", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Put traversal: got %v, want ErrInvalidKey", err)
	}
}

func TestNewS3_Unconfigured(t *testing.T) {
	c, err := NewS3(S3Config{})
	if err != nil || c != nil {
		t.Errorf("NewS3 without credentials = (%v, %v), want (nil, nil)", c, err)
	}
}

func TestS3_URL(t *testing.T) {
	c, err := NewS3(S3Config{
		Endpoint: "https://s3.example.com/", Region: "us-east-1",
		AccessKey: "k", SecretKey: "s", Bucket: "media",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if u := c.URL("posts/a/b.jpg"); u != "https://s3.example.com/media/posts/a/b.jpg" {
		t.Errorf("URL = %q", u)
	}

	c.publicURL = "https://cdn.example.com"
	if u := c.URL("posts/a/b.jpg"); u != "https://cdn.example.com/posts/a/b.jpg" {
		t.Errorf("URL with public base = %q", u)
	}
}

// Both backends satisfy Store.
var (
	_ Store = (*Local)(nil)
	_ Store = (*S3)(nil)
)
