package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSignatureStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewSignatureStore(NewMemoryStorage())
	store.now = func() time.Time { return time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC) }

	key, err := store.Save(ctx, "pemeriksa", pngHeader)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(key, "signatures/2024/05/pemeriksa-") || !strings.HasSuffix(key, ".png") {
		t.Errorf("Unexpected key %s", key)
	}

	data, contentType, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("Expected loaded bytes to match saved bytes")
	}
	if contentType != "image/png" {
		t.Errorf("Expected image/png, got %s", contentType)
	}

	other, _ := store.Save(ctx, "pemeriksa", pngHeader)
	if other == key {
		t.Error("Expected unique keys per upload")
	}
}

func TestSignatureStore_EmptyBlobIsSkipped(t *testing.T) {
	store := NewSignatureStore(NewMemoryStorage())

	key, err := store.Save(context.Background(), "penerima", nil)
	if err != nil || key != "" {
		t.Errorf("Expected empty key and no error, got %q %v", key, err)
	}
}

func TestMemoryStorage_MissingObject(t *testing.T) {
	if _, err := NewMemoryStorage().GetObject(context.Background(), "nope"); err == nil {
		t.Error("Expected error for missing object")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/png":                ".png",
		"image/jpeg":               ".jpg",
		"application/octet-stream": ".bin",
	}
	for contentType, want := range tests {
		if got := extensionFor(contentType); got != want {
			t.Errorf("extensionFor(%s): expected %s, got %s", contentType, want, got)
		}
	}
}
