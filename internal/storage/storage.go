package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ObjectInfo represents metadata for a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStorage captures the minimal S3-compatible operations the service needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// SignatureStore files signature images under date-partitioned, collision-free keys.
type SignatureStore struct {
	objects ObjectStorage
	now     func() time.Time
}

func NewSignatureStore(objects ObjectStorage) *SignatureStore {
	return &SignatureStore{objects: objects, now: time.Now}
}

// Save uploads a signature blob and returns its object key. Empty blobs are not
// stored and yield an empty key.
func (s *SignatureStore) Save(ctx context.Context, role string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	contentType := http.DetectContentType(data)
	key := fmt.Sprintf("signatures/%s/%s-%s%s", s.now().UTC().Format("2006/01"), role, uuid.NewString(), extensionFor(contentType))

	if _, err := s.objects.UploadObject(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("failed to upload %s signature: %w", role, err)
	}
	return key, nil
}

// Load returns a previously saved signature and its sniffed content type.
func (s *SignatureStore) Load(ctx context.Context, key string) ([]byte, string, error) {
	data, err := s.objects.GetObject(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load signature %s: %w", key, err)
	}
	return data, http.DetectContentType(data), nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// MemoryStorage keeps objects in process memory. It backs the server when no
// bucket is configured and doubles as a test fake.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (m *MemoryStorage) UploadObject(_ context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{data: bytes.Clone(data), contentType: contentType}
	return ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *MemoryStorage) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return bytes.Clone(obj.data), nil
}

var _ ObjectStorage = (*MemoryStorage)(nil)
