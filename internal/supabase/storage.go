// Package supabase wraps Supabase Storage as the blob store for
// inspiration images, preview images, and STL files.
package supabase

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"

	"cookie-cutter-backend/internal/models"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceKey, bucket string) (*StorageClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// Upload stores a file under a key unique to the order, item, and kind,
// and returns a FileRef ready to attach to the item. The content type is
// sniffed from the bytes rather than trusted from the filename.
func (s *StorageClient) Upload(orderID, itemID uuid.UUID, kind models.ImageKind, filename string, data []byte) (models.FileRef, error) {
	key := fmt.Sprintf("orders/%s/items/%s/%s/%s-%s",
		orderID.String(), itemID.String(), string(kind), uuid.New().String(), filename)

	contentType := mimetype.Detect(data).String()
	upsert := false
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return models.FileRef{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return models.FileRef{
		Key:          key,
		URL:          s.PublicURL(key),
		UploadedAt:   time.Now(),
		OriginalName: filename,
	}, nil
}

func (s *StorageClient) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}

func (s *StorageClient) Delete(key string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{key})
	return err
}

// DeleteOrderFiles removes every blob belonging to the order, used when
// the order itself is deleted.
func (s *StorageClient) DeleteOrderFiles(orderID uuid.UUID) error {
	prefix := fmt.Sprintf("orders/%s/", orderID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		keys := make([]string, len(files))
		for i, file := range files {
			keys[i] = file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, keys); err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}
