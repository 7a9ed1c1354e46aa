package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/blockcms/internal/storage"
)

type fakeBlobStore struct {
	puts      int
	deleted   []string
	deleteErr error
}

func (f *fakeBlobStore) Put(ctx context.Context, name, contentType string, body io.Reader) (storage.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	f.puts++
	return storage.Object{
		Key:  "file-" + name,
		URL:  "/static/uploads/" + name,
		Name: name,
		Size: int64(len(data)),
	}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMediaUploadStoresMetadata(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := &fakeBlobStore{}
	svc := NewMediaService(gdb, store, 1<<20, nil)
	asset, err := svc.Upload(context.Background(), UploadInput{
		OriginalFilename: "../team/photo.png",
		Content:          testPNG(t),
		AltText:          " Team photo ",
		UploadedBy:       7,
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if asset.OriginalFilename != "photo.png" {
		t.Fatalf("expected directory parts to be dropped, got %q", asset.OriginalFilename)
	}
	if asset.MimeType != "image/png" || asset.Width != 4 || asset.Height != 3 {
		t.Fatalf("unexpected probe result: %+v", asset)
	}
	if asset.StorageFileID != "file-photo.png" || asset.AltText != "Team photo" || asset.UploadedBy != 7 {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	list, err := svc.List(MediaFilter{Search: "team"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected 1 asset, got %d", list.Total)
	}
}

func TestMediaUploadRejectsNonImages(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := &fakeBlobStore{}
	svc := NewMediaService(gdb, store, 1<<20, nil)
	_, err := svc.Upload(context.Background(), UploadInput{
		OriginalFilename: "notes.txt",
		Content:          []byte("just some text"),
	})
	if !errors.Is(err, storage.ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), UploadInput{}); !errors.Is(err, ErrMediaEmpty) {
		t.Fatalf("expected ErrMediaEmpty, got %v", err)
	}

	small := NewMediaService(gdb, store, 10, nil)
	if _, err := small.Upload(context.Background(), UploadInput{Content: testPNG(t)}); !errors.Is(err, ErrMediaTooLarge) {
		t.Fatalf("expected ErrMediaTooLarge, got %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("rejected uploads must not reach storage, got %d puts", store.puts)
	}
}

func TestMediaDeleteSwallowsBlobFailure(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := &fakeBlobStore{deleteErr: errors.New("imagekit unavailable")}
	svc := NewMediaService(gdb, store, 0, nil)
	asset, err := svc.Upload(context.Background(), UploadInput{OriginalFilename: "a.png", Content: testPNG(t)})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), asset.ID); err != nil {
		t.Fatalf("Delete should ignore blob errors, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != asset.StorageFileID {
		t.Fatalf("expected blob delete attempt for %s, got %v", asset.StorageFileID, store.deleted)
	}
	if _, err := svc.Get(asset.ID); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected row to be gone, got %v", err)
	}
	if err := svc.Delete(context.Background(), asset.ID); !errors.Is(err, ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestMediaUpdateAltText(t *testing.T) {
	gdb, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewMediaService(gdb, &fakeBlobStore{}, 0, nil)
	asset, err := svc.Upload(context.Background(), UploadInput{OriginalFilename: "a.png", Content: testPNG(t)})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if _, err := svc.UpdateAltText(asset.ID, "Warehouse"); err != nil {
		t.Fatalf("UpdateAltText returned error: %v", err)
	}
	reloaded, err := svc.Get(asset.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if reloaded.AltText != "Warehouse" {
		t.Fatalf("expected alt text to be saved, got %q", reloaded.AltText)
	}
}
