package mcp

import (
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

func configureFakeS3(t *testing.T, s *server) string {
	t.Helper()
	backend := s3mem.New()
	fs := gofakes3.New(backend)
	server := httptest.NewServer(fs.Server())
	t.Cleanup(server.Close)
	bucket := "deckd-mcp-test"
	if err := backend.CreateBucket(bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	os.Setenv("AWS_ACCESS_KEY_ID", "test")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	_, _, err := s.handleStorageConfigureTool(context.Background(), nil, storageConfigureInput{
		Connection:      "primary",
		Backend:         "minio",
		Endpoint:        strings.TrimPrefix(server.URL, "http://"),
		Region:          "us-east-1",
		Bucket:          bucket,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Insecure:        true,
		ForcePathStyle:  true,
	})
	if err != nil {
		t.Fatalf("storage.configure: %v", err)
	}
	return bucket
}

func TestStorageUploadDownloadRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	configureFakeS3(t, s)

	if _, _, err := s.handleDeckCreateTool(ctx, nil, deckCreateInput{DeckID: "outbound"}); err != nil {
		t.Fatalf("deck.create: %v", err)
	}
	if _, _, err := s.handleDeckSlideAddTool(ctx, nil, deckSlideAddInput{Title: "Remote", Body: "stored in a bucket"}); err != nil {
		t.Fatalf("deck.slide.add: %v", err)
	}

	_, uploaded, err := s.handleStorageUploadTool(ctx, nil, storageUploadInput{
		Connection: "primary",
		Key:        "decks/outbound.pptx",
	})
	if err != nil {
		t.Fatalf("storage.upload: %v", err)
	}
	if uploaded.SizeBytes == 0 || uploaded.Size == "" {
		t.Fatalf("unexpected upload output %+v", uploaded)
	}

	_, stat, err := s.handleStorageStatTool(ctx, nil, storageStatInput{
		Connection: "primary",
		Key:        "decks/outbound.pptx",
	})
	if err != nil {
		t.Fatalf("storage.stat: %v", err)
	}
	if stat.SizeBytes != uploaded.SizeBytes {
		t.Fatalf("stat size %d does not match upload size %d", stat.SizeBytes, uploaded.SizeBytes)
	}

	_, listed, err := s.handleStorageListTool(ctx, nil, storageListInput{Connection: "primary", Prefix: "decks/"})
	if err != nil {
		t.Fatalf("storage.list: %v", err)
	}
	if len(listed.Objects) != 1 || listed.Objects[0].Key != "decks/outbound.pptx" {
		t.Fatalf("unexpected listing %+v", listed.Objects)
	}

	_, downloaded, err := s.handleStorageDownloadTool(ctx, nil, storageDownloadInput{
		Connection: "primary",
		Key:        "decks/outbound.pptx",
		DeckID:     "inbound",
	})
	if err != nil {
		t.Fatalf("storage.download: %v", err)
	}
	if downloaded.SlideCount != 1 {
		t.Fatalf("expected 1 slide after download, got %d", downloaded.SlideCount)
	}
	_, info, err := s.handleDeckInfoTool(ctx, nil, deckInfoInput{DeckID: "inbound"})
	if err != nil {
		t.Fatalf("deck.info: %v", err)
	}
	if info.SourcePath != "" {
		t.Fatalf("downloaded deck must have no local save target, got %q", info.SourcePath)
	}

	_, deleted, err := s.handleStorageDeleteTool(ctx, nil, storageDeleteInput{
		Connection: "primary",
		Key:        "decks/outbound.pptx",
	})
	if err != nil {
		t.Fatalf("storage.delete: %v", err)
	}
	if !deleted.Deleted {
		t.Fatalf("unexpected delete output %+v", deleted)
	}

	_, _, err = s.handleStorageStatTool(ctx, nil, storageStatInput{
		Connection: "primary",
		Key:        "decks/outbound.pptx",
	})
	if err == nil {
		t.Fatal("expected stat to fail after delete")
	}
	if env := classifyToolError(err); env.ErrorCode != "object_not_found" {
		t.Fatalf("expected object_not_found, got %q (%v)", env.ErrorCode, err)
	}
}

func TestStorageConnectionsRedactSecrets(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	configureFakeS3(t, s)

	_, out, err := s.handleStorageConnectionsTool(ctx, nil, struct{}{})
	if err != nil {
		t.Fatalf("storage.connections: %v", err)
	}
	if len(out.Connections) != 1 || out.Connections[0].Connection != "primary" {
		t.Fatalf("unexpected connections %+v", out.Connections)
	}
}

func TestStorageDownloadDuplicateDeckID(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	configureFakeS3(t, s)

	if _, _, err := s.handleDeckCreateTool(ctx, nil, deckCreateInput{DeckID: "taken"}); err != nil {
		t.Fatalf("deck.create: %v", err)
	}
	if _, _, err := s.handleStorageUploadTool(ctx, nil, storageUploadInput{Connection: "primary", Key: "taken.pptx"}); err != nil {
		t.Fatalf("storage.upload: %v", err)
	}
	_, _, err := s.handleStorageDownloadTool(ctx, nil, storageDownloadInput{
		Connection: "primary",
		Key:        "taken.pptx",
		DeckID:     "taken",
	})
	if err == nil {
		t.Fatal("expected duplicate deck error")
	}
	if env := classifyToolError(err); env.ErrorCode != "duplicate_deck" {
		t.Fatalf("expected duplicate_deck, got %q (%v)", env.ErrorCode, err)
	}
}
