package storage

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

func setupFakeS3(t *testing.T) (string, string) {
	t.Helper()
	backend := s3mem.New()
	fs := gofakes3.New(backend)
	server := httptest.NewServer(fs.Server())
	t.Cleanup(server.Close)
	bucket := "deckd-test"
	if err := backend.CreateBucket(bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	os.Setenv("AWS_ACCESS_KEY_ID", "test")
	os.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return strings.TrimPrefix(server.URL, "http://"), bucket
}

func testParams(endpoint, bucket string) ConnectionParams {
	return ConnectionParams{
		Name:            "primary",
		Backend:         BackendMinIO,
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          bucket,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Insecure:        true,
		ForcePathStyle:  true,
	}
}

func TestMinioStoreObjectLifecycle(t *testing.T) {
	endpoint, bucket := setupFakeS3(t)
	store, err := newMinioStore(testParams(endpoint, bucket))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	payload := []byte("deck bytes")

	put, err := store.Put(ctx, "decks/quarterly.pptx", payload, ContentTypePresentation)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if put.Size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), put.Size)
	}

	data, info, err := store.Get(ctx, "decks/quarterly.pptx")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("expected payload back, got %q", data)
	}
	if info.ETag == "" {
		t.Fatal("expected an etag")
	}

	stat, err := store.Stat(ctx, "decks/quarterly.pptx")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if stat.Size != int64(len(payload)) {
		t.Fatalf("expected stat size %d, got %d", len(payload), stat.Size)
	}

	listed, err := store.List(ctx, "decks/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Key != "decks/quarterly.pptx" {
		t.Fatalf("unexpected listing %+v", listed)
	}

	if err := store.Delete(ctx, "decks/quarterly.pptx"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Stat(ctx, "decks/quarterly.pptx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "decks/quarterly.pptx"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMinioStorePrefixIsTransparent(t *testing.T) {
	endpoint, bucket := setupFakeS3(t)
	params := testParams(endpoint, bucket)
	params.Prefix = "tenants/acme/"
	store, err := newMinioStore(params)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "deck.pptx", []byte("x"), ContentTypePresentation); err != nil {
		t.Fatalf("put: %v", err)
	}
	listed, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Key != "deck.pptx" {
		t.Fatalf("expected prefix stripped from keys, got %+v", listed)
	}
	if _, _, err := store.Get(ctx, "deck.pptx"); err != nil {
		t.Fatalf("get through prefix: %v", err)
	}
}

func TestConnectorLifecycle(t *testing.T) {
	endpoint, bucket := setupFakeS3(t)
	c := NewConnector(nil)

	if _, err := c.Store("primary"); !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("expected ErrUnknownConnection, got %v", err)
	}
	if err := c.Configure(testParams(endpoint, bucket)); err != nil {
		t.Fatalf("configure: %v", err)
	}
	store, err := c.Store("primary")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := store.Put(context.Background(), "probe.pptx", []byte("x"), ContentTypePresentation); err != nil {
		t.Fatalf("put through connector: %v", err)
	}

	names := c.Names()
	if len(names) != 1 || names[0] != "primary" {
		t.Fatalf("unexpected names %v", names)
	}
	params, err := c.Params("primary")
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.SecretAccessKey != "REDACTED" {
		t.Fatalf("expected redacted secret, got %q", params.SecretAccessKey)
	}

	if err := c.Remove("primary"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.Remove("primary"); !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("expected ErrUnknownConnection on second remove, got %v", err)
	}
}

func TestConnectionParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectionParams)
		wantErr bool
	}{
		{name: "valid minio", mutate: func(p *ConnectionParams) {}},
		{name: "missing name", mutate: func(p *ConnectionParams) { p.Name = "" }, wantErr: true},
		{name: "missing bucket", mutate: func(p *ConnectionParams) { p.Bucket = "" }, wantErr: true},
		{name: "bad backend", mutate: func(p *ConnectionParams) { p.Backend = "gcs" }, wantErr: true},
		{name: "aws without region", mutate: func(p *ConnectionParams) {
			p.Backend = BackendAWS
			p.Region = ""
		}, wantErr: true},
		{name: "access key without secret", mutate: func(p *ConnectionParams) {
			p.SecretAccessKey = ""
		}, wantErr: true},
		{name: "no credentials at all", mutate: func(p *ConnectionParams) {
			p.AccessKeyID = ""
			p.SecretAccessKey = ""
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := testParams("localhost:9000", "bucket")
			tc.mutate(&params)
			err := params.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewAWSStoreRequiresRegionThroughConnector(t *testing.T) {
	c := NewConnector(nil)
	params := ConnectionParams{
		Name:    "aws",
		Backend: BackendAWS,
		Bucket:  "bucket",
	}
	if err := c.Configure(params); err == nil {
		t.Fatal("expected configure to fail without region")
	}
}
