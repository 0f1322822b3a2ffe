package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/deckd/storage"
)

type storageConfigureInput struct {
	Connection      string `json:"connection" jsonschema:"Name to register the connection under"`
	Backend         string `json:"backend" jsonschema:"Client backend: minio (any S3-compatible endpoint) or aws (native SDK)"`
	Endpoint        string `json:"endpoint,omitempty" jsonschema:"Endpoint host:port (defaults to AWS S3 for the region)"`
	Region          string `json:"region,omitempty" jsonschema:"Region (required for the aws backend)"`
	Bucket          string `json:"bucket" jsonschema:"Bucket name"`
	Prefix          string `json:"prefix,omitempty" jsonschema:"Key prefix prepended to every object key"`
	AccessKeyID     string `json:"access_key_id,omitempty" jsonschema:"Static access key (environment credential chain when empty)"`
	SecretAccessKey string `json:"secret_access_key,omitempty" jsonschema:"Static secret key"`
	Insecure        bool   `json:"insecure,omitempty" jsonschema:"Use plain HTTP to the endpoint"`
	ForcePathStyle  bool   `json:"force_path_style,omitempty" jsonschema:"Use path-style bucket addressing"`
}

type storageConfigureOutput struct {
	Connection string `json:"connection"`
	Backend    string `json:"backend"`
	Bucket     string `json:"bucket"`
}

func (s *server) handleStorageConfigureTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageConfigureInput) (*mcpsdk.CallToolResult, storageConfigureOutput, error) {
	params := storage.ConnectionParams{
		Name:            strings.TrimSpace(input.Connection),
		Backend:         strings.ToLower(strings.TrimSpace(input.Backend)),
		Endpoint:        strings.TrimSpace(input.Endpoint),
		Region:          strings.TrimSpace(input.Region),
		Bucket:          strings.TrimSpace(input.Bucket),
		Prefix:          strings.TrimSpace(input.Prefix),
		AccessKeyID:     input.AccessKeyID,
		SecretAccessKey: input.SecretAccessKey,
		Insecure:        input.Insecure,
		ForcePathStyle:  input.ForcePathStyle,
	}
	if err := s.connector.Configure(params); err != nil {
		return nil, storageConfigureOutput{}, err
	}
	return nil, storageConfigureOutput{
		Connection: params.Name,
		Backend:    params.Backend,
		Bucket:     params.Bucket,
	}, nil
}

type storageConnectionEntry struct {
	Connection string `json:"connection"`
	Backend    string `json:"backend"`
	Endpoint   string `json:"endpoint,omitempty"`
	Region     string `json:"region,omitempty"`
	Bucket     string `json:"bucket"`
	Prefix     string `json:"prefix,omitempty"`
}

type storageConnectionsOutput struct {
	Connections []storageConnectionEntry `json:"connections"`
}

func (s *server) handleStorageConnectionsTool(ctx context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, storageConnectionsOutput, error) {
	names := s.connector.Names()
	out := storageConnectionsOutput{Connections: make([]storageConnectionEntry, 0, len(names))}
	for _, name := range names {
		params, err := s.connector.Params(name)
		if err != nil {
			continue
		}
		out.Connections = append(out.Connections, storageConnectionEntry{
			Connection: params.Name,
			Backend:    params.Backend,
			Endpoint:   params.Endpoint,
			Region:     params.Region,
			Bucket:     params.Bucket,
			Prefix:     params.Prefix,
		})
	}
	return nil, out, nil
}

type storageUploadInput struct {
	Connection string `json:"connection" jsonschema:"Configured connection name"`
	Key        string `json:"key" jsonschema:"Object key to upload to"`
	DeckID     string `json:"deck_id,omitempty" jsonschema:"Deck to upload (defaults to the current deck)"`
}

type storageUploadOutput struct {
	Connection string `json:"connection"`
	Key        string `json:"key"`
	DeckID     string `json:"deck_id"`
	SizeBytes  int64  `json:"size_bytes"`
	Size       string `json:"size"`
	ETag       string `json:"etag,omitempty"`
}

func (s *server) handleStorageUploadTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageUploadInput) (*mcpsdk.CallToolResult, storageUploadOutput, error) {
	store, key, err := s.resolveStore(input.Connection, input.Key)
	if err != nil {
		return nil, storageUploadOutput{}, err
	}
	deck, err := s.manager.Deck(input.DeckID)
	if err != nil {
		return nil, storageUploadOutput{}, err
	}
	data, err := s.manager.ExportBytes(deck.Identifier)
	if err != nil {
		return nil, storageUploadOutput{}, err
	}
	info, err := store.Put(ctx, key, data, storage.ContentTypePresentation)
	if err != nil {
		return nil, storageUploadOutput{}, err
	}
	return nil, storageUploadOutput{
		Connection: input.Connection,
		Key:        key,
		DeckID:     deck.Identifier,
		SizeBytes:  info.Size,
		Size:       humanize.Bytes(uint64(info.Size)),
		ETag:       info.ETag,
	}, nil
}

type storageDownloadInput struct {
	Connection string `json:"connection" jsonschema:"Configured connection name"`
	Key        string `json:"key" jsonschema:"Object key to download"`
	DeckID     string `json:"deck_id,omitempty" jsonschema:"Identifier for the downloaded deck (generated when empty)"`
}

type storageDownloadOutput struct {
	Connection string `json:"connection"`
	Key        string `json:"key"`
	DeckID     string `json:"deck_id"`
	SizeBytes  int64  `json:"size_bytes"`
	Size       string `json:"size"`
	SlideCount int    `json:"slide_count"`
}

func (s *server) handleStorageDownloadTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageDownloadInput) (*mcpsdk.CallToolResult, storageDownloadOutput, error) {
	store, key, err := s.resolveStore(input.Connection, input.Key)
	if err != nil {
		return nil, storageDownloadOutput{}, err
	}
	data, _, err := store.Get(ctx, key)
	if err != nil {
		return nil, storageDownloadOutput{}, err
	}
	id, err := s.manager.ImportBytes(data, input.DeckID)
	if err != nil {
		return nil, storageDownloadOutput{}, err
	}
	deck, err := s.manager.Deck(id)
	if err != nil {
		return nil, storageDownloadOutput{}, err
	}
	return nil, storageDownloadOutput{
		Connection: input.Connection,
		Key:        key,
		DeckID:     id,
		SizeBytes:  int64(len(data)),
		Size:       humanize.Bytes(uint64(len(data))),
		SlideCount: deck.Presentation.SlideCount(),
	}, nil
}

type storageListInput struct {
	Connection string `json:"connection" jsonschema:"Configured connection name"`
	Prefix     string `json:"prefix,omitempty" jsonschema:"Key prefix filter"`
}

type storageObjectEntry struct {
	Key          string `json:"key"`
	SizeBytes    int64  `json:"size_bytes"`
	Size         string `json:"size"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

type storageListOutput struct {
	Connection string               `json:"connection"`
	Objects    []storageObjectEntry `json:"objects"`
}

func (s *server) handleStorageListTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageListInput) (*mcpsdk.CallToolResult, storageListOutput, error) {
	name := strings.TrimSpace(input.Connection)
	if name == "" {
		return nil, storageListOutput{}, fmt.Errorf("connection is required")
	}
	store, err := s.connector.Store(name)
	if err != nil {
		return nil, storageListOutput{}, err
	}
	infos, err := store.List(ctx, strings.TrimSpace(input.Prefix))
	if err != nil {
		return nil, storageListOutput{}, err
	}
	out := storageListOutput{Connection: name, Objects: make([]storageObjectEntry, 0, len(infos))}
	for _, info := range infos {
		out.Objects = append(out.Objects, objectEntry(info))
	}
	return nil, out, nil
}

type storageDeleteInput struct {
	Connection string `json:"connection" jsonschema:"Configured connection name"`
	Key        string `json:"key" jsonschema:"Object key to delete"`
}

type storageDeleteOutput struct {
	Connection string `json:"connection"`
	Key        string `json:"key"`
	Deleted    bool   `json:"deleted"`
}

func (s *server) handleStorageDeleteTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageDeleteInput) (*mcpsdk.CallToolResult, storageDeleteOutput, error) {
	store, key, err := s.resolveStore(input.Connection, input.Key)
	if err != nil {
		return nil, storageDeleteOutput{}, err
	}
	if err := store.Delete(ctx, key); err != nil {
		return nil, storageDeleteOutput{}, err
	}
	return nil, storageDeleteOutput{Connection: input.Connection, Key: key, Deleted: true}, nil
}

type storageStatInput struct {
	Connection string `json:"connection" jsonschema:"Configured connection name"`
	Key        string `json:"key" jsonschema:"Object key to inspect"`
}

type storageStatOutput struct {
	Connection   string `json:"connection"`
	Key          string `json:"key"`
	SizeBytes    int64  `json:"size_bytes"`
	Size         string `json:"size"`
	ETag         string `json:"etag,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func (s *server) handleStorageStatTool(ctx context.Context, _ *mcpsdk.CallToolRequest, input storageStatInput) (*mcpsdk.CallToolResult, storageStatOutput, error) {
	store, key, err := s.resolveStore(input.Connection, input.Key)
	if err != nil {
		return nil, storageStatOutput{}, err
	}
	info, err := store.Stat(ctx, key)
	if err != nil {
		return nil, storageStatOutput{}, err
	}
	return nil, storageStatOutput{
		Connection:   input.Connection,
		Key:          key,
		SizeBytes:    info.Size,
		Size:         humanize.Bytes(uint64(info.Size)),
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: formatModified(info.LastModified),
	}, nil
}

func (s *server) resolveStore(connection, key string) (storage.ObjectStore, string, error) {
	name := strings.TrimSpace(connection)
	if name == "" {
		return nil, "", fmt.Errorf("connection is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, "", fmt.Errorf("key is required")
	}
	store, err := s.connector.Store(name)
	if err != nil {
		return nil, "", err
	}
	return store, key, nil
}

func objectEntry(info storage.ObjectInfo) storageObjectEntry {
	return storageObjectEntry{
		Key:          info.Key,
		SizeBytes:    info.Size,
		Size:         humanize.Bytes(uint64(info.Size)),
		ETag:         info.ETag,
		LastModified: formatModified(info.LastModified),
	}
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
