// Package mcp exposes deckd's presentation and storage operations as MCP
// tools, served over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/deckd"
	"pkt.systems/deckd/internal/svcfields"
	"pkt.systems/deckd/storage"
	"pkt.systems/deckd/templates"
	"pkt.systems/pslog"
)

// Transport values accepted by Config.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config controls deckd MCP server runtime behavior.
type Config struct {
	Listen             string
	Transport          string
	HTTPPath           string
	MetricsEnabled     bool
	BaseDir            string
	TemplateDir        string
	AllowAbsolutePaths bool
	DefaultAspectRatio string
}

// Server is the MCP service contract.
type Server interface {
	Run(context.Context) error
}

// NewServerRequest wraps constructor inputs.
type NewServerRequest struct {
	Config Config
	Logger pslog.Logger
}

type server struct {
	cfg          Config
	logger       pslog.Logger
	lifecycleLog pslog.Logger
	toolLog      pslog.Logger
	manager      *deckd.Manager
	connector    *storage.Connector
	inventory    *templates.Inventory
	telemetry    *telemetry
	mcpServer    *mcpsdk.Server
	httpServer   *http.Server
	httpPath     string
}

// NewServer constructs the deckd MCP service.
func NewServer(req NewServerRequest) (Server, error) {
	cfg := req.Config
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := req.Logger
	if logger == nil {
		logger = pslog.NewStructured(os.Stderr).With("app", "deckd")
	}

	deckCfg := deckd.Config{
		BaseDir:            cfg.BaseDir,
		TemplateDir:        cfg.TemplateDir,
		AllowAbsolutePaths: cfg.AllowAbsolutePaths,
		DefaultAspectRatio: cfg.DefaultAspectRatio,
	}
	manager, err := deckd.NewManager(deckCfg, deckd.NewRegistry(), svcfields.WithSubsystem(logger, "deck.lifecycle"))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(manager.Config().TemplateDir, 0o755); err != nil {
		return nil, fmt.Errorf("mcp: prepare template directory: %w", err)
	}
	inventory, err := templates.NewInventory(manager.Config().TemplateDir, svcfields.WithSubsystem(logger, "templates.inventory"))
	if err != nil {
		return nil, err
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		lifecycleLog: svcfields.WithSubsystem(logger, "server.lifecycle.mcp"),
		toolLog:      svcfields.WithSubsystem(logger, "mcp.tools"),
		manager:      manager,
		connector:    storage.NewConnector(svcfields.WithSubsystem(logger, "storage.connector")),
		inventory:    inventory,
		telemetry:    newTelemetry(),
		httpPath:     cleanHTTPPath(cfg.HTTPPath),
	}

	s.mcpServer = s.buildMCPServer()
	if cfg.Transport == TransportHTTP {
		s.httpServer = &http.Server{
			Addr:    cfg.Listen,
			Handler: s.buildMux(),
		}
	}
	return s, nil
}

func (s *server) Run(ctx context.Context) error {
	s.lifecycleLog.Info("starting deckd MCP server",
		"transport", s.cfg.Transport,
		"listen", s.cfg.Listen,
		"http_path", s.httpPath,
		"base_dir", s.manager.Config().BaseDir,
		"template_dir", s.manager.Config().TemplateDir)

	if err := s.inventory.Watch(); err != nil {
		// Template listings still work through rescans on resolve.
		s.lifecycleLog.Warn("template watcher unavailable", "error", err)
	}
	defer s.inventory.Close()

	if s.cfg.Transport == TransportStdio {
		return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) buildMCPServer() *mcpsdk.Server {
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "deckd",
		Version: "0.1.0",
	}, &mcpsdk.ServerOptions{
		Instructions: serverInstructions(s.cfg),
	})
	s.registerTools(srv)
	return srv
}

func (s *server) buildMux() *http.ServeMux {
	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return s.mcpServer
	}, nil)
	mux := http.NewServeMux()
	mux.Handle(s.httpPath, streamable)
	if s.cfg.MetricsEnabled {
		mux.Handle("/metrics", s.telemetry.httpHandler())
	}
	return mux
}

func (s *server) registerTools(srv *mcpsdk.Server) {
	descriptions := buildToolDescriptions(s.cfg)
	desc := func(name string) string {
		description, ok := descriptions[name]
		if !ok {
			panic(fmt.Sprintf("missing MCP tool description for %q", name))
		}
		return description
	}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckCreate,
		Description: desc(toolDeckCreate),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckCreate, s.handleDeckCreateTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckOpen,
		Description: desc(toolDeckOpen),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckOpen, s.handleDeckOpenTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckSave,
		Description: desc(toolDeckSave),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckSave, s.handleDeckSaveTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckClose,
		Description: desc(toolDeckClose),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckClose, s.handleDeckCloseTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckList,
		Description: desc(toolDeckList),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckList, s.handleDeckListTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckSwitch,
		Description: desc(toolDeckSwitch),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckSwitch, s.handleDeckSwitchTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckInfo,
		Description: desc(toolDeckInfo),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckInfo, s.handleDeckInfoTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckPropertiesSet,
		Description: desc(toolDeckPropertiesSet),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckPropertiesSet, s.handleDeckPropertiesSetTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolDeckSlideAdd,
		Description: desc(toolDeckSlideAdd),
	}, instrumentTool(s.telemetry, s.toolLog, toolDeckSlideAdd, s.handleDeckSlideAddTool))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolTemplateList,
		Description: desc(toolTemplateList),
	}, instrumentTool(s.telemetry, s.toolLog, toolTemplateList, s.handleTemplateListTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolTemplateInfo,
		Description: desc(toolTemplateInfo),
	}, instrumentTool(s.telemetry, s.toolLog, toolTemplateInfo, s.handleTemplateInfoTool))

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageConfigure,
		Description: desc(toolStorageConfigure),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageConfigure, s.handleStorageConfigureTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageConnections,
		Description: desc(toolStorageConnections),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageConnections, s.handleStorageConnectionsTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageUpload,
		Description: desc(toolStorageUpload),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageUpload, s.handleStorageUploadTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageDownload,
		Description: desc(toolStorageDownload),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageDownload, s.handleStorageDownloadTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageList,
		Description: desc(toolStorageList),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageList, s.handleStorageListTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageDelete,
		Description: desc(toolStorageDelete),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageDelete, s.handleStorageDeleteTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolStorageStat,
		Description: desc(toolStorageStat),
	}, instrumentTool(s.telemetry, s.toolLog, toolStorageStat, s.handleStorageStatTool))
}

func serverInstructions(cfg Config) string {
	aspect := strings.TrimSpace(cfg.DefaultAspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}
	return strings.Join([]string{
		"deckd builds and edits PowerPoint (.pptx) presentations.",
		"Decks live in memory and are addressed by deck_id; most tools default to the current deck when deck_id is omitted.",
		"Start with deck.create or deck.open, mutate with deck.slide.add and deck.properties.set, persist with deck.save.",
		fmt.Sprintf("New blank decks default to the %s aspect ratio.", aspect),
		"File paths resolve inside the configured base directory; template names resolve inside the template directory.",
		"storage.* tools move decks between memory and S3-compatible buckets through named connections registered with storage.configure.",
	}, "\n")
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Transport) == "" {
		cfg.Transport = TransportStdio
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:8721"
	}
	if strings.TrimSpace(cfg.HTTPPath) == "" {
		cfg.HTTPPath = "/mcp"
	}
	if strings.TrimSpace(cfg.DefaultAspectRatio) == "" {
		cfg.DefaultAspectRatio = "16:9"
	}
}

func validateConfig(cfg Config) error {
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("mcp: invalid transport %q (expected stdio|http)", cfg.Transport)
	}
	if cfg.Transport == TransportHTTP && strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("mcp: listen address required for http transport")
	}
	return nil
}

func cleanHTTPPath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "/mcp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
