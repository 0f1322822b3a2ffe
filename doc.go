// Package deckd exposes the Go APIs behind the PowerPoint authoring MCP
// server. The binary speaks the Model Context Protocol over stdio or
// streamable HTTP, but the package also makes it easy to embed the deck
// lifecycle in other Go programs: open and create .pptx files, add slides,
// set document properties, and move decks in and out of S3-compatible
// object storage.
//
// # Deck lifecycle
//
// A Manager owns every open deck and a Registry tracks which one is
// current. Paths supplied by callers are sanitized against Config.BaseDir
// before any filesystem access happens.
//
//	cfg := deckd.Config{BaseDir: "/srv/decks"}
//	mgr, err := deckd.NewManager(cfg, deckd.NewRegistry(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, err := mgr.Create(deckd.CreateRequest{Identifier: "quarterly"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	deck, err := mgr.Deck(id)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	deck.Presentation.AddSlide("Agenda", "One\nTwo")
//	if _, err := mgr.Save(deckd.SaveRequest{Identifier: id, Path: "quarterly.pptx"}); err != nil {
//	    log.Fatal(err)
//	}
//
// # Serving MCP
//
// The mcp subpackage wraps a Manager, a template inventory, and a storage
// connector into a tool surface. cmd/deckd wires it behind cobra and viper.
//
//	srv, err := mcp.NewServer(mcp.NewServerRequest{
//	    Config: mcp.Config{Transport: mcp.TransportStdio, BaseDir: "/srv/decks"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Errors returned by the lifecycle are typed (UnknownIdentifierError,
// DuplicateIdentifierError, TemplateNotFoundError, and friends) so callers
// and the MCP error envelope can classify them with errors.As.
package deckd
