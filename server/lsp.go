package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/kkipple/compiler"
	"github.com/chazu/kkipple/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "kkipple-lsp"

var log = commonlog.GetLogger("kkipple.server")

// LspServer provides diagnostics, hover and completion for Kkipple sources.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("Kkipple LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{">", "<", "+", "-", "("},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return complete(text), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return hover(text, params.Position), nil
}

// complete offers the special stacks and every stack the document names.
func complete(text string) []protocol.CompletionItem {
	seen := map[string]bool{"io": true, "@": true, "&": true, "0": true, "C": true}
	for _, tok := range compiler.Tokenize(text) {
		if tok.Type == compiler.TokenStack {
			seen[compiler.CanonicalStackName(tok.Literal)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	kind := protocol.CompletionItemKindVariable
	items := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		detail := vm.VariantOf(name).String() + " stack"
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items
}

var variantDocs = map[vm.Variant]string{
	vm.Generic: "Plain stack. `?` clears it when the top is 0.",
	vm.IO:      "Reads one input character when read while empty. `*` writes the whole stack to output, top first.",
	vm.Digits:  "Pushes split numbers into digit codes. `*` folds the digits back into one number and flips the mode.",
	vm.Exec:    "`*` runs the stack contents as code ahead of everything queued.",
	vm.Null:    "Discards every push and always reads 0.",
	vm.Copy:    "Holds one value. Reading it never removes the value.",
}

// hover describes the stack named under the cursor.
func hover(text string, pos protocol.Position) *protocol.Hover {
	tok, ok := stackAt(text, pos)
	if !ok {
		return nil
	}
	name := compiler.CanonicalStackName(tok.Literal)
	variant := vm.VariantOf(name)

	refs := 0
	for _, t := range compiler.Tokenize(text) {
		if t.Type == compiler.TokenStack && compiler.CanonicalStackName(t.Literal) == name {
			refs++
		}
	}

	start := protocol.Position{Line: pos.Line, Character: protocol.UInteger(tok.Pos.Column - 1)}
	end := protocol.Position{Line: pos.Line, Character: start.Character + protocol.UInteger(len(tok.Literal))}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("**%s** (%s stack)\n\n%s\n\nReferenced %d times.", name, variant, variantDocs[variant], refs),
		},
		Range: &protocol.Range{Start: start, End: end},
	}
}

// stackAt returns the stack token under the cursor. Tokenizing stops at
// the first lexical error, so later stacks are not found until it is fixed.
func stackAt(text string, pos protocol.Position) (compiler.Token, bool) {
	line := int(pos.Line) + 1
	col := int(pos.Character) + 1
	for _, tok := range compiler.Tokenize(text) {
		if tok.Type != compiler.TokenStack || tok.Pos.Line != line {
			continue
		}
		if col >= tok.Pos.Column && col < tok.Pos.Column+len(tok.Literal) {
			return tok, true
		}
	}
	return compiler.Token{}, false
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text)
	log.Debugf("%s: %d diagnostics", uri, len(diagnostics))

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose parses text and reports its syntax error, if any, at the
// offending character.
func diagnose(text string) []protocol.Diagnostic {
	_, err := compiler.Parse(text)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	var start protocol.Position
	msg := err.Error()
	if se, ok := err.(*compiler.SyntaxError); ok {
		start = protocol.Position{
			Line:      protocol.UInteger(se.Pos.Line - 1),
			Character: protocol.UInteger(se.Pos.Column - 1),
		}
		msg = se.Msg
	}
	end := protocol.Position{Line: start.Line, Character: start.Character + 1}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}}
}

func boolPtr(b bool) *bool {
	return &b
}
