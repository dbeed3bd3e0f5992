package gcpclient

import (
	"context"
	"fmt"
	"log/slog"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/clinicalcore/retrieval-core/internal/pipeline"
)

// DocumentAIAdapter calls the Document AI API directly for OCR/text
// extraction from a GCS-hosted document.
type DocumentAIAdapter struct {
	client   *documentai.DocumentProcessorClient
	project  string
	location string
}

// NewDocumentAIAdapter creates a new Document AI client.
// location is typically "us" or "eu" for Document AI (multi-region).
func NewDocumentAIAdapter(ctx context.Context, project, location string) (*DocumentAIAdapter, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("gcpclient.NewDocumentAIAdapter: %w", err)
	}

	return &DocumentAIAdapter{
		client:   client,
		project:  project,
		location: location,
	}, nil
}

// processDocument sends a GCS document to Document AI for text extraction.
// processor is the full resource name: projects/{p}/locations/{l}/processors/{id}
func (a *DocumentAIAdapter) processDocument(ctx context.Context, processor, gcsURI, mimeType string) (*pipeline.ParseResult, error) {
	req := &documentaipb.ProcessRequest{
		Name: processor,
		Source: &documentaipb.ProcessRequest_GcsDocument{
			GcsDocument: &documentaipb.GcsDocument{
				GcsUri:   gcsURI,
				MimeType: mimeType,
			},
		},
	}

	resp, err := a.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("gcpclient.ProcessDocument: %w", err)
	}
	if resp.Document == nil {
		return nil, fmt.Errorf("gcpclient.ProcessDocument: nil document in response")
	}

	pageCount := len(resp.Document.Pages)
	slog.Info("document AI extracted text", "pages", pageCount, "chars", len(resp.Document.Text))

	return &pipeline.ParseResult{Text: resp.Document.Text, Pages: pageCount}, nil
}

// HealthCheck verifies the Document AI connection by listing processors.
func (a *DocumentAIAdapter) HealthCheck(ctx context.Context) error {
	parent := fmt.Sprintf("projects/%s/locations/%s", a.project, a.location)
	req := &documentaipb.ListProcessorsRequest{Parent: parent}

	iter := a.client.ListProcessors(ctx, req)
	_, err := iter.Next()
	if err != nil && err != iterator.Done {
		return fmt.Errorf("gcpclient.DocumentAI.HealthCheck: %w", err)
	}

	slog.Info("document AI health check passed", "project", a.project, "location", a.location)
	return nil
}

// Close releases the underlying gRPC connection.
func (a *DocumentAIAdapter) Close() {
	a.client.Close()
}

// DocAIParser implements pipeline.Parser by routing a gs:// source through
// Document AI with a fixed processor and mime type — the adapter the
// ingestion pipeline wires for scanned/PDF/Office documents, as opposed to
// LocalFileParser's plain-text path.
type DocAIParser struct {
	adapter   *DocumentAIAdapter
	processor string
	mimeType  string
}

// NewDocAIParser builds a pipeline.Parser backed by an already-dialed
// DocumentAIAdapter, a full processor resource name, and the mime type of
// the documents it will be asked to parse.
func NewDocAIParser(adapter *DocumentAIAdapter, processor, mimeType string) *DocAIParser {
	return &DocAIParser{adapter: adapter, processor: processor, mimeType: mimeType}
}

func (p *DocAIParser) Extract(ctx context.Context, gcsURI string) (*pipeline.ParseResult, error) {
	return p.adapter.processDocument(ctx, p.processor, gcsURI, p.mimeType)
}

var _ pipeline.Parser = (*DocAIParser)(nil)
