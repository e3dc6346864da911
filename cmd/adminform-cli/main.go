package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-adminform/pkg/openapi"
	"github.com/goliatone/go-adminform/pkg/renderers/tui"
	"github.com/goliatone/go-adminform/pkg/schema"
	"github.com/goliatone/go-adminform/pkg/session"
	"github.com/goliatone/go-adminform/pkg/submit"
)

func main() {
	schemaPath := flag.String("schema", "", "schema document path (JSON Schema, or OpenAPI with -component)")
	component := flag.String("component", "", "OpenAPI component schema to edit")
	valuesPath := flag.String("values", "", "document under edit (JSON); empty starts a new document")
	endpoint := flag.String("endpoint", "", "submit endpoint path, e.g. /models/customer")
	baseURL := flag.String("base-url", "", "backend base URL; empty prints the document instead of submitting")
	update := flag.Bool("update", false, "update an existing document (PUT instead of POST)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *schemaPath == "" {
		log.Fatal("missing -schema")
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("logger: %v", err)
		}
		defer func() { _ = logger.Sync() }()
	}

	ctx := context.Background()

	doc, err := loadSchema(ctx, *schemaPath, *component)
	if err != nil {
		log.Fatalf("load schema: %v", err)
	}

	initial, err := loadValues(*valuesPath)
	if err != nil {
		log.Fatalf("load values: %v", err)
	}

	opts := []session.Option{session.WithLogger(logger)}
	if *baseURL != "" {
		method := submit.MethodCreate
		if *update {
			method = submit.MethodUpdate
		}
		sink := submit.NewHTTPSink(*baseURL, submit.WithLogger(logger))
		opts = append(opts, session.WithSink(sink, *endpoint, method))
	} else {
		opts = append(opts, session.WithSink(printSink{}, *endpoint, submit.MethodCreate))
	}

	s, err := session.New(doc, initial, opts...)
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	defer s.Close()

	renderer := tui.NewRenderer(tui.WithLogger(logger))
	document, err := renderer.Run(ctx, s)
	if err != nil {
		if errors.Is(err, tui.ErrCancelled) || errors.Is(err, tui.ErrAborted) {
			os.Exit(1)
		}
		log.Fatalf("edit: %v", err)
	}

	out, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		log.Fatalf("encode document: %v", err)
	}
	fmt.Println(string(out))
}

func loadSchema(ctx context.Context, path, component string) (*schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if component != "" {
		defs, err := openapi.Definitions(ctx, raw)
		if err != nil {
			return nil, err
		}
		return openapi.Document(defs, component)
	}
	return schema.ParseDocument(raw)
}

func loadValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// printSink stands in for the backend when no base URL is configured: the
// finished document lands on stdout through the normal submit path.
type printSink struct{}

func (printSink) Submit(_ context.Context, _ string, _ submit.Method, _ map[string]any) error {
	return nil
}
