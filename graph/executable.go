package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"

	"shopify-insights-layer/internal/infrastructure/api"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var schemaSDL string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})

type executableSchema struct {
	resolver *Resolver
}

// NewExecutableSchema binds the resolver to the schema
func NewExecutableSchema(r *Resolver) graphql.ExecutableSchema {
	return &executableSchema{resolver: r}
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(_ context.Context, _, _ string, childComplexity int, _ map[string]any) (int, bool) {
	return childComplexity + 1, true
}

// Exec runs one operation for the tenant carried by the request context
func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	principal, ok := api.PrincipalFrom(ctx)
	if !ok {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unauthorized"))
	}

	switch opCtx.Operation.Operation {
	case ast.Query:
		data, err := e.query(ctx, opCtx, principal.TenantID)
		if err != nil {
			e.resolver.logger.Debug().Err(err).Str("tenantId", principal.TenantID).Msg("GraphQL query failed")
			return graphql.OneShot(graphql.ErrorResponse(ctx, "%s", publicMessage(err)))
		}
		return graphql.OneShot(&graphql.Response{Data: data})
	case ast.Subscription:
		return e.subscribe(ctx, opCtx, principal.TenantID)
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported operation: %s", opCtx.Operation.Operation))
	}
}

func (e *executableSchema) query(ctx context.Context, opCtx *graphql.OperationContext, tenantID string) (json.RawMessage, error) {
	root := object{}
	for _, field := range graphql.CollectFields(opCtx, opCtx.Operation.SelectionSet, []string{"Query"}) {
		var (
			value object
			err   error
		)
		switch field.Name {
		case "stats":
			value, err = e.resolver.resolveStats(ctx, tenantID, field.ArgumentMap(opCtx.Variables))
		case "me":
			value, err = e.resolver.resolveMe(ctx, tenantID)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		root[field.Name] = value
	}

	var buf bytes.Buffer
	if err := writeObject(&buf, opCtx, opCtx.Operation.SelectionSet, "Query", root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// subscribe opens the tenant's event stream; each event becomes one response
// until the client stops or the subscription closes.
func (e *executableSchema) subscribe(ctx context.Context, opCtx *graphql.OperationContext, tenantID string) graphql.ResponseHandler {
	fields := graphql.CollectFields(opCtx, opCtx.Operation.SelectionSet, []string{"Subscription"})
	if len(fields) != 1 || fields[0].Name != "orderSynced" {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "subscription must select orderSynced"))
	}
	field := fields[0]
	sub := e.resolver.events.Subscribe(ctx, tenantID)

	return func(ctx context.Context) *graphql.Response {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case ev, ok := <-sub.Events:
			if !ok {
				return nil
			}
			var buf bytes.Buffer
			buf.WriteByte('{')
			writeKey(&buf, field.Alias)
			if err := writeObject(&buf, opCtx, field.Selections, "TenantEvent", eventObject(ev)); err != nil {
				return graphql.ErrorResponse(ctx, "%s", publicMessage(err))
			}
			buf.WriteByte('}')
			return &graphql.Response{Data: buf.Bytes()}
		}
	}
}

// writeObject writes the selected fields of obj in selection order
func writeObject(buf *bytes.Buffer, opCtx *graphql.OperationContext, sel ast.SelectionSet, typeName string, obj object) error {
	buf.WriteByte('{')
	for i, field := range graphql.CollectFields(opCtx, sel, []string{typeName}) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(buf, field.Alias)
		if field.Name == "__typename" {
			if err := writeLeaf(buf, typeName); err != nil {
				return err
			}
			continue
		}
		if err := writeValue(buf, opCtx, field, obj[field.Name]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, opCtx *graphql.OperationContext, field graphql.CollectedField, v any) error {
	switch val := v.(type) {
	case nil:
		if field.Definition != nil && field.Definition.Type.Elem != nil {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("null")
		return nil
	case object:
		return writeObject(buf, opCtx, field.Selections, field.Definition.Type.Name(), val)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, opCtx, field, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return writeLeaf(buf, val)
	}
}

func writeKey(buf *bytes.Buffer, key string) {
	_ = writeLeaf(buf, key)
	buf.WriteByte(':')
}

func writeLeaf(buf *bytes.Buffer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
