package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/poiesic/talentload/normalize"
	"github.com/poiesic/talentload/storage"
)

// toClass maps a collection definition onto a Weaviate class. Top-level
// properties not covered by the vectorizer policy are marked skip.
func toClass(def *storage.CollectionDefinition) *models.Class {
	policy := def.Vectorizer
	vectorizing := policy.Module != "" && policy.Module != "none"

	class := &models.Class{
		Class:      def.Name,
		Vectorizer: "none",
		Properties: make([]*models.Property, 0, len(def.Properties)),
	}
	if vectorizing {
		class.Vectorizer = policy.Module
		moduleCfg := map[string]any{"vectorizeClassName": false}
		if policy.Model != "" {
			moduleCfg["model"] = policy.Model
		}
		class.ModuleConfig = map[string]any{policy.Module: moduleCfg}
	}

	for _, p := range def.Properties {
		prop := &models.Property{
			Name:             p.Name,
			DataType:         []string{string(p.DataType)},
			NestedProperties: toNested(p.Nested),
		}
		if vectorizing {
			prop.ModuleConfig = map[string]any{
				policy.Module: map[string]any{"skip": !policy.Vectorizes(p.Name)},
			}
		}
		class.Properties = append(class.Properties, prop)
	}
	return class
}

func toNested(props []storage.Property) []*models.NestedProperty {
	if len(props) == 0 {
		return nil
	}
	out := make([]*models.NestedProperty, len(props))
	for i, p := range props {
		out[i] = &models.NestedProperty{
			Name:             p.Name,
			DataType:         []string{string(p.DataType)},
			NestedProperties: toNested(p.Nested),
		}
	}
	return out
}

// selectFields builds the GraphQL selection for every property of def plus
// the additional id and distance.
func selectFields(def *storage.CollectionDefinition) []graphql.Field {
	fields := propertyFields(def.Properties)
	return append(fields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}},
	})
}

func propertyFields(props []storage.Property) []graphql.Field {
	fields := make([]graphql.Field, len(props))
	for i, p := range props {
		fields[i] = graphql.Field{Name: p.Name, Fields: propertyFields(p.Nested)}
		if len(p.Nested) == 0 {
			fields[i].Fields = nil
		}
	}
	return fields
}

// canonicalizeDates rewrites date values returned by the store (RFC 3339,
// usually with a "Z" suffix) into the canonical "+00:00" form.
func canonicalizeDates(props map[string]any, defs []storage.Property) {
	for _, p := range defs {
		switch p.DataType {
		case storage.DataTypeDate:
			if s, ok := props[p.Name].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					props[p.Name] = t.UTC().Format(normalize.CanonicalLayout)
				}
			}
		case storage.DataTypeObject:
			if m, ok := props[p.Name].(map[string]any); ok {
				canonicalizeDates(m, p.Nested)
			}
		case storage.DataTypeObjectArray:
			if items, ok := props[p.Name].([]any); ok {
				for _, item := range items {
					if m, ok := item.(map[string]any); ok {
						canonicalizeDates(m, p.Nested)
					}
				}
			}
		}
	}
}

// aggregateCount extracts Aggregate.<class>[0].meta.count from a response.
func aggregateCount(resp *models.GraphQLResponse, class string) (int, error) {
	if err := graphQLError(resp); err != nil {
		return 0, err
	}
	rows, err := graphQLRows(resp, "Aggregate", class)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	meta, _ := rows[0]["meta"].(map[string]any)
	count, ok := meta["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: aggregate response has no meta.count", storage.ErrUnavailable)
	}
	return int(count), nil
}

// graphQLRows returns Data[root][class] as a list of objects.
func graphQLRows(resp *models.GraphQLResponse, root, class string) ([]map[string]any, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty GraphQL response", storage.ErrUnavailable)
	}
	byClass, ok := resp.Data[root].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: GraphQL response has no %s", storage.ErrUnavailable, root)
	}
	items, _ := byClass[class].([]any)
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

// graphQLError turns GraphQL-level errors into storage errors. Weaviate
// reports an unknown class as a schema error on the query itself.
func graphQLError(resp *models.GraphQLResponse) error {
	if resp == nil || len(resp.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	notFound := false
	for _, e := range resp.Errors {
		if e == nil {
			continue
		}
		msgs = append(msgs, e.Message)
		if strings.Contains(e.Message, "Cannot query field") {
			notFound = true
		}
	}
	if notFound {
		return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %s", storage.ErrUnavailable, strings.Join(msgs, "; "))
}

// classify maps a client error onto the storage error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var wce *fault.WeaviateClientError
	if errors.As(err, &wce) && wce.IsUnexpectedStatusCode {
		switch code := wce.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrCollectionNotFound, err)
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
		case code >= 400 && code < 500:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrRejected, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, storage.ErrUnavailable, err)
}

// splitURL turns a cluster URL into the scheme and host the client expects.
// A bare host defaults to https.
func splitURL(raw string) (scheme, host string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("weaviate URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing weaviate URL: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("weaviate URL %q has no host", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("weaviate URL %q has unsupported scheme %q", raw, u.Scheme)
	}
	return u.Scheme, u.Host, nil
}
