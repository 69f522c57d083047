// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/fundacaoguia/portal/internal/model"
	"github.com/fundacaoguia/portal/internal/schema"
)

// Resource is the admin client for one resource kind.
type Resource struct {
	client *Client
	kind   *schema.Kind
}

// Resource returns the client for a kind.
func (c *Client) Resource(kind *schema.Kind) *Resource {
	return &Resource{client: c, kind: kind}
}

// List returns the kind's records. Network failures, malformed bodies and
// non-200 envelopes yield an empty list.
func (r *Resource) List(ctx context.Context, params url.Values) []model.Record {
	query := url.Values{}
	for k, v := range r.kind.List.Query {
		query.Set(k, v)
	}
	for k, v := range params {
		query[k] = v
	}
	return decodeList[model.Record](ctx, r.client, r.kind.List.Path, query, r.kind.ResponseKey)
}

// Find returns the record with the given id from a fresh list read.
func (r *Resource) Find(ctx context.Context, id string) (model.Record, bool) {
	for _, rec := range r.List(ctx, nil) {
		if rec.ID() == id {
			return rec, true
		}
	}
	return nil, false
}

// Create posts a new record.
func (r *Resource) Create(ctx context.Context, token string, payload model.Record) (model.Record, error) {
	env, err := r.client.mutate(ctx, http.MethodPost, r.kind.Create, token, payload)
	if err != nil {
		return nil, err
	}
	return r.echo(env, payload), nil
}

// Update patches an existing record.
func (r *Resource) Update(ctx context.Context, token, id string, payload model.Record) (model.Record, error) {
	if !r.kind.CanUpdate() {
		return nil, ErrUnsupported
	}
	env, err := r.client.mutate(ctx, http.MethodPatch, r.kind.Update+"/"+url.PathEscape(id), token, payload)
	if err != nil {
		return nil, err
	}
	rec := r.echo(env, payload)
	if _, ok := rec["id"]; !ok {
		rec["id"] = id
	}
	return rec, nil
}

// Remove deletes a record. Failures are not retried.
func (r *Resource) Remove(ctx context.Context, token, id string) error {
	_, err := r.client.mutate(ctx, http.MethodDelete, r.kind.Delete+"/"+url.PathEscape(id), token, nil)
	return err
}

// echo returns the record the backend sent back, or the payload when the
// body does not carry one.
func (r *Resource) echo(env Envelope, payload model.Record) model.Record {
	if raw, ok := env.Field(r.kind.ResponseKey); ok {
		var recs model.OneOrMany[model.Record]
		if err := json.Unmarshal(raw, &recs); err == nil && len(recs) > 0 {
			return recs[0]
		}
	}
	var rec model.Record
	if err := json.Unmarshal(env.Body, &rec); err == nil && len(rec) > 0 {
		return rec
	}
	return payload.Clone()
}

// decodeList reads body[key] as a list of T. A single object is wrapped.
func decodeList[T any](ctx context.Context, c *Client, path string, query url.Values, key string) []T {
	raw, ok := c.readBody(ctx, path, query, key)
	if !ok {
		return []T{}
	}
	var items model.OneOrMany[T]
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.WarnContext(ctx, "backend list undecodable", "api_path", path, "key", key, "error", err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}
