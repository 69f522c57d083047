// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"slices"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"

	"github.com/fundacaoguia/portal/internal/model"
)

func init() {
	// Session values are gob-encoded; maps are not pre-registered.
	gob.Register(map[string]string{})
}

// maxNonces bounds how many admin forms may be open at once.
const maxNonces = 8

// Forms tracks admin form state between the GET that renders a form and
// the POST that submits it.
type Forms struct {
	sm *scs.SessionManager
}

// NewForms creates a form state store.
func NewForms(sm *scs.SessionManager) *Forms {
	return &Forms{sm: sm}
}

// IssueNonce returns a one-time value for a rendered form.
func (f *Forms) IssueNonce(ctx context.Context) string {
	nonce := uuid.NewString()
	nonces := f.nonces(ctx)
	nonces = append(nonces, nonce)
	if len(nonces) > maxNonces {
		nonces = nonces[len(nonces)-maxNonces:]
	}
	f.sm.Put(ctx, KeyNonces, nonces)
	return nonce
}

// ConsumeNonce reports whether the nonce was issued and not used yet, and
// marks it used.
func (f *Forms) ConsumeNonce(ctx context.Context, nonce string) bool {
	if nonce == "" {
		return false
	}
	nonces := f.nonces(ctx)
	i := slices.Index(nonces, nonce)
	if i < 0 {
		return false
	}
	f.sm.Put(ctx, KeyNonces, slices.Delete(nonces, i, i+1))
	return true
}

// RestoreNonce puts a consumed nonce back so the same form can be
// resubmitted after a failed attempt.
func (f *Forms) RestoreNonce(ctx context.Context, nonce string) {
	if nonce == "" {
		return
	}
	nonces := f.nonces(ctx)
	if !slices.Contains(nonces, nonce) {
		f.sm.Put(ctx, KeyNonces, append(nonces, nonce))
	}
}

func (f *Forms) nonces(ctx context.Context) []string {
	nonces, _ := f.sm.Get(ctx, KeyNonces).([]string)
	return slices.Clone(nonces)
}

// PutOriginal remembers the record an edit form was opened on.
func (f *Forms) PutOriginal(ctx context.Context, kind string, rec model.Record) error {
	originals := f.originals(ctx)
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	originals[originalKey(kind, rec.ID())] = string(b)
	f.sm.Put(ctx, KeyOriginals, originals)
	return nil
}

// Original returns the record an edit form was opened on.
func (f *Forms) Original(ctx context.Context, kind, id string) (model.Record, bool) {
	raw, ok := f.originals(ctx)[originalKey(kind, id)]
	if !ok {
		return nil, false
	}
	var rec model.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false
	}
	return rec, true
}

// DropOriginal forgets an edit snapshot.
func (f *Forms) DropOriginal(ctx context.Context, kind, id string) {
	originals := f.originals(ctx)
	key := originalKey(kind, id)
	if _, ok := originals[key]; !ok {
		return
	}
	delete(originals, key)
	f.sm.Put(ctx, KeyOriginals, originals)
}

func (f *Forms) originals(ctx context.Context) map[string]string {
	out := make(map[string]string)
	if m, ok := f.sm.Get(ctx, KeyOriginals).(map[string]string); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func originalKey(kind, id string) string {
	return kind + "/" + id
}
