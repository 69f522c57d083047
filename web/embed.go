// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the portal's templates and built assets.
package web

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"sync"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static/dist
var static embed.FS

// StaticPrefix is the URL prefix the assets are served under.
const StaticPrefix = "/static/dist/"

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	return mustSub(templates, "templates")
}

// Static returns the built assets rooted at static/dist/.
func Static() fs.FS {
	return mustSub(static, "static/dist")
}

// mustSub panics only when the embed directives above and the directory
// names disagree, which a build with these files cannot produce.
func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	assetOnce   sync.Once
	assetHashes map[string]string
)

// AssetURL is the URL of a built asset with a content fingerprint, so the
// year-long cache on StaticPrefix never serves a stale file after a
// deploy. Unknown names get no fingerprint.
func AssetURL(name string) string {
	assetOnce.Do(func() {
		assetHashes = make(map[string]string)
		_ = fs.WalkDir(Static(), ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := fs.ReadFile(Static(), p)
			if err != nil {
				return err
			}
			sum := sha256.Sum256(data)
			assetHashes[p] = hex.EncodeToString(sum[:4])
			return nil
		})
	})
	if h, ok := assetHashes[name]; ok {
		return StaticPrefix + name + "?v=" + h
	}
	return StaticPrefix + name
}
