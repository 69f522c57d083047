// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listing turns backend records into the cards shown on the
// public pages and filters already-fetched lists.
package listing

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/fundacaoguia/portal/internal/model"
)

// SearchKey folds s for the job filter: NFC, then full case folding.
// Job cards carry their cargo and cidade keys so the browser only has to
// fold the query.
func SearchKey(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// JobMatcher tests jobs against one query. A job matches when its cargo
// or its cidade contains the query on its own; text spanning both fields
// does not count.
type JobMatcher struct {
	needle string
}

// NewJobMatcher trims and folds q. A blank query matches every job.
func NewJobMatcher(q string) JobMatcher {
	return JobMatcher{needle: SearchKey(strings.TrimSpace(q))}
}

// Match reports whether j matches.
func (m JobMatcher) Match(j model.JobPosting) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(SearchKey(j.Cargo.String()), m.needle) ||
		strings.Contains(SearchKey(j.Cidade.String()), m.needle)
}

// FilterJobs keeps the jobs matching q in their original order.
func FilterJobs(jobs []model.JobPosting, q string) []model.JobPosting {
	m := NewJobMatcher(q)
	if m.needle == "" {
		return jobs
	}
	out := make([]model.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		if m.Match(j) {
			out = append(out, j)
		}
	}
	return out
}
