// Package collections maps knowledge partitions to vector store collection
// names.
//
// Partitions come in two scopes: shared partitions hold org-wide knowledge
// (conventions, guidelines) and are never project-qualified; project
// partitions are prefixed with a sanitized project id so one project's
// stored knowledge never leaks into another's search results.
package collections

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/recalld/internal/sanitize"
)

// Scope defines whether a partition is shared across projects or isolated
// per project.
type Scope string

const (
	// ScopeShared indicates org-wide data visible to every project.
	ScopeShared Scope = "shared"
	// ScopeProject indicates data isolated to a single project.
	ScopeProject Scope = "project"
)

// Partition identifies a knowledge partition.
type Partition string

const (
	// PartitionConventions holds shared coding conventions and guidelines.
	PartitionConventions Partition = "conventions"
	// PartitionDiscussions holds past decisions and session discussions.
	PartitionDiscussions Partition = "discussions"
	// PartitionCodePatterns holds project code patterns and snippets.
	PartitionCodePatterns Partition = "code_patterns"
	// PartitionSessions holds active task and handoff context.
	PartitionSessions Partition = "sessions"
)

// Common errors.
var (
	ErrInvalidScope     = errors.New("invalid scope")
	ErrInvalidPartition = errors.New("invalid partition")
	ErrInvalidProjectID = errors.New("invalid project ID")
)

// ScopeOf returns the scope a partition belongs to. Conventions are the
// only shared partition; everything else is project-scoped.
func ScopeOf(p Partition) Scope {
	if p == PartitionConventions {
		return ScopeShared
	}
	return ScopeProject
}

// Name returns the collection name for a partition.
//
// Naming convention:
//   - Shared: org_{partition} (e.g. org_conventions)
//   - Project: {project}_{partition} (e.g. payments_discussions)
func Name(p Partition, projectID string) (string, error) {
	switch p {
	case PartitionConventions, PartitionDiscussions, PartitionCodePatterns, PartitionSessions:
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPartition, p)
	}

	if ScopeOf(p) == ScopeShared {
		return fmt.Sprintf("org_%s", p), nil
	}

	if projectID == "" {
		return "", ErrInvalidProjectID
	}
	return fmt.Sprintf("%s_%s", sanitize.Identifier(projectID), p), nil
}
