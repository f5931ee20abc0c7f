package memory

import (
	"regexp"
	"strings"
	"time"
)

type Type string

const (
	TypeDaily    Type = "daily"
	TypeEntity   Type = "entity"
	TypeLesson   Type = "lesson"
	TypeDecision Type = "decision"
	TypeCore     Type = "core"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDaily, TypeEntity, TypeLesson, TypeDecision, TypeCore:
		return true
	}
	return false
}

// Memory is one synced document from the agent's knowledge base. Path is
// the natural key used by upserts.
type Memory struct {
	ID           string    `yaml:"id" json:"id"`
	Path         string    `yaml:"path" json:"path"`
	Content      string    `yaml:"content" json:"content"`
	Type         Type      `yaml:"type" json:"type"`
	Title        string    `yaml:"title,omitempty" json:"title,omitempty"`
	LastModified time.Time `yaml:"last_modified" json:"lastModified"`
}

var dailyPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// InferType classifies a memory by its path when the caller does not supply
// a type explicitly.
func InferType(path string) Type {
	switch {
	case path == "MEMORY.md" || strings.HasSuffix(path, "SOUL.md") || strings.HasSuffix(path, "USER.md"):
		return TypeCore
	case dailyPattern.MatchString(path):
		return TypeDaily
	case strings.Contains(path, "lessons"):
		return TypeLesson
	case strings.Contains(path, "decisions"):
		return TypeDecision
	case strings.Contains(path, "life/areas") || strings.Contains(path, "entities"):
		return TypeEntity
	default:
		return TypeCore
	}
}

// DefaultTitle derives a display title from the path basename, dropping a
// trailing .md.
func DefaultTitle(path string) string {
	base := path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".md")
}
