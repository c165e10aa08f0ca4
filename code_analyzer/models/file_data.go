package models

import (
	"path"
	"strings"
	"time"
)

// File is one ingested source artifact owned by a chat.
type File struct {
	ID           string    `json:"id" validate:"required"`
	Name         string    `json:"name" validate:"required"`
	Path         string    `json:"path,omitempty"`
	Content      string    `json:"content"`
	Size         int       `json:"size"`
	Extension    string    `json:"extension"`
	AddedAt      time.Time `json:"addedAt"`
	LastModified time.Time `json:"lastModified"`
	IsModified   bool      `json:"isModified"`
}

// ExtensionOf returns the lower-cased extension of name without the dot.
func ExtensionOf(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Lines returns the newline-delimited line count of the content. A trailing newline
// terminates the last line rather than opening a new one, and empty content has no lines.
func (f File) Lines() int {
	return CountLines(f.Content)
}

// CountLines counts newline-delimited lines the same way File.Lines does.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	lines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lines++
	}
	return lines
}

// Location returns the path when present and the name otherwise.
func (f File) Location() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// TreeFile is a file reference attached to a tree node.
type TreeFile struct {
	File        *File
	DisplayName string
	ParentPath  string
}

// TreeNode is a directory in the project tree.
type TreeNode struct {
	Name     string
	Type     string
	Path     string
	Children map[string]*TreeNode
	// Order of first visit of each child, used for deterministic rendering.
	ChildOrder []string
	Files      []TreeFile
}

// Symbol is a named declaration found at a 1-based line.
type Symbol struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// FileStructure is the heuristic inventory of a single file.
type FileStructure struct {
	Functions []Symbol `json:"functions"`
	Classes   []Symbol `json:"classes"`
	Imports   []string `json:"imports"`
	Comments  int      `json:"comments"`
}

// DirectoryEntry is what the host file picker reports for a selected directory.
type DirectoryEntry struct {
	Name         string
	RelativePath string
	LastModified time.Time
}

// IngestStats summarises one upload batch.
type IngestStats struct {
	Name           string   `json:"name"`
	TotalFiles     int      `json:"totalFiles"`
	CodeFiles      int      `json:"codeFiles"`
	ProcessedFiles int      `json:"processedFiles"`
	Errors         []string `json:"errors,omitempty"`
}

// IngestResult holds the files that were read plus the failures that were skipped.
type IngestResult struct {
	Files []File
	Stats IngestStats
}

// OutlineEntry is a declaration found by the syntax outline.
type OutlineEntry struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Line int    `json:"line"`
}
