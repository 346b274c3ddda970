package model

import (
	"strings"
)

// Tag represents a parsed "jrepo" struct tag.
type Tag struct {
	Column       string
	PrimaryKey   bool
	AutoInc      bool
	AutoTime     bool
	AutoUpdate   bool
	Skip         bool
	RelationKind string
	ForeignKey   string
	References   string
}

// ParseTag parses the "jrepo" tag string. Entries are separated by
// semicolons or spaces; each entry is either a flag ("pk") or a
// key:value pair ("fk:owner_id").
func ParseTag(tagStr string) *Tag {
	tag := &Tag{}
	if tagStr == "" {
		return tag
	}
	if tagStr == "-" {
		tag.Skip = true
		return tag
	}

	norm := strings.NewReplacer(";", " ", ",", " ").Replace(tagStr)
	for _, part := range strings.Fields(norm) {
		key, val, _ := strings.Cut(part, ":")
		switch strings.ToLower(key) {
		case "column":
			tag.Column = val
		case "pk":
			tag.PrimaryKey = true
		case "auto":
			tag.AutoInc = true
		case "auto_time":
			tag.AutoTime = true
		case "auto_update":
			tag.AutoUpdate = true
		case "has_one", "has_many", "belongs_to":
			tag.RelationKind = strings.ToLower(key)
		case "fk", "foreignkey":
			tag.ForeignKey = val
		case "references":
			tag.References = val
		}
	}
	return tag
}
