package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PartitionName returns the deterministic concrete entity name for a
// (template, key) pair: "{template}_{key}".
//
// The key is opaque caller-supplied text and is used verbatim apart from
// NFC normalization at this boundary. No sanitization is performed -
// callers are responsible for producing names valid under the catalog's
// naming rules. Same key always yields the same name.
func PartitionName(template, key string) string {
	return norm.NFC.String(template) + "_" + norm.NFC.String(key)
}

// TableName returns the storage-table name for an entity name,
// lower-cased per the catalog convention.
func TableName(entity string) string {
	return strings.ToLower(norm.NFC.String(entity))
}
