// Package synth is the schema synthesizer: a pure factory turning a
// (template, key) pair into a concrete partition entity. It performs no
// catalog registration and has no failure modes of its own - collision
// detection belongs to the partition manager, which binds the result
// under the synthesis lock.
package synth

import "github.com/tesseradb/tessera/internal/schema"

// Create builds a new concrete entity whose structural parent is tpl,
// with the partition key merged in as the originating-key marker. The
// field list is copied from the template, so pending relationship
// placeholders carry over and are resolved later by the cascade.
func Create(name string, tpl *schema.Template, key string) *schema.Partition {
	return schema.NewPartition(name, tpl, key, tpl.Fields())
}
