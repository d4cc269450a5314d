package partition

import (
	"time"

	"github.com/tesseradb/tessera/internal/schema"
)

// Keyer computes partition keys for one template family. These are the
// manager's extension points: the engine itself never parses or validates
// keys, it only compares and concatenates them.
//
// Managers that never partition by time may embed UnimplementedKeyer;
// callers that never invoke the unimplemented methods are unaffected.
type Keyer interface {
	// CurrentPartitionKey returns the key for the bucket the clock is in.
	CurrentPartitionKey() (string, error)

	// NextPartitionKey returns the key for the following bucket.
	NextPartitionKey() (string, error)

	// PartitionKeyFor returns the key a stored instance should live
	// under. Used by application code, not by the creation path.
	PartitionKeyFor(instance any) (string, error)
}

// UnimplementedKeyer fails every extension point with a NOT_IMPLEMENTED
// synthesis error naming the entity.
type UnimplementedKeyer struct {
	Entity string
}

func (u UnimplementedKeyer) CurrentPartitionKey() (string, error) {
	return "", schema.NewNotImplementedError(u.Entity, "CurrentPartitionKey")
}

func (u UnimplementedKeyer) NextPartitionKey() (string, error) {
	return "", schema.NewNotImplementedError(u.Entity, "NextPartitionKey")
}

func (u UnimplementedKeyer) PartitionKeyFor(any) (string, error) {
	return "", schema.NewNotImplementedError(u.Entity, "PartitionKeyFor")
}

// DefaultMonthFormat is the reference time layout for month buckets.
const DefaultMonthFormat = "2006_01"

// Timestamped is implemented by instances that know which point in time
// they belong to; MonthKeyer.PartitionKeyFor buckets by it.
type Timestamped interface {
	PartitionTimestamp() time.Time
}

// MonthKeyer buckets partitions by calendar month.
type MonthKeyer struct {
	Clock  Clock
	Format string // time layout; empty means DefaultMonthFormat
}

func (k MonthKeyer) layout() string {
	if k.Format == "" {
		return DefaultMonthFormat
	}
	return k.Format
}

func (k MonthKeyer) now() time.Time {
	if k.Clock == nil {
		return time.Now().UTC()
	}
	return k.Clock.Now()
}

// CurrentPartitionKey returns the key for the month the clock is in.
func (k MonthKeyer) CurrentPartitionKey() (string, error) {
	return k.now().Format(k.layout()), nil
}

// NextPartitionKey returns the key for the following calendar month.
// time.Date normalizes month 13 into January of the next year.
func (k MonthKeyer) NextPartitionKey() (string, error) {
	t := k.now()
	next := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return next.Format(k.layout()), nil
}

// PartitionKeyFor buckets an instance by its timestamp. The instance must
// either implement Timestamped or be a time.Time.
func (k MonthKeyer) PartitionKeyFor(instance any) (string, error) {
	switch v := instance.(type) {
	case Timestamped:
		return v.PartitionTimestamp().Format(k.layout()), nil
	case time.Time:
		return v.Format(k.layout()), nil
	default:
		return "", schema.NewNotImplementedError("", "PartitionKeyFor: instance has no partition timestamp")
	}
}
