// Package discovery defines the topic/partition lookup collaborator
// spec.md §1 lists as out of scope ("only their interfaces matter"). The
// producer core never imports this package directly — it is consumed by
// whatever owns a producer's lifecycle (here, the demo command) to resolve
// a topic's partition count before constructing producers.
package discovery

import "context"

// TopicLookup resolves topic metadata needed before a producer can be
// created: how many partitions the topic has (0 for non-partitioned).
type TopicLookup interface {
	PartitionsFor(ctx context.Context, topic string) (int, error)
}
