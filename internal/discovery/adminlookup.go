package discovery

import (
	"context"
	"fmt"

	pulsaradmin "github.com/streamnative/pulsar-admin-go"
	"github.com/streamnative/pulsar-admin-go/pkg/utils"
)

// AdminLookup implements TopicLookup against a real Pulsar admin API,
// adapted from the teacher's internal/pulsar/admin.go EnsureTopic. Unlike
// the teacher, it only resolves partition metadata — topic creation is a
// broker-administration concern this module has no business performing on
// a caller's behalf.
type AdminLookup struct {
	admin pulsaradmin.Client
}

// NewAdminLookup builds an AdminLookup against the given admin web service
// URL (e.g. "http://localhost:8080").
func NewAdminLookup(webServiceURL string) (*AdminLookup, error) {
	admin, err := pulsaradmin.NewClient(&pulsaradmin.Config{WebServiceURL: webServiceURL})
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to create admin client: %w", err)
	}
	return &AdminLookup{admin: admin}, nil
}

// PartitionsFor reports topic's partition count, or 0 if it is
// non-partitioned or does not yet exist.
func (a *AdminLookup) PartitionsFor(ctx context.Context, topic string) (int, error) {
	topicName, err := utils.GetTopicName(topic)
	if err != nil {
		return 0, fmt.Errorf("discovery: invalid topic name %s: %w", topic, err)
	}

	metadata, err := a.admin.Topics().GetMetadata(*topicName)
	if err != nil {
		// The admin API errors for topics that don't exist yet; treat
		// that as "no partition info available" rather than an error,
		// matching the teacher's topicExists helper.
		return 0, nil
	}
	return metadata.Partitions, nil
}
