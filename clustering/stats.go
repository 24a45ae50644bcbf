package clustering

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Occupancy describes which tensor positions each cluster captured.
//
// Member sets are roaring bitmaps over row-major element positions, cheap to
// union and intersect when validating that a quantization run partitioned the
// tensor completely.
type Occupancy struct {
	members []*roaring.Bitmap
	total   uint64
}

// Occupancy computes the cluster membership sets for a stored layer.
func (q *Quantizer) Occupancy(layerName string) (*Occupancy, error) {
	e, ok := q.Entry(layerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layerName)
	}

	members := make([]*roaring.Bitmap, q.numClusters)
	for i := range members {
		members[i] = roaring.New()
	}
	for pos, label := range e.Indices.Labels() {
		members[label].Add(uint32(pos))
	}

	return &Occupancy{
		members: members,
		total:   uint64(e.Indices.NumElements()),
	}, nil
}

// Clusters returns the codebook size.
func (o *Occupancy) Clusters() int {
	return len(o.members)
}

// Count returns the number of elements assigned to a cluster.
func (o *Occupancy) Count(cluster int) uint64 {
	return o.members[cluster].GetCardinality()
}

// NonEmpty returns the number of clusters that captured at least one element.
func (o *Occupancy) NonEmpty() int {
	n := 0
	for _, m := range o.members {
		if !m.IsEmpty() {
			n++
		}
	}
	return n
}

// Members returns a copy of a cluster's member positions.
func (o *Occupancy) Members(cluster int) *roaring.Bitmap {
	return o.members[cluster].Clone()
}

// Complete reports whether the clusters partition every element position
// exactly once.
func (o *Occupancy) Complete() bool {
	union := roaring.New()
	var sum uint64
	for _, m := range o.members {
		union.Or(m)
		sum += m.GetCardinality()
	}
	return union.GetCardinality() == o.total && sum == o.total
}
