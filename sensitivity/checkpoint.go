package sensitivity

import (
	"fmt"

	"github.com/hupe1980/quantkit/model"
	"github.com/hupe1980/quantkit/tensor"
)

// checkpoint is a deep copy of one layer's weights, taken before a sweep
// mutates the model. It makes the restore obligation explicit instead of
// leaving the model in whatever state the last candidate width produced.
type checkpoint struct {
	layer   string
	weights []*tensor.Tensor
}

func snapshot(m model.Model, layer string) (*checkpoint, error) {
	ws, err := m.Weights(layer)
	if err != nil {
		return nil, fmt.Errorf("snapshot layer %q: %w", layer, err)
	}

	cloned := make([]*tensor.Tensor, len(ws))
	for i, w := range ws {
		cloned[i] = w.Clone()
	}
	return &checkpoint{layer: layer, weights: cloned}, nil
}

// restore reinstalls the snapshot. It hands the model fresh clones so a later
// restore of the same checkpoint stays valid.
func (c *checkpoint) restore(m model.Model) error {
	cloned := make([]*tensor.Tensor, len(c.weights))
	for i, w := range c.weights {
		cloned[i] = w.Clone()
	}
	if err := m.SetWeights(c.layer, cloned); err != nil {
		return fmt.Errorf("restore layer %q: %w", c.layer, err)
	}
	return nil
}
