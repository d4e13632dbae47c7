package reconstruct

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/request"
)

// Batch reconstructs many generations concurrently with at most limit
// workers. Results keep the order of inputs. A limit below one runs the
// inputs one at a time.
func Batch(ctx context.Context, r *Reconstructor, inputs []Input, limit int) ([]*request.State, error) {
	if limit < 1 {
		limit = 1
	}
	out := make([]*request.State, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = r.Reconstruct(in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
