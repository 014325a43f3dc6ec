package pkg

import "io"

// Close adapts a bare func() into an io.Closer, for callers that already
// have a release action (an ImmView's Release, say) but need the
// io.Closer shape.
type Close func()

var _ io.Closer = (Close)(nil)

func (c Close) Close() error {
	c()
	return nil
}
