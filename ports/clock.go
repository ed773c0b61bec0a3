package ports

import "centerout/domain/core"

// Clock supplies the monotonic millisecond time used to stamp samples that
// arrive without one.
type Clock interface {
	NowMs() core.Millis
}
