package bigcommerce

import "context"

// Requester is the request surface endpoint wrappers depend on.
// *Connection implements it.
type Requester interface {
	Get(ctx context.Context, url string, query any) (any, error)
	Post(ctx context.Context, url string, body any) (any, error)
	Put(ctx context.Context, url string, body any) (any, error)
	Delete(ctx context.Context, url string) (any, error)
	Head(ctx context.Context, url string) (any, error)

	Status() int
	Body() []byte
	Header(name string) (string, bool)
	LastError() error
}

var _ Requester = (*Connection)(nil)
