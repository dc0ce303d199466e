package projectauth

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	consul "github.com/hashicorp/consul/api"
	"github.com/ichigozero/projectkit/projectsvc"
)

// SessionStore records live access token UUIDs. The login service writes them;
// logging out deletes them.
type SessionStore interface {
	Get(key string) error
	Put(key string, value []byte) error
	Delete(key string) error
}

type consulStore struct {
	consul *consul.Client
}

func NewConsulSessionStore(c *consul.Client) SessionStore {
	return &consulStore{c}
}

func (c *consulStore) Get(key string) error {
	kv, _, err := c.consul.KV().Get(key, nil)
	if err != nil {
		return err
	}

	if kv == nil {
		return projectsvc.ErrSessionNotFound
	}

	return nil
}

func (c *consulStore) Put(key string, value []byte) error {
	p := &consul.KVPair{Key: key, Value: value}
	_, err := c.consul.KV().Put(p, nil)

	return err
}

func (c *consulStore) Delete(key string) error {
	_, err := c.consul.KV().Delete(key, nil)

	return err
}

// NewAuthenticater rejects requests whose access token UUID is not a live
// session. It must run after the JWT parser.
func NewAuthenticater(s SessionStore) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			auth, err := Claims(ctx)
			if err != nil {
				return nil, err
			}

			if err := s.Get(auth.AccessUUID); err != nil {
				return nil, err
			}

			return next(ctx, request)
		}
	}
}
