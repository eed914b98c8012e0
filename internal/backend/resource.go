package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Resource is one CRUD collection of the backend, e.g. "article".
//
//	GET    /<name>/list?<query>   200
//	GET    /<name>/detail/<id>    200
//	POST   /<name>/add            201
//	PUT    /<name>/adjust/<id>    200
//	DELETE /<name>/takedown/<id>  200
type Resource[T any] struct {
	c    *Client
	name string
}

func NewResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{c: c, name: name}
}

func (r *Resource[T]) Name() string { return r.name }

// List fetches one page
func (r *Resource[T]) List(ctx context.Context, q url.Values) (Envelope[[]T], error) {
	op := "list " + r.name
	env, err := r.c.get(ctx, call{op: op, path: "/" + r.name + "/list", query: q, want: http.StatusOK})
	if err != nil {
		return Envelope[[]T]{}, err
	}
	return decodeData[[]T](op, env)
}

// All follows pagination from the first page until has_next is false
func (r *Resource[T]) All(ctx context.Context, q url.Values) ([]T, error) {
	query := url.Values{}
	for k, v := range q {
		query[k] = append([]string(nil), v...)
	}
	query.Set("page", "1")

	var out []T
	for {
		env, err := r.List(ctx, query)
		if err != nil {
			return nil, err
		}
		out = append(out, env.Data...)
		next, ok := NextPage(env.Pagination)
		if !ok {
			return out, nil
		}
		query.Set("page", strconv.Itoa(next))
	}
}

func (r *Resource[T]) Detail(ctx context.Context, id string) (T, error) {
	op := "get " + r.name
	env, err := r.c.get(ctx, call{op: op, path: "/" + r.name + "/detail/" + url.PathEscape(id), want: http.StatusOK})
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := decodeData[T](op, env)
	return out.Data, err
}

// Create posts a new record and returns what the backend echoed back
func (r *Resource[T]) Create(ctx context.Context, body Body) (Envelope[T], error) {
	op := "create " + r.name
	env, err := r.c.mutate(ctx, r.name, call{
		op:     op,
		method: http.MethodPost,
		path:   "/" + r.name + "/add",
		body:   body,
		want:   http.StatusCreated,
	})
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeData[T](op, env)
}

func (r *Resource[T]) Update(ctx context.Context, id string, body Body) (Envelope[T], error) {
	op := "update " + r.name
	env, err := r.c.mutate(ctx, r.name, call{
		op:     op,
		method: http.MethodPut,
		path:   "/" + r.name + "/adjust/" + url.PathEscape(id),
		body:   body,
		want:   http.StatusOK,
	})
	if err != nil {
		return Envelope[T]{}, err
	}
	return decodeData[T](op, env)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.c.mutate(ctx, r.name, call{
		op:     "delete " + r.name,
		method: http.MethodDelete,
		path:   "/" + r.name + "/takedown/" + url.PathEscape(id),
		want:   http.StatusOK,
	})
	return err
}
