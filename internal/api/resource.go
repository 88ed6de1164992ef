package api

import (
	"context"
	"net/url"
	"strconv"
)

// Typed helpers shared by the resource services.

func getAs[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.Get(ctx, path, query, &out)
	return out, err
}

func postAs[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Post(ctx, path, body, &out)
	return out, err
}

func putAs[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Put(ctx, path, body, &out)
	return out, err
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// pathEscape escapes a string identifier used as a path segment.
func pathEscape(s string) string {
	return url.PathEscape(s)
}
