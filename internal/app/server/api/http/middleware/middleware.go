package middleware

import "github.com/danielgtaylor/huma/v2"

// Container collects the middleware chain for the next handler being wired.
type Container struct {
	middlewares huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.middlewares = append(c.middlewares, mw)
}

// GetAllAndClear hands the accumulated chain over and resets the container
// for the next handler.
func (c *Container) GetAllAndClear() huma.Middlewares {
	m := c.middlewares
	c.middlewares = nil
	return m
}
