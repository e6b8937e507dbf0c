package dynamic

import (
	"context"
	"fmt"
	"strings"
)

// HandlerFunc 路由处理器
type HandlerFunc func(*Context)

// Context 单次调用的路由上下文
type Context struct {
	Ctx context.Context

	// RawPath 事件中的原始路径，未经映射
	RawPath string
	// Path 映射后的有效路径
	Path string
	// ParamPath /api/*path 等通配路由的参数值，以 / 开头
	ParamPath string

	Request  string
	Response string
	Err      error

	DebugMode bool

	aborted bool
}

// Abort 中止处理链
func (c *Context) Abort() { c.aborted = true }

type route struct {
	pattern  string
	handlers []HandlerFunc
}

// Router 按路径分发调用
type Router struct {
	pre     []HandlerFunc
	routes  []route
	noRoute []HandlerFunc
}

func NewRouter() *Router {
	return &Router{}
}

// Use 注册前置中间件
func (r *Router) Use(handlers ...HandlerFunc) {
	r.pre = append(r.pre, handlers...)
}

// Handle 注册路由，先注册先匹配
func (r *Router) Handle(pattern string, handlers ...HandlerFunc) {
	r.routes = append(r.routes, route{pattern: pattern, handlers: handlers})
}

// NoRoute 设置未匹配处理器
func (r *Router) NoRoute(handlers ...HandlerFunc) { r.noRoute = handlers }

// Dispatch 执行中间件与匹配到的处理链
func (r *Router) Dispatch(c *Context) {
	if !r.run(c, r.pre) {
		return
	}

	handlers := r.noRoute
	for _, rt := range r.routes {
		if param, ok := MatchPattern(rt.pattern, c.Path); ok {
			c.ParamPath = param
			handlers = rt.handlers
			break
		}
	}
	if len(handlers) == 0 {
		c.Err = fmt.Errorf("no route for path: %q", c.Path)
		return
	}
	r.run(c, handlers)
}

func (r *Router) run(c *Context, handlers []HandlerFunc) bool {
	for _, h := range handlers {
		if h == nil {
			continue
		}
		h(c)
		if c.aborted || c.Err != nil {
			return false
		}
	}
	return true
}

// MatchPattern 匹配精确路径与 /api/*path 形式的尾部通配
func MatchPattern(pattern, path string) (param string, ok bool) {
	prefix, wildcard := strings.CutSuffix(pattern, "*path")
	if !wildcard {
		return "", pattern == path
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	rest, found := strings.CutPrefix(path, prefix)
	if !found {
		return "", false
	}
	return "/" + rest, true
}
