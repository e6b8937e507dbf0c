package dynamic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aura-studio/lambdaric/model"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

var (
	ErrInvalidEvent = errors.New("dynamic: event is not a JSON object")
	ErrMissingPath  = errors.New("dynamic: event has no path")
)

// Handler 将 invocation 事件路由到业务包 tunnel，实现 loop.Handler
type Handler struct {
	*Dynamic
	r    *Router
	meta *MetaGenerator
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{Dynamic: NewDynamic(opts...)}
	h.meta = NewMetaGenerator(h.LocalWarehouse, h.RemoteWarehouse)
	h.InstallHandlers()
	return h
}

// InstallHandlers 注册默认路由
func (h *Handler) InstallHandlers() {
	h.r = NewRouter()
	h.r.Use(h.StaticLink, h.PrefixLink)

	h.r.Handle("/", h.OK)
	h.r.Handle("/health-check", h.OK)
	h.r.Handle("/api/*path", h.API)
	h.r.Handle("/_/api/*path", h.Debug, h.API)
	h.r.Handle("/meta/*path", h.Meta)
	h.r.NoRoute(h.PageNotFound)
}

// Handle 注册额外路由，优先级低于默认路由
func (h *Handler) Handle(pattern string, handlers ...HandlerFunc) {
	h.r.Handle(pattern, handlers...)
}

func (h *Handler) Invoke(ctx context.Context, event []byte) ([]byte, error) {
	if !gjson.ValidBytes(event) {
		return nil, ErrInvalidEvent
	}
	doc := gjson.ParseBytes(event)
	if !doc.IsObject() {
		return nil, ErrInvalidEvent
	}
	path := doc.Get("path").String()
	if path == "" {
		return nil, ErrMissingPath
	}

	c := &Context{
		Ctx:       ctx,
		RawPath:   path,
		Path:      path,
		Request:   requestString(doc.Get("request")),
		DebugMode: h.DebugMode,
	}

	logger := h.Logger
	if ec, ok := model.FromContext(ctx); ok {
		logger = logger.With(zap.String("request_id", ec.AwsRequestID))
	}
	if h.DebugMode {
		logger.Debug("dynamic request", zap.String("path", c.Path), zap.String("request", c.Request))
	}

	h.dispatch(c)

	if c.Err != nil {
		logger.Debug("dynamic error", zap.String("path", c.Path), zap.Error(c.Err))
		return nil, c.Err
	}
	if h.DebugMode {
		logger.Debug("dynamic response", zap.String("path", c.Path), zap.String("response", c.Response))
	}
	return encodeResponse(c.Response)
}

func (h *Handler) dispatch(c *Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Err = fmt.Errorf("dynamic: panic: %v", r)
		}
	}()
	h.r.Dispatch(c)
}

// requestString 字符串原样传递，其余按 JSON 原文传递
func requestString(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}

// encodeResponse 合法 JSON 原样返回，否则编码为字符串
func encodeResponse(s string) ([]byte, error) {
	if s != "" && gjson.Valid(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// StaticLink 静态路径映射
func (h *Handler) StaticLink(c *Context) {
	if dst, ok := h.StaticLinkMap[c.Path]; ok {
		c.Path = dst
	}
}

// PrefixLink 前缀路径映射，取最长匹配前缀
func (h *Handler) PrefixLink(c *Context) {
	var best string
	for prefix := range h.PrefixLinkMap {
		if strings.HasPrefix(c.Path, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		c.Path = h.PrefixLinkMap[best] + strings.TrimPrefix(c.Path, best)
	}
}

func (h *Handler) OK(c *Context) {
	c.Response = "OK"
}

func (h *Handler) Debug(c *Context) {
	c.DebugMode = true
}

// API 调用业务包：/api/{package}/{version}/{route...}
func (h *Handler) API(c *Context) {
	pkg, version, route, err := splitPackagePath(c.ParamPath)
	if err != nil {
		c.Err = err
		return
	}
	tunnel, err := h.GetPackage(pkg, version)
	if err != nil {
		c.Err = fmt.Errorf("dynamic: get package %s@%s: %w", pkg, version, err)
		return
	}

	rsp := tunnel.Invoke(route, c.Request)
	if c.DebugMode {
		c.Response = FormatDebug(c, rsp)
		return
	}
	c.Response = rsp
}

// Meta 返回运行时与业务包的 meta：/meta/{package}/{version}
func (h *Handler) Meta(c *Context) {
	var functionName string
	if ec, ok := model.FromContext(c.Ctx); ok {
		functionName = ec.FunctionName
	}

	var tunnelMeta string
	if strings.Trim(c.ParamPath, "/") != "" {
		pkg, version, _, err := splitPackagePath(c.ParamPath)
		if err != nil {
			c.Err = err
			return
		}
		tunnel, err := h.GetPackage(pkg, version)
		if err != nil {
			c.Err = fmt.Errorf("dynamic: get package %s@%s: %w", pkg, version, err)
			return
		}
		tunnelMeta = tunnel.Meta()
	}
	c.Response = h.meta.Generate(functionName, tunnelMeta)
}

func (h *Handler) PageNotFound(c *Context) {
	c.Err = fmt.Errorf("dynamic: 404 page not found: %s", c.Path)
}

func splitPackagePath(p string) (pkg, version, route string, err error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("dynamic: invalid package path: %q", p)
	}
	return parts[0], parts[1], "/" + strings.Join(parts[2:], "/"), nil
}

// FormatDebug 在响应外附加路由信息
func FormatDebug(c *Context, rsp string) string {
	doc := `{}`
	doc, _ = sjson.Set(doc, "raw_path", c.RawPath)
	doc, _ = sjson.Set(doc, "path", c.Path)
	doc, _ = sjson.Set(doc, "param", c.ParamPath)
	doc, _ = sjson.Set(doc, "request", c.Request)
	doc, _ = sjson.Set(doc, "response", rsp)
	if ec, ok := model.FromContext(c.Ctx); ok {
		doc, _ = sjson.Set(doc, "request_id", ec.AwsRequestID)
		doc, _ = sjson.Set(doc, "remaining_ms", ec.RemainingTimeMs())
	}
	return doc
}
