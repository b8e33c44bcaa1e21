package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/harulab/cardforge/alias"
	"github.com/harulab/cardforge/cards"
	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/glossary"
	"github.com/harulab/cardforge/logger"
	"github.com/harulab/cardforge/profile"
	"github.com/harulab/cardforge/render"
	"github.com/harulab/cardforge/search"
)

// MCPServer exposes catalog lookups as MCP tools
type MCPServer struct {
	repo       *catalog.Repository
	cardSvc    *cards.Service
	aliasStore *alias.Store
	loader     *render.Loader
	baseURL    string

	optsMu     sync.RWMutex
	searchOpts search.Options

	server *server.MCPServer
}

// NewMCPServer wires the query tools over the given repository and card
// service. aliasStore may be nil when no alias database is configured.
func NewMCPServer(repo *catalog.Repository, cardSvc *cards.Service, aliasStore *alias.Store, loader *render.Loader, searchOpts search.Options, baseURL string) *MCPServer {
	s := &MCPServer{
		repo:       repo,
		cardSvc:    cardSvc,
		aliasStore: aliasStore,
		loader:     loader,
		searchOpts: searchOpts,
		baseURL:    baseURL,
	}

	s.server = server.NewMCPServer(
		"cardforge",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio runs the MCP server over stdin/stdout until the stream closes
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.server)
}

// SetSearchOptions swaps the resolver defaults, e.g. after a config reload
func (s *MCPServer) SetSearchOptions(opts search.Options) {
	s.optsMu.Lock()
	s.searchOpts = opts
	s.optsMu.Unlock()
}

func (s *MCPServer) searchOptions() search.Options {
	s.optsMu.RLock()
	defer s.optsMu.RUnlock()
	return s.searchOpts
}

func (s *MCPServer) registerTools() {
	basicTool := mcp.NewTool("get_operator_basic",
		mcp.WithDescription("获取干员的基础信息和属性"),
		mcp.WithString("operator_name",
			mcp.Required(),
			mcp.Description("干员名"),
		),
		mcp.WithString("operator_name_prefix",
			mcp.Description("干员名的前缀，没有则为空"),
		),
	)
	s.server.AddTool(basicTool, s.handleOperatorBasic)

	skillTool := mcp.NewTool("get_operator_skill",
		mcp.WithDescription("获取干员技能数据（默认第1个技能，等级10）"),
		mcp.WithString("operator_name",
			mcp.Required(),
			mcp.Description("干员名"),
		),
		mcp.WithString("operator_name_prefix",
			mcp.Description("干员名的前缀，没有则为空"),
		),
		mcp.WithNumber("index",
			mcp.Description("技能序号，从1开始"),
		),
		mcp.WithNumber("level",
			mcp.Description("技能等级 1~10（8~10为专精一/二/三）"),
		),
	)
	s.server.AddTool(skillTool, s.handleOperatorSkill)

	glossaryTool := mcp.NewTool("get_glossary",
		mcp.WithDescription("获取游戏术语的解释。支持逗号、顿号分隔的多个术语。"),
		mcp.WithString("glossary_name",
			mcp.Required(),
			mcp.Description("要查询的术语名，多个术语用逗号或顿号分隔"),
		),
	)
	s.server.AddTool(glossaryTool, s.handleGlossary)
}

func (s *MCPServer) handleOperatorBasic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("operator_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prefix := request.GetString("operator_name_prefix", "")

	bundle, err := s.repo.Bundle()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := profile.Basic(bundle, name, prefix)
	if err != nil {
		if errors.IsNotFound(err) {
			return mcp.NewToolResultText(fmt.Sprintf("未找到干员%s的资料", name)), nil
		}
		logger.Errorw("operator basic lookup failed", "name", name, "error", err)
		return mcp.NewToolResultError("查询失败"), nil
	}

	body := render.RenderBest(
		render.NewJSONRenderer(s.loader),
		render.NewTextRenderer(s.loader),
		"operator_basic", result)
	return mcp.NewToolResultText(string(body)), nil
}

func (s *MCPServer) handleOperatorSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("operator_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prefix := request.GetString("operator_name_prefix", "")
	index := request.GetInt("index", 1)
	level := request.GetInt("level", 10)

	bundle, err := s.repo.Bundle()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	op, candidates, err := s.resolveOperator(ctx, bundle, prefix+name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if op == nil {
		if len(candidates) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("未找到干员: %s", prefix+name)), nil
		}
		return mcp.NewToolResultText(
			"找到多个匹配的干员名称，需要用户做出选择：" + strings.Join(candidates, "、")), nil
	}

	result, err := profile.Skill(bundle, op, index, level)
	if err != nil {
		if errors.IsValidation(err) || errors.IsNotFound(err) {
			return mcp.NewToolResultText(err.Error()), nil
		}
		logger.Errorw("operator skill lookup failed", "name", op.Name, "error", err)
		return mcp.NewToolResultError("查询失败"), nil
	}

	payloadKey := fmt.Sprintf("%s:skill%d:lv%d:%s", op.Name, index, level, bundle.Version)
	artifact, err := s.cardSvc.Get(ctx, "operator_skill", payloadKey, result, nil, cards.FormatTXT)
	if err != nil {
		logger.Errorw("skill card build failed", "name", op.Name, "error", err)
		return mcp.NewToolResultError("生成卡片失败"), nil
	}

	text, err := artifact.Text()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.baseURL != "" {
		text += "\n图片: " + BuildCardURL(s.baseURL, "operator_skill", payloadKey, "png")
	}
	return mcp.NewToolResultText(text), nil
}

func (s *MCPServer) handleGlossary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("glossary_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bundle, err := s.repo.Bundle()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matched := glossary.Lookup(bundle, glossary.SplitTerms(input))
	raw, err := json.Marshal(matched)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// resolveOperator runs the fuzzy resolver over the name sources plus taught
// aliases. It returns the operator on a unique hit, or the candidate names
// when the query is ambiguous.
func (s *MCPServer) resolveOperator(ctx context.Context, bundle *catalog.Bundle, query string) (*catalog.Operator, []string, error) {
	sources := catalog.BuildSources(bundle, "name")
	if s.aliasStore != nil {
		src, err := alias.BuildSource(ctx, s.aliasStore, bundle)
		if err != nil {
			return nil, nil, errors.Wrap(err, "loading alias source")
		}
		sources = append(sources, src)
	}

	results := search.SearchOne(query, sources, s.searchOptions())
	if results.Empty() {
		return nil, nil, nil
	}

	// Distinct operators decide ambiguity; several aliases of one operator
	// are still a unique hit.
	seen := make(map[string]*catalog.Operator)
	var names []string
	for _, m := range results.Matches {
		op, ok := m.Value.(*catalog.Operator)
		if !ok || op == nil {
			continue
		}
		if _, dup := seen[op.ID]; !dup {
			seen[op.ID] = op
			names = append(names, op.Name)
		}
	}
	if len(seen) == 1 {
		for _, op := range seen {
			return op, nil, nil
		}
	}
	return nil, names, nil
}
