package providers

const (
	dashscopeDefaultBase       = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	dashscopeDefaultChatModel  = "qwen3-max"
	dashscopeDefaultEmbedModel = "text-embedding-v3"
)

// DashScopeProvider is the OpenAI-compatible client pointed at DashScope's
// compatible-mode endpoint with its own model defaults.
type DashScopeProvider struct {
	*OpenAIProvider
}

func NewDashScopeProvider(cfg Config) (*DashScopeProvider, error) {
	if cfg.APIBase == "" {
		cfg.APIBase = dashscopeDefaultBase
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = dashscopeDefaultChatModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = dashscopeDefaultEmbedModel
	}
	inner, err := NewOpenAIProvider(cfg)
	if err != nil {
		return nil, err
	}
	inner.name = "dashscope"
	return &DashScopeProvider{OpenAIProvider: inner}, nil
}

func (p *DashScopeProvider) Name() string { return "dashscope" }
