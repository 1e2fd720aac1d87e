package model

// ================ Config ================

// DifyConfig configures the AI backend client. MinInterval is the pacing
// window between outbound calls, enforced process-wide.
type DifyConfig struct {
	APIKey      string `envconfig:"DIFY_API_KEY" default:""`
	BaseURL     string `envconfig:"DIFY_API" default:""`
	MinInterval string `envconfig:"DIFY_MIN_INTERVAL" default:"10s"`
	Timeout     string `envconfig:"DIFY_TIMEOUT" default:"60s"`
}

// LineConfig configures webhook verification and the reply client.
type LineConfig struct {
	AccessToken   string `envconfig:"ACCESS_TOKEN" default:""`
	ChannelSecret string `envconfig:"CHANNEL_SECRET" default:""`
	BaseURL       string `envconfig:"LINE_API" default:"https://api.line.me"`
	Timeout       string `envconfig:"LINE_TIMEOUT" default:"10s"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

// ConversationConfig configures the conversation store. TTL only applies to
// the Redis-backed store; zero means keys never expire.
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"0"`
}
