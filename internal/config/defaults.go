package config

const (
	defaultWorkspaceDir         = "~/.local/share/reelforge/workspace"
	defaultLogDir               = "~/.local/share/reelforge/logs"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultWorkers              = 2
	defaultQueuePollInterval    = 5
	defaultErrorRetryInterval   = 10
	defaultHeartbeatInterval    = 15
	defaultHeartbeatTimeout     = 120
	defaultRetryAttempts        = 3
	defaultRetryBaseDelayMS     = 1000
	defaultServiceTimeout       = 60
	defaultRenderTimeout        = 1800
	defaultTranscriberModel     = "large-v3"
	defaultPlannerBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultPlannerModel         = "google/gemini-3-flash-preview"
	defaultPlannerTimeout       = 120
	defaultStockFootageBaseURL  = "https://api.pexels.com/videos"
	defaultStockFootageMaxClips = 4
	defaultPublisherPrivacy     = "unlisted"
	defaultMinSilenceSeconds    = 0.6
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			Workers:            defaultWorkers,
		},
		Retry: Retry{
			Attempts:    defaultRetryAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
		},
		SilenceCut: SilenceCut{
			TimeoutSeconds:    defaultRenderTimeout,
			MinSilenceSeconds: defaultMinSilenceSeconds,
		},
		Transcriber: Transcriber{
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultRenderTimeout,
		},
		TranscriptStore: TranscriptStore{
			TimeoutSeconds: defaultServiceTimeout,
		},
		Highlights: Highlights{
			TimeoutSeconds: defaultServiceTimeout,
		},
		Planner: Planner{
			BaseURL:        defaultPlannerBaseURL,
			Model:          defaultPlannerModel,
			TimeoutSeconds: defaultPlannerTimeout,
		},
		StockFootage: StockFootage{
			Enabled:        true,
			BaseURL:        defaultStockFootageBaseURL,
			MaxClips:       defaultStockFootageMaxClips,
			TimeoutSeconds: defaultServiceTimeout,
		},
		Renderer: Renderer{
			TimeoutSeconds: defaultRenderTimeout,
		},
		Publisher: Publisher{
			Privacy:        defaultPublisherPrivacy,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
			Status:         false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
