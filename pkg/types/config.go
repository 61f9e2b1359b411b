package types

// LLMStageCredentials is the per-stage LLM configuration block: extract,
// merge, and assign each get an independent set of credentials and
// sampling parameters, since they may run against different models or
// providers.
type LLMStageCredentials struct {
	APIKey       string  `json:"api_key" yaml:"api_key"`
	APIURL       string  `json:"api_url" yaml:"api_url"`
	Model        string  `json:"model" yaml:"model"`
	Streaming    bool    `json:"streaming" yaml:"streaming"`
	Reasoning    bool    `json:"reasoning" yaml:"reasoning"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	TopP         float64 `json:"top_p" yaml:"top_p"`
	RepeatPrompt string  `json:"repeat_prompt" yaml:"repeat_prompt"`
}

// RenderingSettings controls narrator/default voice selection, pitch/rate
// offsets, and the concurrency knobs shared by the LLM and TTS stages.
type RenderingSettings struct {
	NarratorVoice string   `json:"narrator_voice" yaml:"narrator_voice"`
	DefaultVoice  string   `json:"default_voice" yaml:"default_voice"`
	PitchHz       int      `json:"pitch_hz" yaml:"pitch_hz"`
	RatePercent   int      `json:"rate_percent" yaml:"rate_percent"`
	TTSThreads    int      `json:"tts_threads" yaml:"tts_threads"`
	LLMThreads    int      `json:"llm_threads" yaml:"llm_threads"`
	EnabledVoices []string `json:"enabled_voices" yaml:"enabled_voices"`
	LexxRegister  bool     `json:"lexx_register" yaml:"lexx_register"`
}

// OpusSettings bounds the Opus VBR encode.
type OpusSettings struct {
	MinBitrate       int `json:"min_bitrate" yaml:"min_bitrate"`
	MaxBitrate       int `json:"max_bitrate" yaml:"max_bitrate"`
	CompressionLevel int `json:"compression_level" yaml:"compression_level"`
}

// AudioProcessingSettings toggles the fixed-order filter chain and controls
// the inter-chunk silence gap.
type AudioProcessingSettings struct {
	SilenceRemoval bool         `json:"silence_removal" yaml:"silence_removal"`
	Normalization  bool         `json:"normalization" yaml:"normalization"`
	DeEss          bool         `json:"de_ess" yaml:"de_ess"`
	SilenceGapMs   int          `json:"silence_gap_ms" yaml:"silence_gap_ms"`
	EQ             bool         `json:"eq" yaml:"eq"`
	Compressor     bool         `json:"compressor" yaml:"compressor"`
	FadeIn         bool         `json:"fade_in" yaml:"fade_in"`
	StereoWidth    bool         `json:"stereo_width" yaml:"stereo_width"`
	Opus           OpusSettings `json:"opus" yaml:"opus"`
}

// LadderSettings parametrizes the TTS worker pool's adaptive controller.
type LadderSettings struct {
	MinWorkers        int     `json:"min_workers" yaml:"min_workers"`
	MaxWorkers        int     `json:"max_workers" yaml:"max_workers"`
	SampleSize        int     `json:"sample_size" yaml:"sample_size"`
	SuccessThreshold   float64 `json:"success_threshold" yaml:"success_threshold"`
	ScaleDownFactor   float64 `json:"scale_down_factor" yaml:"scale_down_factor"`
	ScaleUpIncrement  int     `json:"scale_up_increment" yaml:"scale_up_increment"`
	PerTaskRetryCap   int     `json:"per_task_retry_cap" yaml:"per_task_retry_cap"`
}

// DefaultLadderSettings returns the ladder defaults named in spec §4.3.
func DefaultLadderSettings() LadderSettings {
	return LadderSettings{
		MinWorkers:       2,
		MaxWorkers:       8,
		SampleSize:       10,
		SuccessThreshold: 0.8,
		ScaleDownFactor:  0.5,
		ScaleUpIncrement: 1,
		PerTaskRetryCap:  3,
	}
}

// OrchestratorInput is the single record passed to a conversion job.
type OrchestratorInput struct {
	Extract LLMStageCredentials `json:"extract"`
	Merge   LLMStageCredentials `json:"merge"`
	Assign  LLMStageCredentials `json:"assign"`
	UseVoting bool `json:"use_voting"`

	Rendering       RenderingSettings       `json:"rendering"`
	AudioProcessing AudioProcessingSettings `json:"audio_processing"`
	Ladder          LadderSettings          `json:"ladder"`

	OutputDir        string   `json:"output_dir"`
	Language         string   `json:"language"`
	DictionaryRules  []string `json:"dictionary_rules"`
	Text             string   `json:"text"`
	BookName         string   `json:"book_name"`
}

// RunStatus is the terminal state of a conversion job.
type RunStatus string

const (
	RunComplete   RunStatus = "complete"
	RunCancelled  RunStatus = "cancelled"
	RunError      RunStatus = "error"
)

// RunResult reports how a job ended.
type RunResult struct {
	Status  RunStatus `json:"status"`
	ErrKind string    `json:"err_kind,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ServerConfig configures the HTTP API surface (internal/api).
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
}

// LocalStorageOpts configures the filesystem storage adapter.
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path"`
}

// S3StorageOpts configures the S3-compatible storage adapter.
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// StorageConfig selects and configures the storage.Adapter backing job
// records, raw uploads, and character profiles.
type StorageConfig struct {
	Adapter string           `yaml:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local"`
	S3      S3StorageOpts    `yaml:"s3"`
}

// PipelineConfig bounds the conversion orchestrator's resource usage.
type PipelineConfig struct {
	WorkerPoolSize int    `yaml:"worker_pool_size"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms"`
	TempDir        string `yaml:"temp_dir"`
}

// ProviderConfig names one credentialed upstream (an LLM or TTS vendor).
type ProviderConfig struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"` // "openai", "anthropic", "stub"
	APIKey  string            `yaml:"api_key"`
	Model   string            `yaml:"model"`
	Enabled bool              `yaml:"enabled"`
	Options map[string]string `yaml:"options"`
}

// ProvidersConfig lists the credentialed upstreams available to a
// conversion job, keyed by concern.
type ProvidersConfig struct {
	LLM []ProviderConfig `yaml:"llm"`
	TTS []ProviderConfig `yaml:"tts"`
}

// Config is the top-level application configuration loaded by
// internal/config and consumed by cmd/audiobound.
type Config struct {
	Server       ServerConfig     `yaml:"server"`
	Storage      StorageConfig    `yaml:"storage"`
	Pipeline     PipelineConfig   `yaml:"pipeline"`
	Providers    ProvidersConfig  `yaml:"providers"`
	VoiceCatalog string           `yaml:"voice_catalog"` // optional path to a YAML voice catalog override
}
