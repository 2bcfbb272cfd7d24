package domain

// A list of built-in config keys supported by the service's core (settings of the model backends are declared
// next to the backends).

const (
	// ConfigKeyLogPath file path where to save the logs (in addition to the console)
	ConfigKeyLogPath = "logPath"
	// ConfigKeyTraceLogPath if set, every call is appended to this JSONL file (see Trace)
	ConfigKeyTraceLogPath = "traceLogPath"
	// ConfigKeyMaxTokens the maximum number of tokens the model may generate per call
	ConfigKeyMaxTokens = "maxTokens"
	// ConfigKeyTemperature sampling temperature
	ConfigKeyTemperature = "temperature"
	// ConfigKeyRepetitionPenalty a coefficient against repetitions of same tokens
	ConfigKeyRepetitionPenalty = "repetitionPenalty"
	// ConfigKeyModelBackend which backend serves the model: "openai" (an OpenAI-compatible local server) or
	// "mlxvlm" (a subprocess per call)
	ConfigKeyModelBackend = "modelBackend"
	// ConfigKeyModelPath the model directory (or the model name the inference server knows it by)
	ConfigKeyModelPath = "modelPath"
	// ConfigKeyPreloadModel loads the model at startup instead of on the first request
	ConfigKeyPreloadModel = "preloadModel"
	// ConfigKeyResponseTimeout when to give up on a single model call (in milliseconds)
	ConfigKeyResponseTimeout = "responseTimeout"
	// ConfigKeyMaxImageSide images are downscaled so that their longest side doesn't exceed it (in pixels)
	ConfigKeyMaxImageSide = "maxImageSide"
)
