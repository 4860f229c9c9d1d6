package aionnx

// Config configures the local ONNX embedder
type Config struct {
	ModelPath     string
	TokenizerPath string
	// LibraryPath points at libonnxruntime; empty uses the runtime's default lookup
	LibraryPath string
	Dimensions  int
	MaxLength   int
}

func (c *Config) setDefaults() {
	if c.Dimensions == 0 {
		c.Dimensions = 384
	}
	if c.MaxLength == 0 {
		c.MaxLength = 128
	}
}
