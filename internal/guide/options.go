package guide

type clientOptions struct {
	textModel string
	voice     string
	baseURL   string
}

// ClientOption customises a provider client.
type ClientOption func(*clientOptions)

// WithTextModel overrides the provider's default text model.
func WithTextModel(model string) ClientOption {
	return func(o *clientOptions) { o.textModel = model }
}

// WithVoice overrides the provider's default speech voice.
func WithVoice(voice string) ClientOption {
	return func(o *clientOptions) { o.voice = voice }
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

func buildOptions(textModel, voice string, opts []ClientOption) clientOptions {
	o := clientOptions{textModel: textModel, voice: voice}
	for _, opt := range opts {
		opt(&o)
	}

	// empty overrides keep the defaults
	if o.textModel == "" {
		o.textModel = textModel
	}
	if o.voice == "" {
		o.voice = voice
	}

	return o
}
