package domain

import "context"

// Image an image attached to a request. Data is always re-encoded by ImagePreparer before it reaches a model,
// so MIMEType describes Data as it is now, not as it was uploaded.
type Image struct {
	Data     []byte
	MIMEType string
}

// CompleteRequest a single prompt-in/text-out call. Image is nil for text-only tasks.
type CompleteRequest struct {
	Prompt  string
	Image   *Image
	Options CompleteOptions
}

// VisionLanguageModel a generic interface for a vision-language model (VLM): a generative model which accepts text
// and, optionally, an image.
type VisionLanguageModel interface {
	// Name the name of the model. Useful for debugging.
	Name() string
	// Complete sends the prompt (and the image, if any) to the underlying model and returns the raw generated text,
	// without any post-processing. The chat template is applied by the backend.
	Complete(ctx context.Context, request CompleteRequest) (string, error)
}

// ImagePreparer turns uploaded bytes into something every backend can consume (decoded, RGB, reasonably sized).
type ImagePreparer interface {
	PrepareImage(data []byte) (*Image, error)
}
