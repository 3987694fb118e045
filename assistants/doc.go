// Package assistants answers user messages with a language model, optionally
// augmented with the tools of the registry.
//
// A turn sends the system prompt and the user text to the model. When the model
// requests tools, the known ones are executed in order and the model is called
// once more, without tools, with the results appended.
package assistants
