// Package googleai implements the llms.Model interface for Google Gemini
// models using the google.golang.org/genai SDK.
//
// Authentication uses an API key from the GOOGLE_API_KEY environment variable
// unless an API key or credentials are provided with options.
package googleai
