// Package hosting exposes the assistant on the activity protocol messaging endpoint.
//
// The Adapter decodes inbound activities, the Application routes them to
// handlers, and replies go back either in the HTTP response (expectReplies)
// or through a Sender posting to the channel connector.
package hosting
