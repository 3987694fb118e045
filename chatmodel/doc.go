// Package chatmodel carries the conversation context of a turn in context.Context.
package chatmodel
