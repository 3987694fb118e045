// Package store provides conversation transcript storage,
// in memory or in Redis.
package store
