// Package services implements the driving port interfaces.
//
// Broker is the RAG core: it chunks, embeds and stores documents and
// answers similarity queries, dispatching each call to real or simulated
// backends by mode. SettingsService maps the config store to typed
// settings, and SyncOrchestrator feeds a connector's files through the
// broker.
package services
