package graph

import "time"

// Service endpoints
const (
	DefaultGraphURL      = "https://graph.microsoft.com/v1.0"
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	GraphDefaultScope    = "https://graph.microsoft.com/.default"
)

// Default HTTP Configuration Constants
const (
	DefaultTimeout = 30 * time.Second
)

// Synthetic status codes reported when a request never produced a response.
const (
	StatusTransportTimeout    = 408
	StatusTransportConnection = 503
	StatusTransportOther      = 500
)

// Content types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// ConflictBehaviorRename makes a colliding folder create succeed under a new name.
const ConflictBehaviorRename = "rename"

// RootItemID is the alias Graph accepts for a drive's root item.
const RootItemID = "root"
