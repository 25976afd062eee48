package bridge

import "errors"

var (
	// ErrTemplateNotFound means the resolved template path is not an existing regular file
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateLoad means the engine refused an existing template file
	ErrTemplateLoad = errors.New("template load failed")

	// ErrConfiguration means a required setting is missing or invalid
	ErrConfiguration = errors.New("invalid configuration")

	// ErrBridgeResolution means no factory is registered for a bridge identifier
	ErrBridgeResolution = errors.New("bridge not registered")
)
