package catalog

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("catalog: workspace not found")
	ErrDomainNotFound    = errors.New("catalog: domain not found")
	ErrLinkNotFound      = errors.New("catalog: link not found")
)
