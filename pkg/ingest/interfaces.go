package ingest

import (
	"context"

	"behancesync/pkg/behance"
	"behancesync/pkg/mirror"
)

// BehanceClient defines the API operations a sync needs
type BehanceClient interface {
	FetchProjects(ctx context.Context, username string) ([]behance.ProjectSummary, error)
	FetchUser(ctx context.Context, username string) (*behance.User, error)
	FetchProject(ctx context.Context, id int64) (*behance.Project, error)
}

// AssetMirror mirrors the assets of one normalized project in place
type AssetMirror interface {
	MirrorProject(ctx context.Context, p *behance.Project) (mirror.Summary, error)
}
