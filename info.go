package oaiharvest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryInfo summarizes a repository.
type RepositoryInfo struct {
	Endpoint string           `json:"endpoint"`
	Identify *Identification  `json:"id,omitempty"`
	Sets     []Set            `json:"sets,omitempty"`
	Formats  []MetadataFormat `json:"formats,omitempty"`
	// SetsUnsupported is true if the repository answered ListSets with
	// noSetHierarchy.
	SetsUnsupported bool    `json:"noSetHierarchy,omitempty"`
	Elapsed         float64 `json:"elapsed"`
}

// About runs Identify, ListSets and ListMetadataFormats concurrently and
// combines the results. The first failure cancels the other requests.
func About(ctx context.Context, client *Client, opts ...RequestOption) (*RepositoryInfo, error) {
	start := time.Now()
	info := &RepositoryInfo{Endpoint: client.Endpoint()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := client.Identify(ctx, opts...)
		info.Identify = id
		return err
	})
	g.Go(func() error {
		sets, err := client.ListSets(ctx, opts...).Collect()
		if oe, ok := asOAIError(err); ok && oe.Code == "noSetHierarchy" {
			info.SetsUnsupported = true
			return nil
		}
		info.Sets = sets
		return err
	})
	g.Go(func() error {
		formats, err := client.ListMetadataFormats(ctx, "", opts...)
		info.Formats = formats
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	info.Elapsed = time.Since(start).Seconds()
	return info, nil
}
